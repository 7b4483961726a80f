package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Processing.NumCores < 1 {
		t.Errorf("expected a positive core count, got %d", cfg.Processing.NumCores)
	}
	if cfg.Parameters.Operation != "subtract" {
		t.Errorf("expected default operation subtract, got %q", cfg.Parameters.Operation)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "imagemath.yaml")

	cfg := DefaultConfig()
	cfg.Processing.NumCores = 3
	cfg.Processing.GuardSentinel = -1
	cfg.Output.ResultDescription = "ratio"
	cfg.Database.DBName = "pacs"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if got.Processing.NumCores != 3 || got.Processing.GuardSentinel != -1 {
		t.Errorf("processing section not preserved: %+v", got.Processing)
	}
	if got.Output.ResultDescription != "ratio" || got.Database.DBName != "pacs" {
		t.Errorf("unexpected config after round trip: %+v", got)
	}
}

func TestPartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected level debug, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.TimeFormat != "15:04:05" {
		t.Errorf("expected default time format, got %q", cfg.Logging.TimeFormat)
	}
}

func TestInvalidFileIsRejected(t *testing.T) {
	tests := map[string]string{
		"bad yaml":       "processing: [",
		"bad operation":  "parameters:\n  operation: modulo\n",
		"bad level":      "logging:\n  level: chatty\n",
		"zero cores":     "processing:\n  numCores: 0\n",
		"missing dbname": "database:\n  enabled: true\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.yaml")
			if err := os.WriteFile(path, []byte(body), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadConfig(path); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSaveParameters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imagemath.yaml")

	cfg := DefaultConfig()
	cfg.Processing.NumCores = 2
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}

	params := Parameters{
		Operation:          "lndiff",
		Series1Index:       2,
		Series2Index:       0,
		Series1Description: "dyn_late",
		Series2Description: "dyn_base",
	}
	if err := SaveParameters(path, params); err != nil {
		t.Fatalf("SaveParameters: %v", err)
	}

	got, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Parameters != params {
		t.Errorf("parameters = %+v, want %+v", got.Parameters, params)
	}
	if got.Processing.NumCores != 2 {
		t.Errorf("SaveParameters changed other settings: numCores = %d", got.Processing.NumCores)
	}
}

func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "default.yaml")
	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("default file does not load: %v", err)
	}
}
