// Command imagemath combines two 4D image series pixel by pixel.
//
// Usage:
//
//	imagemath [flags] series_dir series_dir [series_dir...]
//
// Each argument is a series directory: either PNG frames or a directory
// previously written by imagemath. Two of them are selected with -s1 and -s2
// and combined with -op; the result is written below -output and, when the
// database is enabled, stored in PostgreSQL.
//
// Exit status is 0 on success, 1 when the result holds guarded pixels and 2
// when nothing could be computed.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"imagemath/pkg/arithmetic"
	"imagemath/pkg/config"
	"imagemath/pkg/conformance"
	"imagemath/pkg/export"
	"imagemath/pkg/loader"
	"imagemath/pkg/logging"
	"imagemath/pkg/pixelop"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "imagemath.yaml", "Configuration file (defaults are used if it does not exist)")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	flag.String("op", "", "Operation: add, subtract, multiply, divide, lndiff (default from config)")
	flag.Int("s1", -1, "Index of series 1 among the arguments (default from config)")
	flag.Int("s2", -1, "Index of series 2 among the arguments (default from config)")
	flag.String("output", "", "Directory for result series (default from config)")
	flag.Int("cores", 0, "Number of frames computed concurrently; 0 keeps the config value")
	flag.Float64("sentinel", 0, "Value stored where a guard fires (default from config)")
	flag.String("description", "", "Description of the result series (default: generated)")
	flag.Bool("previews", false, "Also write PNG previews of the result frames")
	flag.Bool("db", false, "Store the result in PostgreSQL as configured")
	initDB := flag.Bool("init-db", false, "Create the database schema before storing")
	remember := flag.Bool("remember", false, "Save the selection as the default for the next run")
	flag.String("log-level", "", "Log level: debug, info, warn, error (default from config)")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write default config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return 0
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	applyOverrides(cfg, flag.CommandLine)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid settings: %v", err)
	}

	logger, err := newLogger(os.Stderr, cfg, flag.CommandLine)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}

	op, err := pixelop.ParseOperation(cfg.Parameters.Operation)
	if err != nil {
		log.Fatalf("Invalid operation: %v", err)
	}

	candidates, err := loader.LoadAll(flag.Args())
	if err != nil {
		logger.Error("Failed to load series", "error", err)
		return 2
	}
	for i, s := range candidates {
		logger.Debug("Series loaded", "index", i, "description", s.Description,
			"frames", s.FrameCount(), "width", s.Width, "height", s.Height, "type", s.ElementType)
	}

	engine := arithmetic.NewEngine(&arithmetic.Params{
		NumCores:          cfg.Processing.NumCores,
		Sentinel:          cfg.Processing.GuardSentinel,
		ResultDescription: cfg.Output.ResultDescription,
		Logger:            logger.Logger,
	})

	i, j := cfg.Parameters.Series1Index, cfg.Parameters.Series2Index
	result, err := engine.ComputeSelected(candidates, i, j, op)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cannot compute: %s\n", result.Status.Message())
		logger.Error("Computation abandoned", "status", result.Status, "error", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	assemblers := []export.Assembler{&export.DirAssembler{
		Root:     cfg.Output.Dir,
		Previews: cfg.Output.WritePreviews,
		Logger:   logger.Logger,
	}}
	if cfg.Database.Enabled {
		pg := export.PostgresConfig{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}
		if *initDB {
			if err := export.InitSchema(ctx, pg, cfg.Database.SignatureBins); err != nil {
				logger.Error("Failed to initialise database schema", "error", err)
				return 2
			}
		}
		store, err := export.NewPostgresAssembler(ctx, pg, cfg.Database.SignatureBins, logger.Logger)
		if err != nil {
			logger.Error("Failed to open database", "error", err)
			return 2
		}
		defer store.Close()
		assemblers = append(assemblers, store)
	}

	if err := export.Multi(assemblers...).Assemble(ctx, result.Output, result.Description); err != nil {
		logger.Error("Export failed", "error", err)
		return 2
	}

	printReport(result)

	if *remember {
		params := cfg.Parameters
		params.Operation = op.String()
		params.Series1Description = candidates[i].Description
		params.Series2Description = candidates[j].Description
		if err := config.SaveParameters(*configPath, params); err != nil {
			logger.Warn("Failed to remember selection", "error", err)
		}
	}

	if result.Code == arithmetic.Failure {
		return 1
	}
	return 0
}

// applyOverrides copies the flags set explicitly on fs into cfg. A
// non-positive -cores keeps the configured value.
func applyOverrides(cfg *config.Config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.(flag.Getter).Get()
		switch f.Name {
		case "op":
			cfg.Parameters.Operation = v.(string)
		case "s1":
			cfg.Parameters.Series1Index = v.(int)
		case "s2":
			cfg.Parameters.Series2Index = v.(int)
		case "output":
			cfg.Output.Dir = v.(string)
		case "cores":
			if n := v.(int); n > 0 {
				cfg.Processing.NumCores = n
			}
		case "sentinel":
			cfg.Processing.GuardSentinel = v.(float64)
		case "description":
			cfg.Output.ResultDescription = v.(string)
		case "previews":
			cfg.Output.WritePreviews = v.(bool)
		case "db":
			cfg.Database.Enabled = v.(bool)
		}
	})
}

// newLogger builds the logger at the configured level, then resets it to
// -log-level when that flag is set on fs.
func newLogger(w io.Writer, cfg *config.Config, fs *flag.FlagSet) (*logging.Logger, error) {
	logger := logging.New(w, cfg.Logging.Level, cfg.Logging.TimeFormat)
	if f := fs.Lookup("log-level"); f != nil && isSet(fs, f.Name) {
		if err := logger.SetLevel(f.Value.String()); err != nil {
			return nil, err
		}
	}
	return logger, nil
}

func isSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

func printReport(r *arithmetic.Result) {
	fmt.Printf("\nResult: %s (%s)\n", r.Description, r.Code)
	fmt.Printf("Conformance: %s\n", r.Status)
	if r.Status != conformance.Conformant {
		return
	}
	fmt.Printf("Frames: %d of %dx%d %s, computed in %s\n",
		r.Output.FrameCount(), r.Output.Width, r.Output.Height, r.Output.ElementType, r.Elapsed.Round(time.Millisecond))

	if r.Guards.Any() {
		fmt.Println("Guarded pixels:")
		fmt.Printf("- zero divisor: %d\n", r.Guards.ZeroDivisor)
		fmt.Printf("- non-positive logarithm argument: %d\n", r.Guards.NonPositiveLog)
		fmt.Printf("- non-finite result: %d\n", r.Guards.NonFinite)
		fmt.Printf("- saturated to type range: %d\n", r.Guards.Clamped)
	}

	fmt.Println("\nFrame statistics:")
	for i, s := range r.Summaries {
		fmt.Printf("%4d  mean %12.4f  sd %12.4f  min %12.4f  max %12.4f\n", i, s.Mean, s.StdDev, s.Min, s.Max)
	}
}
