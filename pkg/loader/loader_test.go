package loader

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"imagemath/internal/models"
	"imagemath/pkg/export"
)

// createTestImage creates a grayscale test image with the specified dimensions and pattern
func createTestImage(width, height int, pattern func(x, y int) uint16) image.Image {
	img := image.NewGray16(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.Gray16{Y: pattern(x, y)})
		}
	}
	return img
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("Failed to encode %s: %v", path, err)
	}
}

func TestLoadPNGDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "dyn_pre")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	// Written out of lexical order: frame_10 must come after frame_9.
	for _, n := range []int{10, 2, 9} {
		img := createTestImage(6, 4, func(x, y int) uint16 { return uint16(1000*n + 10*y + x) })
		writePNG(t, filepath.Join(dir, fmt.Sprintf("frame_%d.png", n)), img)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if s.Description != "dyn_pre" {
		t.Errorf("Expected description dyn_pre, got %q", s.Description)
	}
	if s.ElementType != models.Uint16 || s.Width != 6 || s.Height != 4 {
		t.Errorf("Unexpected metadata: %s %dx%d", s.ElementType, s.Width, s.Height)
	}
	if s.FrameCount() != 3 {
		t.Fatalf("Expected 3 frames, got %d", s.FrameCount())
	}
	for i, n := range []int{2, 9, 10} {
		if got := s.Frames[i].At(5, 3); got != float64(1000*n+35) {
			t.Errorf("Frame %d: expected %d, got %v", i, 1000*n+35, got)
		}
	}
	if s.UID == "" {
		t.Error("Expected a UID to be assigned")
	}
}

func TestLoadGray8(t *testing.T) {
	dir := t.TempDir()
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})
	writePNG(t, filepath.Join(dir, "s1.png"), img)

	s, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if s.ElementType != models.Uint8 || s.Frames[0].At(1, 1) != 200 {
		t.Errorf("Unexpected series: %s %v", s.ElementType, s.Frames[0].Data)
	}
}

func TestLoadEmptyDirectory(t *testing.T) {
	if _, err := LoadDir(t.TempDir()); err == nil {
		t.Error("Expected an error for a directory without frames")
	}
}

func TestLoadExportedSeries(t *testing.T) {
	s := models.NewSeries("ratio", models.Float32, 3, 2, 2)
	s.UID = "11111111-2222-3333-4444-555555555555"
	for i := range s.Frames {
		s.Frames[i].Time = 4.5 * float64(i)
		for p := range s.Frames[i].Data {
			s.Frames[i].Data[p] = float64(float32(0.1 * float64(p+i)))
		}
	}

	d := &export.DirAssembler{Root: t.TempDir()}
	if err := d.Assemble(context.Background(), s, "ratio"); err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	series, err := LoadAll([]string{d.SeriesDir(s, "ratio")})
	if err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	got := series[0]
	if got.UID != s.UID || got.Description != "ratio" || got.ElementType != models.Float32 {
		t.Errorf("Unexpected metadata: %+v", got)
	}
	for i := range s.Frames {
		if got.Frames[i].Time != s.Frames[i].Time {
			t.Errorf("Frame %d time: expected %v, got %v", i, s.Frames[i].Time, got.Frames[i].Time)
		}
		for p := range s.Frames[i].Data {
			if got.Frames[i].Data[p] != s.Frames[i].Data[p] {
				t.Errorf("Frame %d pixel %d: expected %v, got %v", i, p, s.Frames[i].Data[p], got.Frames[i].Data[p])
			}
		}
	}
}

func TestExtractNumber(t *testing.T) {
	tests := map[string]int{
		"frame_0012.png": 12,
		"IM-0001-0003":   10003,
		"preview.png":    0,
	}
	for name, want := range tests {
		if got := extractNumber(name); got != want {
			t.Errorf("extractNumber(%q) = %d, want %d", name, got, want)
		}
	}
}
