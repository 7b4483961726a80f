// Package loader reads series that are already on disk, standing in for the
// host viewer that normally supplies decoded frames.
//
// Two layouts are understood:
//   - a series directory written by export.DirAssembler (manifest.yaml plus
//     raw frames), and
//   - a directory of 8- or 16-bit grayscale PNG frames, ordered by the number
//     embedded in each filename.
package loader

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"imagemath/internal/models"
	"imagemath/pkg/export"
)

// LoadAll loads every directory in dirs, in order. The result is the list of
// candidates a pair is selected from.
func LoadAll(dirs []string) ([]*models.Series, error) {
	out := make([]*models.Series, 0, len(dirs))
	for _, dir := range dirs {
		s, err := LoadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to load series %s: %w", dir, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// LoadDir loads the series stored in dir.
func LoadDir(dir string) (*models.Series, error) {
	_, err := os.Stat(filepath.Join(dir, export.ManifestName))
	switch {
	case err == nil:
		return loadManifest(dir)
	case errors.Is(err, os.ErrNotExist):
		return loadPNG(dir)
	default:
		return nil, err
	}
}

func loadManifest(dir string) (*models.Series, error) {
	m, err := export.ReadManifest(dir)
	if err != nil {
		return nil, err
	}

	s := &models.Series{
		UID:         m.UID,
		Description: m.Description,
		ElementType: m.ElementType,
		Width:       m.Width,
		Height:      m.Height,
		Frames:      make([]models.Frame, len(m.Frames)),
	}
	if s.UID == "" {
		s.UID = uuid.NewString()
	}

	for i, entry := range m.Frames {
		buf, err := os.ReadFile(filepath.Join(dir, entry.File))
		if err != nil {
			return nil, err
		}
		data, err := export.DecodeFrame(buf, m.ElementType, m.Width, m.Height)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", i, err)
		}
		s.Frames[i] = models.Frame{
			Index:  entry.Index,
			Time:   entry.Time,
			Width:  m.Width,
			Height: m.Height,
			Data:   data,
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func loadPNG(dir string) (*models.Series, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var imageFiles []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".png") {
			imageFiles = append(imageFiles, e.Name())
		}
	}
	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no PNG frames found in %s", dir)
	}

	// Frame order is the number embedded in the filename; ties keep the
	// lexical order.
	sort.SliceStable(imageFiles, func(i, j int) bool {
		return extractNumber(imageFiles[i]) < extractNumber(imageFiles[j])
	})

	s := &models.Series{
		UID:         uuid.NewString(),
		Description: filepath.Base(filepath.Clean(dir)),
		Frames:      make([]models.Frame, 0, len(imageFiles)),
	}

	for i, name := range imageFiles {
		img, err := loadImage(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", name, err)
		}

		et, data := imageToSamples(img)
		b := img.Bounds()
		if i == 0 {
			s.ElementType = et
			s.Width, s.Height = b.Dx(), b.Dy()
		} else if et != s.ElementType {
			return nil, fmt.Errorf("frame %s is %s, series is %s", name, et, s.ElementType)
		}

		s.Frames = append(s.Frames, models.Frame{
			Index:  i,
			Time:   float64(i),
			Width:  b.Dx(),
			Height: b.Dy(),
			Data:   data,
		})
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// loadImage loads an image from a file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return png.Decode(file)
}

// imageToSamples returns the grayscale samples of img. 8-bit gray images
// keep their values; everything else goes through the 16-bit gray model.
func imageToSamples(img image.Image) (models.ElementType, []float64) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	data := make([]float64, w*h)

	if g, ok := img.(*image.Gray); ok {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			}
		}
		return models.Uint8, data
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.Gray16Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray16)
			data[y*w+x] = float64(c.Y)
		}
	}
	return models.Uint16, data
}
