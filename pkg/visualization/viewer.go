package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"imagemath/internal/models"
	"imagemath/pkg/stats"
)

// Viewer renders a series as 16-bit grayscale images. Intensities are
// normalised to the minimum and maximum over the whole series so frames
// remain comparable with each other.
type Viewer struct {
	series *models.Series

	// intensity window
	low  float64
	high float64
}

// NewViewer creates a viewer for s.
func NewViewer(s *models.Series) *Viewer {
	low, high := stats.Range(s)
	if math.IsInf(low, 0) || math.IsInf(high, 0) {
		low, high = 0, 0
	}
	return &Viewer{series: s, low: low, high: high}
}

// SetWindow overrides the intensity window.
func (v *Viewer) SetWindow(low, high float64) {
	v.low, v.high = low, high
}

func (v *Viewer) gray(value float64) color.Gray16 {
	if v.high <= v.low {
		return color.Gray16{}
	}
	t := (value - v.low) / (v.high - v.low)
	return color.Gray16{Y: uint16(math.Max(0, math.Min(65535, t*65535)))}
}

// ExtractSlice cuts the series along an axis. "t" returns frame position as
// is; "x" and "y" return a plane with time on the horizontal axis, showing how
// one column or row evolves across frames.
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	s := v.series
	depth := s.FrameCount()
	var img *image.Gray16

	switch axis {
	case "x", "X":
		if position >= s.Width {
			return nil, fmt.Errorf("position %d exceeds width %d", position, s.Width)
		}
		img = image.NewGray16(image.Rect(0, 0, depth, s.Height))
		for z := 0; z < depth; z++ {
			for y := 0; y < s.Height; y++ {
				img.SetGray16(z, y, v.gray(s.Frames[z].At(position, y)))
			}
		}

	case "y", "Y":
		if position >= s.Height {
			return nil, fmt.Errorf("position %d exceeds height %d", position, s.Height)
		}
		img = image.NewGray16(image.Rect(0, 0, s.Width, depth))
		for z := 0; z < depth; z++ {
			for x := 0; x < s.Width; x++ {
				img.SetGray16(x, z, v.gray(s.Frames[z].At(x, position)))
			}
		}

	case "t", "T", "z", "Z":
		if position >= depth {
			return nil, fmt.Errorf("position %d exceeds frame count %d", position, depth)
		}
		f := &s.Frames[position]
		img = image.NewGray16(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			for x := 0; x < f.Width; x++ {
				img.SetGray16(x, y, v.gray(f.At(x, y)))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y or t)", axis)
	}

	return img, nil
}

// SaveSlice saves an extracted slice as a PNG image
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}

	if err := png.Encode(file, img); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// SaveSliceSequence extracts and saves every slice along the specified axis.
// Files are named <prefix>_<position>.png.
func (v *Viewer) SaveSliceSequence(axis, prefix, outputDir string) ([]string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.series.Width
	case "y", "Y":
		maxPos = v.series.Height
	case "t", "T", "z", "Z":
		maxPos = v.series.FrameCount()
	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y or t)", axis)
	}

	names := make([]string, 0, maxPos)
	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return nil, err
		}

		name := fmt.Sprintf("%s_%04d.png", prefix, pos)
		if err := v.SaveSlice(img, filepath.Join(outputDir, name)); err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}
