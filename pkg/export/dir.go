package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"imagemath/internal/models"
	"imagemath/pkg/stats"
	"imagemath/pkg/visualization"
)

// ManifestName is the file describing a series directory.
const ManifestName = "manifest.yaml"

// FrameEntry describes one frame of a series directory.
type FrameEntry struct {
	Index   int           `yaml:"index"`
	Time    float64       `yaml:"time"`
	File    string        `yaml:"file"`
	Preview string        `yaml:"preview,omitempty"`
	Summary stats.Summary `yaml:"summary"`
}

// Manifest is the YAML header of a series directory.
type Manifest struct {
	UID         string             `yaml:"uid"`
	Description string             `yaml:"description"`
	ElementType models.ElementType `yaml:"elementType"`
	Width       int                `yaml:"width"`
	Height      int                `yaml:"height"`
	FrameCount  int                `yaml:"frameCount"`
	CreatedAt   time.Time          `yaml:"createdAt"`
	Frames      []FrameEntry       `yaml:"frames"`
}

// ReadManifest loads the manifest of the series directory dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", ManifestName, err)
	}
	if m.FrameCount != len(m.Frames) {
		return nil, fmt.Errorf("manifest lists %d frames, header says %d", len(m.Frames), m.FrameCount)
	}
	return &m, nil
}

// DirAssembler writes each series into its own directory below Root.
type DirAssembler struct {
	// Root is the parent directory of the series directories
	Root string

	// Previews adds a PNG rendering next to every raw frame
	Previews bool

	Logger *slog.Logger
}

// Assemble writes series into Root/<sanitised description>_<uid prefix>.
func (d *DirAssembler) Assemble(ctx context.Context, series *models.Series, description string) error {
	dir := d.SeriesDir(series, description)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create series directory: %w", err)
	}

	m := Manifest{
		UID:         series.UID,
		Description: description,
		ElementType: series.ElementType,
		Width:       series.Width,
		Height:      series.Height,
		FrameCount:  series.FrameCount(),
		CreatedAt:   time.Now().UTC(),
		Frames:      make([]FrameEntry, series.FrameCount()),
	}

	var previews []string
	if d.Previews {
		names, err := visualization.NewViewer(series).SaveSliceSequence("t", "preview", dir)
		if err != nil {
			return fmt.Errorf("failed to save previews: %w", err)
		}
		previews = names
	}

	for i := range series.Frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		f := &series.Frames[i]
		name := fmt.Sprintf("frame_%04d.raw", i)
		if err := os.WriteFile(filepath.Join(dir, name), EncodeFrame(f, series.ElementType), 0644); err != nil {
			return fmt.Errorf("failed to write frame %d: %w", i, err)
		}
		m.Frames[i] = FrameEntry{
			Index:   f.Index,
			Time:    f.Time,
			File:    name,
			Summary: stats.Summarize(f),
		}
		if previews != nil {
			m.Frames[i].Preview = previews[i]
		}
	}

	data, err := yaml.Marshal(&m)
	if err != nil {
		return fmt.Errorf("error marshaling manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestName), data, 0644); err != nil {
		return fmt.Errorf("error writing manifest: %w", err)
	}

	if d.Logger != nil {
		d.Logger.Info("Series exported", "dir", dir, "frames", m.FrameCount, "previews", d.Previews)
	}
	return nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SeriesDir returns the directory Assemble uses for series.
func (d *DirAssembler) SeriesDir(series *models.Series, description string) string {
	name := strings.Trim(unsafeChars.ReplaceAllString(description, "_"), "_")
	if name == "" {
		name = "series"
	}
	if uid := series.UID; uid != "" {
		if len(uid) > 8 {
			uid = uid[:8]
		}
		name += "_" + uid
	}
	return filepath.Join(d.Root, name)
}
