// Package conformance decides whether two series can be combined element by
// element. The check runs to completion before any pixel is read.
package conformance

import (
	"errors"
	"fmt"

	"imagemath/internal/models"
)

// Status describes a pair of series with respect to element-wise arithmetic.
type Status int

const (
	Conformant    Status = iota // suitable for calculation
	TooFew                      // fewer than two series to choose from
	Nonconformant               // frame count, dimensions or element type differ
)

var (
	ErrTooFew        = errors.New("too few series loaded")
	ErrNonconformant = errors.New("series are not conformant")
)

func (s Status) String() string {
	switch s {
	case Conformant:
		return "conformant"
	case TooFew:
		return "too few"
	case Nonconformant:
		return "nonconformant"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Message is the text shown to the user for s.
func (s Status) Message() string {
	switch s {
	case TooFew:
		return ErrTooFew.Error()
	case Nonconformant:
		return ErrNonconformant.Error()
	}
	return "series are conformant"
}

// StatusOf maps an error returned by Verify or Check back to a Status.
func StatusOf(err error) Status {
	switch {
	case err == nil:
		return Conformant
	case errors.Is(err, ErrTooFew):
		return TooFew
	default:
		return Nonconformant
	}
}

// Verify returns nil when a and b are each internally consistent and have the
// same frame count, the same width and height in every frame, and the same
// element type. Otherwise the error wraps ErrNonconformant and names the first
// mismatch found.
func Verify(a, b *models.Series) error {
	if a == nil || b == nil {
		return fmt.Errorf("%w: missing series", ErrNonconformant)
	}
	if a.FrameCount() == 0 || b.FrameCount() == 0 {
		return fmt.Errorf("%w: empty series (%d and %d frames)", ErrNonconformant, a.FrameCount(), b.FrameCount())
	}
	for _, s := range []*models.Series{a, b} {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: %w", ErrNonconformant, err)
		}
	}
	if a.Width != b.Width || a.Height != b.Height {
		return fmt.Errorf("%w: dimensions differ (%dx%d vs %dx%d)", ErrNonconformant, a.Width, a.Height, b.Width, b.Height)
	}
	if a.FrameCount() != b.FrameCount() {
		return fmt.Errorf("%w: frame counts differ (%d vs %d)", ErrNonconformant, a.FrameCount(), b.FrameCount())
	}
	if a.ElementType != b.ElementType {
		return fmt.Errorf("%w: element types differ (%s vs %s)", ErrNonconformant, a.ElementType, b.ElementType)
	}
	for i := range a.Frames {
		fa, fb := &a.Frames[i], &b.Frames[i]
		if fa.Width != fb.Width {
			return fmt.Errorf("%w: frame %d widths differ (%d vs %d)", ErrNonconformant, i, fa.Width, fb.Width)
		}
		if fa.Height != fb.Height {
			return fmt.Errorf("%w: frame %d heights differ (%d vs %d)", ErrNonconformant, i, fa.Height, fb.Height)
		}
		if len(fa.Data) != fa.Len() || len(fb.Data) != fb.Len() {
			return fmt.Errorf("%w: frame %d has a malformed pixel buffer", ErrNonconformant, i)
		}
	}
	return nil
}

// Check validates the pair selected by indices i and j from the series the
// host has loaded.
func Check(candidates []*models.Series, i, j int) (Status, error) {
	if len(candidates) < 2 {
		return TooFew, fmt.Errorf("%w: %d available", ErrTooFew, len(candidates))
	}
	for _, idx := range []int{i, j} {
		if idx < 0 || idx >= len(candidates) {
			return Nonconformant, fmt.Errorf("%w: index %d out of range [0, %d)", ErrNonconformant, idx, len(candidates))
		}
	}
	if err := Verify(candidates[i], candidates[j]); err != nil {
		return Nonconformant, err
	}
	return Conformant, nil
}
