package models

import (
	"fmt"
	"math"
	"strings"
)

// ElementType is the numeric type of every sample in a series.
// A series carries exactly one element type.
type ElementType int

const (
	Uint8 ElementType = iota
	Uint16
	Int16
	Int32
	Float32
	Float64
)

var elementTypeNames = [...]string{
	Uint8:   "uint8",
	Uint16:  "uint16",
	Int16:   "int16",
	Int32:   "int32",
	Float32: "float32",
	Float64: "float64",
}

func (t ElementType) String() string {
	if t < Uint8 || t > Float64 {
		return fmt.Sprintf("ElementType(%d)", int(t))
	}
	return elementTypeNames[t]
}

// ParseElementType is the inverse of String.
func ParseElementType(s string) (ElementType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range elementTypeNames {
		if name == s {
			return ElementType(t), nil
		}
	}
	return 0, fmt.Errorf("unknown element type %q", s)
}

// MarshalText implements encoding.TextMarshaler so the type reads well in
// manifests.
func (t ElementType) MarshalText() ([]byte, error) {
	if t < Uint8 || t > Float64 {
		return nil, fmt.Errorf("invalid element type %d", int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ElementType) UnmarshalText(b []byte) error {
	v, err := ParseElementType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Size returns the number of bytes used by one sample.
func (t ElementType) Size() int {
	switch t {
	case Uint8:
		return 1
	case Uint16, Int16:
		return 2
	case Int32, Float32:
		return 4
	default:
		return 8
	}
}

// IsInteger reports whether samples are stored as integers.
func (t ElementType) IsInteger() bool {
	return t == Uint8 || t == Uint16 || t == Int16 || t == Int32
}

// Range returns the smallest and largest representable finite values.
func (t ElementType) Range() (min, max float64) {
	switch t {
	case Uint8:
		return 0, math.MaxUint8
	case Uint16:
		return 0, math.MaxUint16
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Float32:
		return -math.MaxFloat32, math.MaxFloat32
	default:
		return -math.MaxFloat64, math.MaxFloat64
	}
}

// Store converts a float64 accumulator into a value representable by t.
// Integer types truncate toward zero. Values outside the type's range
// saturate at the nearest bound and clamped is true. The caller must not
// pass NaN or an infinity.
func (t ElementType) Store(v float64) (stored float64, clamped bool) {
	lo, hi := t.Range()
	if t.IsInteger() {
		v = math.Trunc(v)
	}
	switch {
	case v < lo:
		return lo, true
	case v > hi:
		return hi, true
	}
	if t == Float32 {
		return float64(float32(v)), false
	}
	return v, false
}

// Frame is one 2D image of a series, stored row-major.
type Frame struct {
	// Index is the position of this frame in the series
	Index int

	// Time is the acquisition offset of the frame in seconds
	Time float64

	Width  int
	Height int

	// Data holds Width*Height samples already converted to the series'
	// element type
	Data []float64
}

// Len returns the number of pixels in the frame.
func (f *Frame) Len() int { return f.Width * f.Height }

// At returns the sample at (x, y).
func (f *Frame) At(x, y int) float64 { return f.Data[y*f.Width+x] }

// Set stores v at (x, y) without any conversion.
func (f *Frame) Set(x, y int, v float64) { f.Data[y*f.Width+x] = v }

// Clone returns a deep copy of the frame.
func (f *Frame) Clone() Frame {
	c := *f
	c.Data = append([]float64(nil), f.Data...)
	return c
}

// Series is an ordered multi-frame dataset (a time series or a slice stack).
// Width, Height and ElementType are shared by all frames.
type Series struct {
	// UID identifies the series for export
	UID string

	// Description is the human-readable series name shown by the host
	Description string

	ElementType ElementType
	Width       int
	Height      int

	Frames []Frame
}

// NewSeries allocates a zeroed series of n frames.
func NewSeries(description string, et ElementType, width, height, n int) *Series {
	s := &Series{
		Description: description,
		ElementType: et,
		Width:       width,
		Height:      height,
		Frames:      make([]Frame, n),
	}
	for i := range s.Frames {
		s.Frames[i] = Frame{
			Index:  i,
			Width:  width,
			Height: height,
			Data:   make([]float64, width*height),
		}
	}
	return s
}

// FrameCount returns the number of frames in the series.
func (s *Series) FrameCount() int { return len(s.Frames) }

// Validate checks that every frame matches the series metadata.
func (s *Series) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("series %q has invalid dimensions %dx%d", s.Description, s.Width, s.Height)
	}
	for i := range s.Frames {
		f := &s.Frames[i]
		if f.Width != s.Width || f.Height != s.Height {
			return fmt.Errorf("series %q frame %d is %dx%d, series is %dx%d",
				s.Description, i, f.Width, f.Height, s.Width, s.Height)
		}
		if len(f.Data) != f.Len() {
			return fmt.Errorf("series %q frame %d has %d samples, want %d",
				s.Description, i, len(f.Data), f.Len())
		}
	}
	return nil
}
