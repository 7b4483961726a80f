package export

import (
	"encoding/binary"
	"fmt"
	"math"

	"imagemath/internal/models"
)

// EncodeFrame serialises the samples of f as little-endian values of type et.
// Samples must already be representable in et.
func EncodeFrame(f *models.Frame, et models.ElementType) []byte {
	size := et.Size()
	buf := make([]byte, len(f.Data)*size)
	for i, v := range f.Data {
		b := buf[i*size : (i+1)*size]
		switch et {
		case models.Uint8:
			b[0] = uint8(v)
		case models.Uint16:
			binary.LittleEndian.PutUint16(b, uint16(v))
		case models.Int16:
			binary.LittleEndian.PutUint16(b, uint16(int16(v)))
		case models.Int32:
			binary.LittleEndian.PutUint32(b, uint32(int32(v)))
		case models.Float32:
			binary.LittleEndian.PutUint32(b, math.Float32bits(float32(v)))
		default:
			binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		}
	}
	return buf
}

// DecodeFrame is the inverse of EncodeFrame.
func DecodeFrame(buf []byte, et models.ElementType, width, height int) ([]float64, error) {
	n := width * height
	size := et.Size()
	if len(buf) != n*size {
		return nil, fmt.Errorf("frame buffer has %d bytes, want %d (%dx%d %s)", len(buf), n*size, width, height, et)
	}
	data := make([]float64, n)
	for i := range data {
		b := buf[i*size : (i+1)*size]
		switch et {
		case models.Uint8:
			data[i] = float64(b[0])
		case models.Uint16:
			data[i] = float64(binary.LittleEndian.Uint16(b))
		case models.Int16:
			data[i] = float64(int16(binary.LittleEndian.Uint16(b)))
		case models.Int32:
			data[i] = float64(int32(binary.LittleEndian.Uint32(b)))
		case models.Float32:
			data[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b)))
		default:
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(b))
		}
	}
	return data, nil
}
