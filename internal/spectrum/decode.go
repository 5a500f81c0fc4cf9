// Package spectrum decodes raw intensity files and rebuilds their angle axis.
package spectrum

import (
	"encoding/binary"
	"math"
)

// SampleSize is the width of one packed float32 sample in bytes.
const SampleSize = 4

// Decode interprets buf as little-endian IEEE-754 float32 samples in file order.
// Up to three trailing bytes that do not form a full sample are ignored.
func Decode(buf []byte) []float32 {
	count := len(buf) / SampleSize
	values := make([]float32, count)
	for i := 0; i < count; i++ {
		bits := binary.LittleEndian.Uint32(buf[i*SampleSize : i*SampleSize+SampleSize])
		values[i] = math.Float32frombits(bits)
	}
	return values
}
