package storage

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch indicates a stored embedding whose length does not
// match the dimension used for query vectors. This is corruption (or a
// model change without re-ingestion), never a recoverable condition.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

func dimensionError(got, want int) error {
	return fmt.Errorf("%w: got %d floats, expected %d", ErrDimensionMismatch, got, want)
}

// encodeEmbedding packs a vector as little-endian float32s.
func encodeEmbedding(vec []float32) []byte {
	buf := make([]byte, 4*len(vec))
	for i, f := range vec {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(f))
	}
	return buf
}

func decodeEmbedding(blob []byte, dim int) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("%w: blob length %d is not a multiple of 4", ErrDimensionMismatch, len(blob))
	}
	n := len(blob) / 4
	if n != dim {
		return nil, dimensionError(n, dim)
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[4*i:]))
	}
	return vec, nil
}
