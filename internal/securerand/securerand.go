// Package securerand provides uniformly distributed random integers drawn from a
// cryptographically secure entropy source.
package securerand

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/bits"
)

var (
	// ErrEntropySourceUnavailable indicates the secure random source could not be read
	ErrEntropySourceUnavailable = errors.New("entropy source unavailable")
	// ErrInvalidRange indicates max is not greater than min
	ErrInvalidRange = errors.New("invalid range: max must be greater than min")
)

// Generator draws bounded integers from an entropy source
type Generator struct {
	// reader allows for dependency injection in tests
	reader io.Reader
}

// New creates a Generator backed by crypto/rand
func New() *Generator {
	return &Generator{reader: rand.Reader}
}

// NewWithReader creates a Generator reading from a custom source (for testing)
func NewWithReader(r io.Reader) *Generator {
	return &Generator{reader: r}
}

var defaultGenerator = New()

// Int returns a uniform random integer in [min, max) using crypto/rand.
func Int(min, max int64) (int64, error) {
	return defaultGenerator.Int(min, max)
}

// Int returns a uniform random integer in [min, max).
//
// Values are produced by rejection sampling: random bytes are masked down to the
// bit length of the range and redrawn until they fall inside it, so no modulo
// bias is introduced. Returns ErrInvalidRange when max <= min and
// ErrEntropySourceUnavailable when the reader fails.
func (g *Generator) Int(min, max int64) (int64, error) {
	if max <= min {
		return 0, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, min, max)
	}

	// max > min, so the difference always fits in a uint64
	span := uint64(max) - uint64(min)

	bitLength := bits.Len64(span)
	byteLength := bitLength/8 + 1
	filter := ^uint64(0)
	if bitLength < 64 {
		filter = uint64(1)<<bitLength - 1
	}

	buf := make([]byte, byteLength)
	for {
		if _, err := io.ReadFull(g.reader, buf); err != nil {
			return 0, fmt.Errorf("%w: %w", ErrEntropySourceUnavailable, err)
		}

		var rnd uint64
		for _, b := range buf {
			rnd = rnd<<8 | uint64(b)
		}
		rnd &= filter

		if rnd < span {
			return int64(uint64(min) + rnd), nil
		}
	}
}

// MustInt returns a random integer in [min, max) and panics on error.
// Use only with constant bounds and the default entropy source.
func MustInt(min, max int64) int64 {
	n, err := Int(min, max)
	if err != nil {
		panic(err)
	}
	return n
}
