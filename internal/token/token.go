// Package token builds random token strings from a configurable alphabet.
package token

import (
	"errors"
	"fmt"
	"strings"

	"github.com/philecms/philekit/internal/securerand"
)

const (
	// DefaultLength is the token length used when none is given
	DefaultLength = 32

	upperChars   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars   = "abcdefghijklmnopqrstuvwxyz"
	digitChars   = "0123456789"
	specialChars = "!/()=?[]|{}"
)

// ErrInvalidLength indicates a negative token length
var ErrInvalidLength = errors.New("token length cannot be negative")

// Options controls which characters may appear in a token
type Options struct {
	// IncludeSpecialChars adds !/()=?[]|{} to the alphabet
	IncludeSpecialChars bool
	// AdditionalChars are appended to the alphabet after the built-in sets
	AdditionalChars string
}

// DefaultOptions returns the options used by GenerateDefault (special chars on)
func DefaultOptions() Options {
	return Options{IncludeSpecialChars: true}
}

// Alphabet returns the ordered symbol set for the given options.
// Letters and digits always come first, so the result is never empty.
// Additional characters already present are skipped.
func Alphabet(opts Options) []rune {
	var b strings.Builder
	b.WriteString(upperChars)
	b.WriteString(lowerChars)
	b.WriteString(digitChars)
	if opts.IncludeSpecialChars {
		b.WriteString(specialChars)
	}

	alphabet := []rune(b.String())
	seen := make(map[rune]bool, len(alphabet)+len(opts.AdditionalChars))
	for _, r := range alphabet {
		seen[r] = true
	}
	for _, r := range opts.AdditionalChars {
		if seen[r] {
			continue
		}
		seen[r] = true
		alphabet = append(alphabet, r)
	}

	return alphabet
}

// Generator creates tokens using a secure random source
type Generator struct {
	rng *securerand.Generator
}

// New creates a Generator backed by crypto/rand
func New() *Generator {
	return &Generator{rng: securerand.New()}
}

// NewWithRand creates a Generator with a custom random source (for testing)
func NewWithRand(rng *securerand.Generator) *Generator {
	return &Generator{rng: rng}
}

// Generate returns a token of exactly length characters, each drawn
// independently and uniformly from the alphabet described by opts.
func (g *Generator) Generate(length int, opts Options) (string, error) {
	if length < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, length)
	}

	alphabet := Alphabet(opts)
	size := int64(len(alphabet))

	var b strings.Builder
	b.Grow(length)
	for range length {
		idx, err := g.rng.Int(0, size)
		if err != nil {
			return "", fmt.Errorf("failed to draw token character: %w", err)
		}
		b.WriteRune(alphabet[idx])
	}

	return b.String(), nil
}

var defaultGenerator = New()

// Generate creates a token of the given length using crypto/rand
func Generate(length int, opts Options) (string, error) {
	return defaultGenerator.Generate(length, opts)
}

// GenerateDefault creates a 32-character token including special characters
func GenerateDefault() (string, error) {
	return Generate(DefaultLength, DefaultOptions())
}

// MustGenerate creates a token and panics on error.
// Use only when you're certain random generation won't fail.
func MustGenerate(length int, opts Options) string {
	tok, err := Generate(length, opts)
	if err != nil {
		panic(err)
	}
	return tok
}
