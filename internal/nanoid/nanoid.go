// Package nanoid provides short random identifiers for temporary and backup file names.
package nanoid

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	// alphabet contains only lowercase letters so IDs are safe in any file name
	alphabet = "abcdefghijklmnopqrstuvwxyz"
	// idLength is the length of generated IDs (26^6 = 308,915,776 combinations)
	idLength = 6
)

// Generate creates a new NanoID with 6 lowercase letters.
func Generate() (string, error) {
	return gonanoid.Generate(alphabet, idLength)
}

// MustGenerate creates a new NanoID and panics on error.
// Use only when you're certain random generation won't fail.
func MustGenerate() string {
	return gonanoid.MustGenerate(alphabet, idLength)
}
