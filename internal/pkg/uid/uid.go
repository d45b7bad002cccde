// Package uid provides small ID generators behind tiny interfaces so callers
// can swap implementations in tests.
package uid

// StringID generates string identifiers (UUIDs and the like).
type StringID interface {
	// Generate returns a new string identifier.
	Generate() string
}

// NumberID generates int64 identifiers (snowflakes and the like).
type NumberID interface {
	// Generate returns a new int64 identifier.
	Generate() int64
}
