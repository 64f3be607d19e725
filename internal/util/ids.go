package util

import (
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const nanoidLen = 21

// NewRunID generates a unique identifier for a crawl or enrichment run.
// Falls back to MustGenerate's panic only on a broken entropy source.
func NewRunID() string {
	return gonanoid.Must(nanoidLen)
}

// NewCorrelationID generates a unique identifier used to correlate queue
// messages belonging to the same job.
func NewCorrelationID() string {
	return gonanoid.Must(nanoidLen)
}

// IsRunID reports whether s looks like an identifier produced by NewRunID:
// exactly 21 characters from the nanoid default alphabet.
func IsRunID(s string) bool {
	if len(s) != nanoidLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}
