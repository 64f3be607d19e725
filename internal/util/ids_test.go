package util

import (
	"testing"
)

func TestIsRunID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"Valid21Chars", "sGvgBXbBcVCjBIKCLS2Os", true},
		{"Valid21CharsAlt", "tHwhCYcCdWDkCJLDMT3Pt", true},
		{"TooShort", "abc123", false},
		{"TooLong", "sGvgBXbBcVCjBIKCLS2OsX", false},
		{"WithSpace", "sGvgBXbBcVCjBIKCL 2Os", false},
		{"WithComma", "sGvgBXbBcVCjBIKCL,2Os", false},
		{"Empty", "", false},
		{"AllDashes", "---------------------", true},
		{"AllUnderscores", "_____________________", true},
		{"MixedValid", "Aa0_-Bb1_-Cc2_-Dd3_-E", true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := IsRunID(tc.in)
			if got != tc.want {
				t.Fatalf("IsRunID(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestNewRunIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewRunID()
		if !IsRunID(id) {
			t.Fatalf("NewRunID() = %q, not a valid run id", id)
		}
		if seen[id] {
			t.Fatalf("NewRunID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}
