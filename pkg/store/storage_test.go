package store

import (
	"fmt"
	"reflect"
	"testing"
)

func TestChunkRange(t *testing.T) {
	cases := []struct {
		name      string
		total     int
		chunkSize int
		want      [][2]int
	}{
		{"empty", 0, 10, nil},
		{"single partial chunk", 3, 10, [][2]int{{0, 3}}},
		{"exact chunks", 6, 3, [][2]int{{0, 3}, {3, 6}}},
		{"trailing partial chunk", 7, 3, [][2]int{{0, 3}, {3, 6}, {6, 7}}},
		{"non-positive chunk size covers everything", 4, 0, [][2]int{{0, 4}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got [][2]int
			err := ChunkRange(tc.total, tc.chunkSize, func(start, end int) error {
				got = append(got, [2]int{start, end})
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected windows %v, got %v", tc.want, got)
			}
		})
	}
}

func TestChunkRangeStopsOnError(t *testing.T) {
	calls := 0
	err := ChunkRange(10, 2, func(start, end int) error {
		calls++
		if start >= 4 {
			return fmt.Errorf("boom at %d", start)
		}
		return nil
	})
	if err == nil || calls != 3 {
		t.Fatalf("expected an error after 3 calls, got err=%v calls=%d", err, calls)
	}
}
