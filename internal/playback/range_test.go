package playback

import (
	"errors"
	"testing"
)

func TestParseByteRange(t *testing.T) {
	tests := []struct {
		name      string
		header    string
		size      int64
		wantFirst int64
		wantLast  int64
		wantOK    bool
		wantErr   error
	}{
		{"absent", "", 1000, 0, 0, false, nil},
		{"whole file", "bytes=0-999", 1000, 0, 999, true, nil},
		{"open ended", "bytes=500-", 1000, 500, 999, true, nil},
		{"suffix", "bytes=-500", 1000, 500, 999, true, nil},
		{"single byte", "bytes=0-0", 1000, 0, 0, true, nil},
		{"last clamped", "bytes=0-2000", 1000, 0, 999, true, nil},
		{"suffix longer than file", "bytes=-2000", 500, 0, 499, true, nil},
		{"first of many", "bytes=0-99, 200-299", 1000, 0, 99, true, nil},

		{"start at size", "bytes=1000-", 1000, 0, 0, false, ErrRangeNotSatisfiable},
		{"beyond file", "bytes=1500-2000", 1000, 0, 0, false, ErrRangeNotSatisfiable},
		{"reversed", "bytes=50-10", 1000, 0, 0, false, ErrRangeNotSatisfiable},
		{"no unit", "invalid", 1000, 0, 0, false, ErrMalformedRange},
		{"wrong unit", "chars=0-100", 1000, 0, 0, false, ErrMalformedRange},
		{"bad first", "bytes=abc-100", 1000, 0, 0, false, ErrMalformedRange},
		{"bad last", "bytes=0-abc", 1000, 0, 0, false, ErrMalformedRange},
		{"empty suffix", "bytes=-0", 1000, 0, 0, false, ErrMalformedRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := ParseByteRange(tt.header, tt.size)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && (got.First != tt.wantFirst || got.Last != tt.wantLast) {
				t.Errorf("range = {%d, %d}, want {%d, %d}", got.First, got.Last, tt.wantFirst, tt.wantLast)
			}
		})
	}
}

func TestByteRange_Headers(t *testing.T) {
	r := ByteRange{First: 500, Last: 999}

	if got := r.Len(); got != 500 {
		t.Errorf("Len() = %d, want 500", got)
	}
	if got := r.ContentRange(1000); got != "bytes 500-999/1000" {
		t.Errorf("ContentRange() = %q", got)
	}
}
