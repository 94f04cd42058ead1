// Package timeline converts between playback times, timeline fractions and
// display strings. Every function is pure and safe on NaN or infinite input.
package timeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ZeroTime is what FormatTime returns for input it cannot represent.
const ZeroTime = "00:00.0"

// MaxFormatSeconds is the largest value FormatTime renders. Above it the
// hour count no longer fits an int64 with tenths intact.
const MaxFormatSeconds = 1e15

// FormatTime renders seconds as MM:SS.d, or HH:MM:SS.d once the value
// reaches an hour. The tenths digit is truncated, never rounded. Values
// above MaxFormatSeconds render as ZeroTime.
func FormatTime(seconds float64) string {
	if math.IsNaN(seconds) || seconds < 0 || seconds > MaxFormatSeconds {
		return ZeroTime
	}

	hrs := int64(math.Floor(seconds / 3600))
	mins := int64(math.Floor(math.Mod(seconds, 3600) / 60))
	secs := int64(math.Floor(math.Mod(seconds, 60)))
	tenths := int64(math.Floor(math.Mod(seconds, 1) * 10))

	parts := make([]string, 0, 3)
	if hrs > 0 {
		parts = append(parts, fmt.Sprintf("%02d", hrs))
	}
	parts = append(parts, fmt.Sprintf("%02d", mins), fmt.Sprintf("%02d", secs))

	return fmt.Sprintf("%s.%d", strings.Join(parts, ":"), tenths)
}

// FormatSpan renders a segment length the way the segment list shows it.
func FormatSpan(start, end float64) string {
	d := end - start
	if math.IsNaN(d) || d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.2fs", d)
}

// ParseTime reads a time typed by the user: plain seconds ("12.5"),
// MM:SS ("1:02.5") or HH:MM:SS ("01:02:03.4").
func ParseTime(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty time")
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}

	var total float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		// only the last field may carry a fraction or exceed 59
		if i < len(parts)-1 && v != math.Trunc(v) {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		if i > 0 && v >= 60 {
			return 0, fmt.Errorf("invalid time %q", s)
		}
		total = total*60 + v
	}
	return total, nil
}
