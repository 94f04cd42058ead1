package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrMalformedRange      = errors.New("malformed range header")
	ErrRangeNotSatisfiable = errors.New("range not satisfiable")
)

// ByteRange is an inclusive span of bytes within a file.
type ByteRange struct {
	First int64
	Last  int64
}

// Len returns the number of bytes covered.
func (r ByteRange) Len() int64 {
	return r.Last - r.First + 1
}

// ContentRange formats the Content-Range header value for a file of size.
func (r ByteRange) ContentRange(size int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.First, r.Last, size)
}

// ParseByteRange reads a single-range Range header against a file of size
// bytes. ok is false when the header is absent. Only the first range of a
// multi-range request is honoured.
func ParseByteRange(header string, size int64) (r ByteRange, ok bool, err error) {
	if header == "" {
		return ByteRange{}, false, nil
	}

	ranges, found := strings.CutPrefix(header, "bytes=")
	if !found {
		return ByteRange{}, false, ErrMalformedRange
	}
	if first, _, multi := strings.Cut(ranges, ","); multi {
		ranges = strings.TrimSpace(first)
	}

	from, to, found := strings.Cut(ranges, "-")
	if !found {
		return ByteRange{}, false, ErrMalformedRange
	}

	if from == "" {
		n, perr := strconv.ParseInt(to, 10, 64)
		if perr != nil || n <= 0 {
			return ByteRange{}, false, ErrMalformedRange
		}
		r.First = max(size-n, 0)
		r.Last = size - 1
	} else {
		first, perr := strconv.ParseInt(from, 10, 64)
		if perr != nil || first < 0 {
			return ByteRange{}, false, ErrMalformedRange
		}
		r.First = first
		r.Last = size - 1
		if to != "" {
			last, perr := strconv.ParseInt(to, 10, 64)
			if perr != nil {
				return ByteRange{}, false, ErrMalformedRange
			}
			r.Last = last
		}
	}

	if r.First > r.Last || r.First >= size {
		return ByteRange{}, false, ErrRangeNotSatisfiable
	}
	r.Last = min(r.Last, size-1)

	return r, true, nil
}
