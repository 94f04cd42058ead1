// Package segments holds the ordered list of in/out ranges marked on the
// loaded source.
package segments

import (
	"fmt"
	"math"

	"github.com/google/uuid"
)

// DefaultSpan is the length in seconds of a freshly added segment.
const DefaultSpan = 5.0

// Segment is a labelled [Start, End] range on the source timeline.
type Segment struct {
	ID    string  `json:"id" yaml:"id"`
	Start float64 `json:"start" yaml:"start"`
	End   float64 `json:"end" yaml:"end"`
	Label string  `json:"label" yaml:"label"`
}

// Duration returns End - Start.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Start *float64
	End   *float64
	Label *string
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 { return &v }

// String returns a pointer to v, for building patches.
func String(v string) *string { return &v }

// DefaultLabel returns the label given to the n-th segment (1-based).
func DefaultLabel(n int) string {
	return fmt.Sprintf("Segment %d", n)
}

// Store is an insertion-ordered segment list. It is not safe for concurrent
// use; callers serialise access through their event loop.
type Store struct {
	segments []Segment
	newID    func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides how segment IDs are minted.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{newID: func() string { return uuid.New().String() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add appends a segment starting at currentTime and spanning DefaultSpan
// seconds, cut short at duration. With an unknown duration (<= 0) the
// segment collapses to a zero-length span at currentTime.
func (s *Store) Add(currentTime, duration float64) Segment {
	start := sanitize(currentTime)
	if start < 0 {
		start = 0
	}

	end := start
	if duration > 0 {
		if start > duration {
			start = duration
		}
		end = math.Min(start+DefaultSpan, duration)
	}

	seg := Segment{
		ID:    s.uniqueID(),
		Start: start,
		End:   end,
		Label: DefaultLabel(len(s.segments) + 1),
	}
	s.segments = append(s.segments, seg)
	return seg
}

// Append inserts fully formed segments, filling in missing IDs and labels.
// Bounds are normalised so that Start <= End.
func (s *Store) Append(segs ...Segment) {
	for _, seg := range segs {
		if seg.ID == "" || s.indexOf(seg.ID) >= 0 {
			seg.ID = s.uniqueID()
		}
		if seg.Label == "" {
			seg.Label = DefaultLabel(len(s.segments) + 1)
		}
		seg.Start = math.Max(0, sanitize(seg.Start))
		seg.End = math.Max(seg.Start, sanitize(seg.End))
		s.segments = append(s.segments, seg)
	}
}

// Remove deletes the segment with the given id. Unknown ids are ignored.
func (s *Store) Remove(id string) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.segments = append(s.segments[:i], s.segments[i+1:]...)
	return true
}

// Update merges p into the segment with the given id and clamps the result
// into [0, duration] with Start <= End. An unknown duration (<= 0) leaves
// the upper bound open. Unknown ids are ignored.
func (s *Store) Update(id string, p Patch, duration float64) (Segment, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Segment{}, false
	}

	seg := s.segments[i]
	if p.Label != nil {
		seg.Label = *p.Label
	}

	start, end := seg.Start, seg.End
	if p.Start != nil {
		start = bound(sanitize(*p.Start), duration)
	}
	if p.End != nil {
		end = bound(sanitize(*p.End), duration)
	}

	switch {
	case start <= end:
	case p.End != nil:
		// The end moved, or both moved and crossed: the end yields.
		end = start
	default:
		start = end
	}

	seg.Start, seg.End = start, end
	s.segments[i] = seg
	return seg, true
}

// ClampTo pulls every segment back inside [0, duration], shrinking the
// ones that run past it. It returns how many segments changed. A
// duration <= 0 leaves the store alone.
func (s *Store) ClampTo(duration float64) int {
	if !(duration > 0) || math.IsInf(duration, 0) {
		return 0
	}
	changed := 0
	for i, seg := range s.segments {
		start, end := bound(seg.Start, duration), bound(seg.End, duration)
		if start > end {
			start = end
		}
		if start != seg.Start || end != seg.End {
			s.segments[i].Start, s.segments[i].End = start, end
			changed++
		}
	}
	return changed
}

// Clear removes every segment.
func (s *Store) Clear() {
	s.segments = nil
}

// List returns a copy of the segments in insertion order.
func (s *Store) List() []Segment {
	out := make([]Segment, len(s.segments))
	copy(out, s.segments)
	return out
}

// Get returns the segment with the given id.
func (s *Store) Get(id string) (Segment, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return Segment{}, false
	}
	return s.segments[i], true
}

// Len returns the number of segments.
func (s *Store) Len() int {
	return len(s.segments)
}

func (s *Store) indexOf(id string) int {
	for i, seg := range s.segments {
		if seg.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) uniqueID() string {
	for {
		id := s.newID()
		if id != "" && s.indexOf(id) < 0 {
			return id
		}
	}
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func bound(v, duration float64) float64 {
	if v < 0 {
		return 0
	}
	if duration > 0 && v > duration {
		return duration
	}
	return v
}
