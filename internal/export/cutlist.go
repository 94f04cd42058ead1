package export

import (
	"errors"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"gopkg.in/yaml.v3"

	"github.com/cutline/cutline/internal/segments"
)

// cutEntry is one segment as written in a cut-list file.
type cutEntry struct {
	ID    string  `yaml:"id,omitempty"`
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Label string  `yaml:"label,omitempty"`
}

func (e *cutEntry) Validate() error {
	return validation.ValidateStruct(e,
		validation.Field(&e.Start, validation.Min(0.0)),
		validation.Field(&e.End, validation.Min(0.0), validation.By(func(v interface{}) error {
			if v.(float64) < e.Start {
				return errors.New("must not be before start")
			}
			return nil
		})),
	)
}

type cutList struct {
	Source   string     `yaml:"source,omitempty"`
	Segments []cutEntry `yaml:"segments"`
}

// LoadCutList reads segments from a YAML or JSON file. The file is either
// a bare list of {start, end, label} entries or a mapping with a
// "segments" key.
func LoadCutList(path string) ([]segments.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cut list: %w", err)
	}

	var entries []cutEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		var doc cutList
		if err2 := yaml.Unmarshal(data, &doc); err2 != nil {
			return nil, fmt.Errorf("parse cut list: %w", err2)
		}
		entries = doc.Segments
	}

	out := make([]segments.Segment, 0, len(entries))
	for i := range entries {
		if err := entries[i].Validate(); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i+1, err)
		}
		out = append(out, segments.Segment{
			ID:    entries[i].ID,
			Start: entries[i].Start,
			End:   entries[i].End,
			Label: entries[i].Label,
		})
	}
	return out, nil
}

// WriteCutList saves segs as YAML next to the source they cut.
func WriteCutList(path, source string, segs []segments.Segment) error {
	doc := cutList{Source: source, Segments: make([]cutEntry, len(segs))}
	for i, s := range segs {
		doc.Segments[i] = cutEntry{ID: s.ID, Start: s.Start, End: s.End, Label: s.Label}
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode cut list: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write cut list: %w", err)
	}
	return nil
}
