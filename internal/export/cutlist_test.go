package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cutline/cutline/internal/segments"
)

func writeCutList(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadCutList_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"yaml list", "cuts.yaml", "- start: 1\n  end: 4\n  label: Intro\n- start: 10\n  end: 12.5\n"},
		{"yaml document", "cuts.yml", "source: clip.mp4\nsegments:\n  - start: 1\n    end: 4\n    label: Intro\n  - start: 10\n    end: 12.5\n"},
		{"json", "cuts.json", `[{"start": 1, "end": 4, "label": "Intro"}, {"start": 10, "end": 12.5}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs, err := LoadCutList(writeCutList(t, tt.file, tt.content))
			if err != nil {
				t.Fatalf("LoadCutList() error = %v", err)
			}
			if len(segs) != 2 {
				t.Fatalf("len = %d, want 2", len(segs))
			}
			if segs[0].Label != "Intro" || segs[0].Start != 1 || segs[0].End != 4 {
				t.Errorf("first = %+v", segs[0])
			}
			if segs[1].End != 12.5 || segs[1].Label != "" {
				t.Errorf("second = %+v", segs[1])
			}
		})
	}
}

func TestLoadCutList_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"end before start", "- start: 5\n  end: 2\n", "segment 1"},
		{"negative start", "- start: 1\n  end: 2\n- start: -1\n  end: 2\n", "segment 2"},
		{"not yaml", "{{{", "parse cut list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCutList(writeCutList(t, "cuts.yaml", tt.content))
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteCutList_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.cuts.yaml")
	in := []segments.Segment{
		{ID: "a", Start: 0.5, End: 3, Label: "Segment 1"},
		{ID: "b", Start: 7, End: 9.25, Label: "Reaction"},
	}

	if err := WriteCutList(path, "clip.mp4", in); err != nil {
		t.Fatalf("WriteCutList() error = %v", err)
	}
	out, err := LoadCutList(path)
	if err != nil {
		t.Fatalf("LoadCutList() error = %v", err)
	}
	if len(out) != 2 || out[1] != in[1] {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}
