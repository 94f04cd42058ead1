package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestExportBaseName(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"plain", "holiday.mp4", "holiday"},
		{"keeps inner dots", "take.2.final.mov", "take.2.final"},
		{"spaces and parens", "Beach day (raw).mkv", "Beach day (raw)"},
		{"replaces separators", "a/b\\c.mp4", "a_b_c"},
		{"drops control chars", "clip\t\n.webm", "clip"},
		{"unicode letters", "été à Nîmes.mp4", "été à Nîmes"},
		{"no extension", "recording", "recording"},
		{"only extension", ".mp4", "cuts"},
		{"dot dot stem", "...mp4", "cuts"},
		{"empty", "", "cuts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExportBaseName(tt.source); got != tt.want {
				t.Errorf("ExportBaseName(%q) = %q, want %q", tt.source, got, tt.want)
			}
		})
	}
}

func TestExportBaseName_Truncates(t *testing.T) {
	got := ExportBaseName(strings.Repeat("é", 200) + ".mp4")
	if n := len([]rune(got)); n != maxBaseName {
		t.Errorf("rune length = %d, want %d", n, maxBaseName)
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in     string
		maxLen int
		want   string
	}{
		{"Segment 1", 0, "Segment 1"},
		{"intro: <cold open>", 0, "intro_ _cold open_"},
		{"  padded  ", 0, "padded"},
		{"abcdef", 3, "abc"},
	}

	for _, tt := range tests {
		if got := SanitizeName(tt.in, tt.maxLen); got != tt.want {
			t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
		}
	}
}

func TestResolveOutputDir(t *testing.T) {
	root := t.TempDir()
	work := filepath.Join(root, "work")
	if err := os.Mkdir(work, 0755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(work)

	// The working directory may itself sit behind a symlink (macOS /var).
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	parent := filepath.Dir(wd)

	tests := []struct {
		dir  string
		want string
	}{
		{"../exports", filepath.Join(parent, "exports")},
		{"renders", filepath.Join(wd, "renders")},
		{"./a/../b", filepath.Join(wd, "b")},
		{root, root},
	}

	for _, tt := range tests {
		got, err := ResolveOutputDir(tt.dir)
		if err != nil {
			t.Errorf("ResolveOutputDir(%q) error = %v", tt.dir, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ResolveOutputDir(%q) = %q, want %q", tt.dir, got, tt.want)
		}
	}

	if _, err := ResolveOutputDir("  "); err == nil {
		t.Error("ResolveOutputDir(blank) error = nil")
	}
}

func TestCheckOutputDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "exported_video_1.mp4")
	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := CheckOutputDir(dir); err != nil {
		t.Errorf("CheckOutputDir(dir) error = %v", err)
	}
	if err := CheckOutputDir(file); err == nil {
		t.Error("CheckOutputDir(file) error = nil, want not a directory")
	}
	if err := CheckOutputDir(filepath.Join(dir, "missing")); err == nil {
		t.Error("CheckOutputDir(missing) error = nil")
	}
}
