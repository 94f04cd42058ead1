package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

const maxBaseName = 80

// SanitizeName keeps letters, digits and a small set of punctuation,
// replacing anything else with '_', and truncates to maxLen runes.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsControl(r) {
			continue
		}
		if isAllowedNameRune(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}

	cleaned := strings.TrimSpace(b.String())
	if maxLen > 0 {
		runes := []rune(cleaned)
		if len(runes) > maxLen {
			cleaned = string(runes[:maxLen])
		}
	}
	return cleaned
}

func isAllowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case ' ', '-', '_', '.', ',', '(', ')':
		return true
	default:
		return false
	}
}

// ResolveOutputDir turns a configured download dir into a clean absolute
// path. Relative dirs, including ones that climb out of the working
// directory, are resolved rather than rejected.
func ResolveOutputDir(dir string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", fmt.Errorf("download dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve download dir: %w", err)
	}
	return abs, nil
}

// CheckOutputDir reports whether dir exists and is a directory.
func CheckOutputDir(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("download dir %s does not exist", dir)
		}
		return fmt.Errorf("invalid download dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("download dir %s is not a directory", dir)
	}
	return nil
}

// ExportBaseName is the file stem used for the EDL and cut list written
// next to an export: the source name without its extension, sanitised.
func ExportBaseName(sourceName string) string {
	stem := strings.TrimSuffix(sourceName, filepath.Ext(sourceName))
	name := SanitizeName(stem, maxBaseName)
	if name == "" || name == "." || name == ".." {
		return "cuts"
	}
	return name
}
