package publish

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// WriteFile writes a rendered report. Existing files are kept unless
// overwrite is set.
func WriteFile(path string, md string, overwrite bool) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return errors.New("missing --out")
	}
	path = filepath.Clean(path)
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("refusing to overwrite existing file (use --force): %s", path)
		} else if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, []byte(md), 0o644)
}

// DefaultFileName mirrors the report file names of the processing service.
func DefaultFileName(nonCompliantOnly bool) string {
	if nonCompliantOnly {
		return "non_compliance_report.md"
	}
	return "compliance_report.md"
}
