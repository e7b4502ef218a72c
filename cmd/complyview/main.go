package main

import (
	"os"
	"path/filepath"
	"strings"

	"complyview/internal/cli"
)

func isResultsFile(s string) bool {
	s = strings.TrimSpace(s)
	return strings.EqualFold(filepath.Ext(s), ".json") && len(s) > len(".json")
}

// rewriteDirectImportArgs turns `complyview <file>.json` into
// `complyview import <file>.json`. Cobra treats the first positional token as
// a subcommand, so argv is rewritten before parsing.
func rewriteDirectImportArgs(argv []string) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--dir":       true,
		"--config":    true,
		"--batch":     true,
		"--format":    true,
		"--log-level": true,
	}

	insert := func(i int) []string {
		out := make([]string, 0, len(argv)+1)
		out = append(out, argv[:i]...)
		out = append(out, "import")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && isResultsFile(argv[i+1]) {
				return insert(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}

		if isResultsFile(a) {
			return insert(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectImportArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
