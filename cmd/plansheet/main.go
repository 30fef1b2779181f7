package main

import (
	"os"
	"strings"

	"github.com/joho/godotenv"

	"plansheet-cli/internal/cli"
)

// sectionRef reports whether s is an "@key" shortcut and returns the key.
func sectionRef(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "@") || len(s) == 1 {
		return "", false
	}
	return s[1:], true
}

func rewriteSectionShortcutArgs(argv []string) []string {
	// Convenience: `plansheet @deliverables` works like `plansheet sections show deliverables`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
	// parsing. Persistent flags may come first, so look for the first positional token.
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without their value so the shortcut is never swallowed.
	valueFlags := map[string]bool{
		"--server":        true,
		"--project":       true,
		"--token":         true,
		"--cookie":        true,
		"--sections-file": true,
		"--format":        true,
		"--timeout":       true,
	}
	boolFlags := map[string]bool{
		"--pretty":    true,
		"--read-only": true,
	}

	rewrite := func(i int, key string) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "sections", "show", key)
		out = append(out, argv[i+1:]...)
		return out
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) {
				if key, ok := sectionRef(argv[i+1]); ok {
					return rewrite(i+1, key)
				}
			}
			return argv
		}

		if strings.HasPrefix(a, "-") {
			switch {
			case strings.Contains(a, "="), boolFlags[a]:
			case valueFlags[a]:
				i++
			}
			continue
		}

		if key, ok := sectionRef(a); ok {
			return rewrite(i, key)
		}
		return argv
	}
	return argv
}

func main() {
	// A missing .env is fine; explicit flags and the environment still apply.
	_ = godotenv.Load()

	os.Args = rewriteSectionShortcutArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
