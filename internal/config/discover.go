package config

import (
	"os"
	"path/filepath"
)

// sourceConfigNames are probed in order under each candidate directory;
// the first listed form found in a directory is the "compiled" form and
// wins over a source form found alongside it (spec §6 "Two extensions
// are probed; a compiled form takes precedence over source").
var sourceConfigNames = []string{"udl.config.json", "udl.config.toml"}

// findProjectConfig walks up from startDir looking for a project config
// module, grounded on am/load.go's findProjectConfig upward search.
func findProjectConfig(startDir string) string {
	dir := startDir
	for {
		for _, name := range sourceConfigNames {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func configType(path string) string {
	switch filepath.Ext(path) {
	case ".json":
		return "json"
	default:
		return "toml"
	}
}
