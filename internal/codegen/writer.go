package codegen

import (
	"bytes"
	"os"
	"path/filepath"
)

// writeIfChanged writes content to path only if it differs from what's
// already there, grounded on code/typegen/check.go's filesAreDifferent
// byte comparison (spec §4.11 "writes files idempotently"). Returns
// whether the file was written.
func writeIfChanged(path string, content []byte, dryRun bool) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil && bytes.Equal(existing, content) {
		return false, nil
	}
	if dryRun {
		return true, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
