package commands

import (
	"encoding/json"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udlcore/udl/internal/version"
)

// captureStdout runs fn with os.Stdout swapped for a pipe and returns
// whatever it wrote, since VersionCmd prints directly via fmt.Println
// rather than through cmd.OutOrStdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)

	orig := os.Stdout
	os.Stdout = w
	t.Cleanup(func() { os.Stdout = orig })

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestVersionCmdTextOutput(t *testing.T) {
	VersionCmd.Flags().Set("json", "false")

	out := captureStdout(t, func() {
		VersionCmd.Run(VersionCmd, nil)
	})

	assert.Contains(t, out, "udl")
	assert.Contains(t, out, "Platform:")
	assert.Contains(t, out, "Go:")
}

func TestVersionCmdJSONOutput(t *testing.T) {
	require.NoError(t, VersionCmd.Flags().Set("json", "true"))
	t.Cleanup(func() { VersionCmd.Flags().Set("json", "false") })

	out := captureStdout(t, func() {
		VersionCmd.Run(VersionCmd, nil)
	})

	var info version.Info
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, version.Get().CommitHash, info.CommitHash)
}
