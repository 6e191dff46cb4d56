package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	out, err := execute(t, "validate", "--config", "")
	require.NoError(t, err)
	assert.Contains(t, out, "state machine is valid")
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", "--config", "")
	require.NoError(t, err)

	for _, want := range []string{"concurrence ROOT", "machine GAME", "machine GET_SKELETON", "machine USER_EXIT_GAME"} {
		assert.Contains(t, out, want)
	}
}

func TestGraphCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.yaml"), []byte("sections:\n  - start_time: 3\n    pose: HANDS_UP\n"), 0o644))
	path := filepath.Join(dir, "imitation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  content_file: song.yaml\n"), 0o644))

	_, err := execute(t, "graph", "--config", path)
	require.NoError(t, err)
}

func TestValidateCommand_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "imitation.yaml")
	require.NoError(t, os.WriteFile(path, []byte("game:\n  content_file: missing.yaml\n"), 0o644))

	_, err := execute(t, "validate", "--config", path)
	assert.Error(t, err)
}

func TestRunCommand_UnknownTransport(t *testing.T) {
	_, err := execute(t, "run", "--config", "", "--bus", "carrier-pigeon")
	assert.Error(t, err)
}
