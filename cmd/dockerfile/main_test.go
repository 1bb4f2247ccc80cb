package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestGenerate_WritesAndChecks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "finance_bot.py"), nil, 0644))

	args := []string{"generate", "--runtime", "python", "--source", dir,
		"--packages", "aiogram,python-dotenv", "--script", "finance_bot.py"}

	_, err := execute(t, args...)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "Dockerfile"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "RUN pip install aiogram python-dotenv")

	_, err = execute(t, append(args, "--check")...)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "Dockerfile"), []byte("FROM scratch\n"), 0644))
	_, err = execute(t, append(args, "--check")...)
	assert.ErrorIs(t, err, errStale)
}

func TestGenerate_Stdout(t *testing.T) {
	out, err := execute(t, "generate", "--source", filepath.Join("..", ".."), "-o", "-")
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join("..", "..", "Dockerfile"))
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}

func TestGenerate_UnsupportedRuntime(t *testing.T) {
	_, err := execute(t, "generate", "--runtime", "cobol", "-o", "-")
	assert.Error(t, err)
}

func TestInspect(t *testing.T) {
	out, err := execute(t, "inspect", filepath.Join("..", "..", "Dockerfile"))
	require.NoError(t, err)

	var got inspectOutput
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "docker.io/library/alpine:3.22", got.BaseImage)
	assert.Equal(t, []string{"/usr/local/bin/finbot"}, got.DefaultCommand)
	assert.Equal(t, []string{"builder:[/out/finbot] -> /usr/local/bin/finbot"}, got.Copies)
	assert.Empty(t, got.Exposed)
}
