package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jrsteele09/storefront-sessions/users"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	out, err := execute(t, "", "hash-password", "Password123")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("Password123", strings.TrimSpace(out)))

	out, err = execute(t, "FromStdin99\n", "hash-password")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("FromStdin99", strings.TrimSpace(out)))
}

func TestHashPasswordStrength(t *testing.T) {
	_, err := execute(t, "", "hash-password", "weak")
	require.Error(t, err)

	out, err := execute(t, "", "hash-password", "--skip-strength-check", "weak")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("weak", strings.TrimSpace(out)))
}

func TestSweepWithMemoryStorage(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("ENV", "DEV")
	dir := t.TempDir()

	out, err := execute(t, "", "sweep", "--env-file", filepath.Join(dir, ".env"), "--config", filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Contains(t, out, "removed 0 expired records")
}

func TestSweepRejectsInvalidConfiguration(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "cassandra")
	dir := t.TempDir()

	_, err := execute(t, "", "sweep", "--env-file", filepath.Join(dir, ".env"))
	require.ErrorContains(t, err, "cassandra")
}
