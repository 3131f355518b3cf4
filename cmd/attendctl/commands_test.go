package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  driver: memory
jwt:
  secret: attendctl-test
logging:
  level: error
`), 0o600))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_Seed(t *testing.T) {
	out, err := runCLI(t, "seed", "--config", memoryConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "seeded 2 teacher(s), 3 class(es), 30 student(s)")
}

func TestCLI_MigrateOnMemoryDriver(t *testing.T) {
	out, err := runCLI(t, "migrate", "-c", memoryConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "memory driver has nothing to migrate")
}

func TestCLI_ReconcileEmptyStore(t *testing.T) {
	out, err := runCLI(t, "reconcile", "-c", memoryConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "reconciled 0 student(s) and 0 class(es), 0 failure(s)")
}

func TestCLI_RepairOrphansDryRun(t *testing.T) {
	out, err := runCLI(t, "repair-orphans", "--dry-run", "-c", memoryConfig(t))
	require.NoError(t, err)
	assert.Contains(t, out, "would remove 0 orphan class(es) and 0 orphan student(s)")
}

func TestCLI_RemapTeacher(t *testing.T) {
	_, err := runCLI(t, "remap-teacher", "-c", memoryConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")

	_, err = runCLI(t, "remap-teacher", "--from", "a", "--to", "b", "-c", memoryConfig(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "teacher not found")
}

func TestCLI_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  driver: cassandra\njwt:\n  secret: x\n"), 0o600))

	_, err := runCLI(t, "reconcile", "-c", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}
