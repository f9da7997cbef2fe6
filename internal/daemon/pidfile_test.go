//go:build unix

package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquirePIDFile_WritesPID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", "awake.pid")

	p, err := AcquirePIDFile(path)
	require.NoError(t, err)
	defer p.Release()

	assert.Equal(t, path, p.Path())
	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestAcquirePIDFile_SecondHolderRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awake.pid")

	first, err := AcquirePIDFile(path)
	require.NoError(t, err)
	defer first.Release()

	_, err = AcquirePIDFile(path)
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Contains(t, err.Error(), "pid")
}

func TestPIDFile_ReleaseRemovesAndUnlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awake.pid")

	p, err := AcquirePIDFile(path)
	require.NoError(t, err)
	require.NoError(t, p.Release())
	require.NoError(t, p.Release())

	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	again, err := AcquirePIDFile(path)
	require.NoError(t, err)
	require.NoError(t, again.Release())
}

func TestAcquirePIDFile_OverwritesStaleContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awake.pid")
	require.NoError(t, os.WriteFile(path, []byte("9999999\nleftover\n"), 0o600))

	p, err := AcquirePIDFile(path)
	require.NoError(t, err)
	defer p.Release()

	pid, err := ReadPID(path)
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
}

func TestReadPID_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "awake.pid")
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0o600))

	_, err := ReadPID(path)
	require.Error(t, err)
}
