//go:build unix

package instance

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

type fakeProcs struct {
	mu      sync.Mutex
	running map[int]bool
	signals []int
	failPID int
}

func stubProcs(t *testing.T, pids ...int) *fakeProcs {
	t.Helper()
	f := &fakeProcs{running: make(map[int]bool)}
	for _, pid := range pids {
		f.running[pid] = true
	}

	origList, origTerm, origAlive := listPIDs, terminate, alive
	t.Cleanup(func() { listPIDs, terminate, alive = origList, origTerm, origAlive })

	listPIDs = func(context.Context, string) ([]int, error) { return pids, nil }
	terminate = func(pid int) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		if pid == f.failPID {
			return unix.EPERM
		}
		if !f.running[pid] {
			return unix.ESRCH
		}
		f.signals = append(f.signals, pid)
		delete(f.running, pid)
		return nil
	}
	alive = func(pid int) bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.running[pid]
	}
	return f
}

func TestKillOthers_SkipsSelf(t *testing.T) {
	f := stubProcs(t, 10, 20, 30)

	killed, err := KillOthers(context.Background(), "awake", 20)
	require.NoError(t, err)
	assert.Equal(t, []int{10, 30}, killed)
	assert.Equal(t, []int{10, 30}, f.signals)
}

func TestKillOthers_IgnoresVanishedProcesses(t *testing.T) {
	f := stubProcs(t, 10, 30)
	delete(f.running, 10)

	killed, err := KillOthers(context.Background(), "awake", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{30}, killed)
}

func TestKillOthers_ReportsSignalFailure(t *testing.T) {
	f := stubProcs(t, 10)
	f.failPID = 10

	_, err := KillOthers(context.Background(), "awake", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, unix.EPERM))
}

func TestKillOthers_ListFailure(t *testing.T) {
	stubProcs(t)
	listPIDs = func(context.Context, string) ([]int, error) { return nil, errors.New("no pgrep") }

	_, err := KillOthers(context.Background(), "awake", 1)
	require.Error(t, err)
}

func TestParsePIDs(t *testing.T) {
	pids, err := parsePIDs([]byte("123\n456\n"))
	require.NoError(t, err)
	assert.Equal(t, []int{123, 456}, pids)

	pids, err = parsePIDs(nil)
	require.NoError(t, err)
	assert.Empty(t, pids)

	_, err = parsePIDs([]byte("123 abc"))
	require.Error(t, err)
}
