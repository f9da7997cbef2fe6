//go:build unix

// Package instance finds and stops other running copies of the program.
package instance

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

const (
	exitPollInterval = 20 * time.Millisecond
	exitTimeout      = 2 * time.Second
)

// Overridable in tests.
var (
	listPIDs  = pgrep
	terminate = func(pid int) error { return unix.Kill(pid, unix.SIGTERM) }
	alive     = func(pid int) bool { return unix.Kill(pid, 0) == nil }
)

// KillOthers sends SIGTERM to every process named program except self and
// waits briefly for them to exit, so their assertions are released before
// the caller acquires its own. It returns the pids that were signalled.
func KillOthers(ctx context.Context, program string, self int) ([]int, error) {
	pids, err := listPIDs(ctx, program)
	if err != nil {
		return nil, err
	}

	var killed []int
	for _, pid := range pids {
		if pid == self {
			continue
		}
		if err := terminate(pid); err != nil {
			if errors.Is(err, unix.ESRCH) {
				continue
			}
			return killed, fmt.Errorf("failed to stop pid %d: %w", pid, err)
		}
		killed = append(killed, pid)
	}

	waitExit(ctx, killed)
	return killed, nil
}

func waitExit(ctx context.Context, pids []int) {
	if len(pids) == 0 {
		return
	}
	deadline := time.NewTimer(exitTimeout)
	defer deadline.Stop()
	tick := time.NewTicker(exitPollInterval)
	defer tick.Stop()

	for {
		running := false
		for _, pid := range pids {
			if alive(pid) {
				running = true
				break
			}
		}
		if !running {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			return
		case <-tick.C:
		}
	}
}

// pgrep lists pids whose process name is exactly program.
func pgrep(ctx context.Context, program string) ([]int, error) {
	out, err := exec.CommandContext(ctx, "pgrep", "-x", program).Output()
	if err != nil {
		var exitErr *exec.ExitError
		// pgrep exits 1 when nothing matched.
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	return parsePIDs(out)
}

func parsePIDs(out []byte) ([]int, error) {
	var pids []int
	for _, field := range bytes.Fields(out) {
		pid, err := strconv.Atoi(string(field))
		if err != nil {
			return nil, fmt.Errorf("unexpected pgrep output %q", field)
		}
		pids = append(pids, pid)
	}
	return pids, nil
}
