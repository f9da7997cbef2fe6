//go:build unix

package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// Start re-spawns the running executable in a new session with args and
// returns the child's pid. The child's standard streams are /dev/null; it
// is not waited for.
func Start(args []string) (int, error) {
	exe, err := os.Executable()
	if err != nil {
		return 0, fmt.Errorf("failed to locate executable: %w", err)
	}

	cmd := exec.Command(exe, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	// nil Stdin/Stdout/Stderr are connected to the null device.
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start daemon: %w", err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release daemon process: %w", err)
	}
	return pid, nil
}

// Reexec replaces the current process image with the running executable
// and args. args[0] is the program name shown in the process list. It only
// returns on failure.
func Reexec(args []string) error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("failed to locate executable: %w", err)
	}
	if err := unix.Exec(exe, args, os.Environ()); err != nil {
		return fmt.Errorf("failed to replace process: %w", err)
	}
	return nil
}
