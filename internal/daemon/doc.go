// Package daemon detaches a run from its terminal and records it in a
// locked pid file.
package daemon

import "errors"

// DetachedFlag marks the re-spawned child so it does not detach again.
const DetachedFlag = "--detached"

// ErrAlreadyRunning is returned when another process holds the pid file.
var ErrAlreadyRunning = errors.New("another awake daemon is running")
