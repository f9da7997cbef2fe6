//go:build !unix

package daemon

import "errors"

// ErrUnsupported is returned by every operation on this platform.
var ErrUnsupported = errors.New("daemon mode unsupported on this platform")

type PIDFile struct{ path string }

func Start([]string) (int, error) { return 0, ErrUnsupported }
func Reexec([]string) error { return ErrUnsupported }
func AcquirePIDFile(string) (*PIDFile, error) { return nil, ErrUnsupported }
func ReadPID(string) (int, error) { return 0, ErrUnsupported }
func (p *PIDFile) Path() string { return p.path }
func (p *PIDFile) Release() error { return nil }
