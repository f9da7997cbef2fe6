//go:build !darwin

package power

import (
	"fmt"
	"runtime"
)

func open(string) (Capability, error) {
	return nil, fmt.Errorf("%w on %s", ErrCapabilityUnavailable, runtime.GOOS)
}
