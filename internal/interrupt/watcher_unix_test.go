//go:build unix

package interrupt

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_RealSignal(t *testing.T) {
	w := New(syscall.SIGHUP)
	w.Start()
	defer w.Stop()

	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGHUP))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sig, err := w.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, syscall.SIGHUP, sig)
}
