//go:build darwin

package power

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIOKit_CreateAndReleaseTwice(t *testing.T) {
	c, err := Open("awake-test")
	require.NoError(t, err)
	defer func() { assert.NoError(t, c.Close()) }()

	// Off level: registered with the power manager without holding anything.
	h, err := c.Create(PreventUserIdleDisplaySleep, false)
	require.NoError(t, err)
	assert.NotZero(t, h)

	require.NoError(t, c.Release(h))
	require.NoError(t, c.Release(h), "second release must be treated as success")
}

func TestIOKit_IndependentInstances(t *testing.T) {
	a, err := Open("awake-test")
	require.NoError(t, err)
	defer a.Close()
	b, err := Open("awake-test")
	require.NoError(t, err)
	defer b.Close()

	h, err := a.Create(PreventDiskIdle, false)
	require.NoError(t, err)
	require.NoError(t, b.Release(h))
	require.NoError(t, a.Release(h))
}
