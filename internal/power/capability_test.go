package power

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReleaseStatus(t *testing.T) {
	require.NoError(t, ReleaseStatus(7, 0))
	require.NoError(t, ReleaseStatus(7, statusNotFound), "already released counts as success")

	err := ReleaseStatus(7, 0xE00002C0)
	require.ErrorIs(t, err, ErrAssertionRelease)
	assert.Equal(t, "release assertion 7: status 0xE00002C0", err.Error())
}

func TestStatusError_Message(t *testing.T) {
	err := &StatusError{Op: "create assertion", Kind: PreventDiskIdle, Code: 0x1, Err: ErrAssertionCreate}
	assert.Equal(t, "create assertion PreventDiskIdle: status 0x00000001", err.Error())
	assert.ErrorIs(t, err, ErrAssertionCreate)
}

func TestLevel(t *testing.T) {
	assert.Equal(t, uint32(255), level(true))
	assert.Equal(t, uint32(0), level(false))
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("PreventSystemSleep")
	require.NoError(t, err)
	assert.Equal(t, PreventSystemSleep, k)

	_, err = ParseKind("PreventEverything")
	require.Error(t, err)
}

func TestOpen_Unsupported(t *testing.T) {
	if runtime.GOOS == "darwin" {
		t.Skip("framework is available on darwin")
	}
	_, err := Open("awake")
	require.ErrorIs(t, err, ErrCapabilityUnavailable)
}
