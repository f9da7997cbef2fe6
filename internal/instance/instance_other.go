//go:build !unix

package instance

import "context"

// KillOthers is a no-op where processes cannot be enumerated by name.
func KillOthers(context.Context, string, int) ([]int, error) { return nil, nil }
