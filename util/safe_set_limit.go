package util

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SafeSetLimit sets the limit on an errgroup.Group and returns it. errgroup.SetLimit(0) would
// deadlock every Go call, so a limit below one means one goroutine per CPU.
func SafeSetLimit(g *errgroup.Group, limit int) int {
	if limit < 1 {
		limit = runtime.NumCPU()
	}

	g.SetLimit(limit)

	return limit
}
