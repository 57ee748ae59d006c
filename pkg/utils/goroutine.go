package utils

import (
	"context"
	"fmt"
	"runtime/debug"
)

// PanicHandler receives panics recovered by Go.
var PanicHandler = func(ctx context.Context, recovered interface{}, stack []byte) {
	fmt.Printf("recovered panic in goroutine: %v\n%s\n", recovered, stack)
}

// Go runs fn on a new goroutine and recovers any panic it raises so a single
// failing background task never takes the process down.
func Go(ctx context.Context, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				PanicHandler(ctx, r, debug.Stack())
			}
		}()
		fn()
	}()
}
