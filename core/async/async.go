// Package async is the cooperative surface over core/table and core/cache:
// the same operations, the same contracts, run on a goroutine and raced
// against ctx.Done() at the call boundary. Everything between the two real
// suspension points — backend I/O inside core/driver.Run, and remote-cache
// I/O inside core/cache's Redis implementation — is the same pure,
// non-yielding computation the synchronous path already runs; async adds
// only the cancellation race around it (spec §5).
package async

import "context"

// await runs fn on its own goroutine and returns as soon as either fn
// completes or ctx is done, whichever comes first. A canceled ctx does not
// stop fn itself — the goroutine runs to completion and its result is
// discarded — it only stops the caller from waiting on it.
func await[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		val T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		return r.val, r.err
	}
}

// awaitErr is await's shape for calls that return only an error.
func awaitErr(ctx context.Context, fn func() error) error {
	_, err := await(ctx, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}
