// Package testutil holds helpers shared by the package test suites.
package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "vaultledger/pkg/domain-errors"
)

// ConcurrentResult tallies the outcomes of concurrent operations by domain
// error code.
type ConcurrentResult struct {
	Successes int32
	Conflicts int32
	NotFounds int32
	Errors    int32
}

// Total returns the number of operations executed.
func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Conflicts + r.NotFounds + r.Errors
}

// RunConcurrent starts goroutines copies of fn at once and classifies each
// result: nil, CodeConflict, CodeNotFound, or anything else.
func RunConcurrent(goroutines int, fn func(idx int) error) *ConcurrentResult {
	var (
		wg                                     sync.WaitGroup
		start                                  = make(chan struct{})
		successes, conflicts, notFounds, other atomic.Int32
	)
	for i := range goroutines {
		wg.Go(func() {
			<-start
			err := fn(i)
			switch {
			case err == nil:
				successes.Add(1)
			case dErrors.HasCode(err, dErrors.CodeConflict):
				conflicts.Add(1)
			case dErrors.HasCode(err, dErrors.CodeNotFound):
				notFounds.Add(1)
			default:
				other.Add(1)
			}
		})
	}
	close(start)
	wg.Wait()

	return &ConcurrentResult{
		Successes: successes.Load(),
		Conflicts: conflicts.Load(),
		NotFounds: notFounds.Load(),
		Errors:    other.Load(),
	}
}
