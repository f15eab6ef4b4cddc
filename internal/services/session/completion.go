package session

import (
	"context"
	"sync"

	"covertchan/internal/domain"
)

// Completion is a one-shot handle on the outcome of a transfer.
//
// It resolves exactly once, either with a Result or with an error. Later
// Resolve/Reject calls report false and change nothing.
type Completion struct {
	once   sync.Once
	done   chan struct{}
	result domain.Result
	err    error
}

// NewCompletion returns an unresolved handle.
func NewCompletion() *Completion {
	return &Completion{done: make(chan struct{})}
}

// Done is closed once the handle resolves.
func (c *Completion) Done() <-chan struct{} { return c.done }

// Resolve settles the handle with r.
func (c *Completion) Resolve(r domain.Result) bool {
	return c.settle(r, nil)
}

// Reject settles the handle with err.
func (c *Completion) Reject(err error) bool {
	return c.settle(domain.Result{}, err)
}

func (c *Completion) settle(r domain.Result, err error) bool {
	fired := false
	c.once.Do(func() {
		c.result, c.err = r, err
		fired = true
		close(c.done)
	})
	return fired
}

// Wait blocks until the handle resolves or ctx is done.
func (c *Completion) Wait(ctx context.Context) (domain.Result, error) {
	select {
	case <-c.done:
		return c.result, c.err
	case <-ctx.Done():
		return domain.Result{}, ctx.Err()
	}
}
