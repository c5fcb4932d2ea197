// Package group runs a set of goroutines and waits for them to finish.
//
// Unlike errgroup style groups, a failure of one member does not cancel the
// others; members are isolated from each other. This is the delivery model
// of the notification dispatcher: one slow or failing peer must not affect
// delivery to the rest.
package group

import (
	"context"
	"sync"
)

// A G runs a set of goroutines from a common context.
type G struct {
	ctx  context.Context
	done sync.WaitGroup
}

// New returns a new group using the given context.
func New(ctx context.Context) *G {
	return &G{ctx: ctx}
}

// Go runs fn in a new goroutine in the group. Any error is fn's own
// responsibility to report; it is not collected by the group.
func (g *G) Go(fn func(context.Context)) {
	g.done.Add(1)
	go func() {
		defer g.done.Done()
		fn(g.ctx)
	}()
}

// Wait waits for all goroutines in the group to exit.
func (g *G) Wait() {
	g.done.Wait()
}
