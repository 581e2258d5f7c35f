package scenario

import (
	"context"
	"sync"
)

// Objection is the keep-alive signal of a run: the run may end only once every
// raised objection has been dropped.
type Objection struct {
	mu     sync.Mutex
	count  int
	owners map[string]int
	zero   chan struct{}
}

// NewObjection creates an objection with nothing raised.
func NewObjection() *Objection {
	z := make(chan struct{})
	close(z)
	return &Objection{owners: make(map[string]int), zero: z}
}

// Raise adds one objection on behalf of owner.
func (o *Objection) Raise(owner string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.count == 0 {
		o.zero = make(chan struct{})
	}
	o.count++
	o.owners[owner]++
}

// Drop removes one objection of owner. Dropping an objection that was never
// raised is ignored.
func (o *Objection) Drop(owner string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.owners[owner] == 0 {
		return
	}
	o.owners[owner]--
	if o.owners[owner] == 0 {
		delete(o.owners, owner)
	}
	o.count--
	if o.count == 0 {
		close(o.zero)
	}
}

// Count returns the number of raised objections.
func (o *Objection) Count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.count
}

// Owners returns the raised objection count per owner.
func (o *Objection) Owners() map[string]int {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make(map[string]int, len(o.owners))
	for k, v := range o.owners {
		out[k] = v
	}
	return out
}

// Wait blocks until no objection is raised or ctx is done.
func (o *Objection) Wait(ctx context.Context) error {
	o.mu.Lock()
	z := o.zero
	o.mu.Unlock()

	select {
	case <-z:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
