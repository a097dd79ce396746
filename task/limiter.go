// ytparser/task/limiter.go
package task

import "context"

// Limiter is a counting semaphore bounding concurrent blocking extractor
// calls. It is an injected component, shared by all analyze jobs.
type Limiter struct {
	slots chan struct{}
}

func NewLimiter(capacity int) *Limiter {
	if capacity < 1 {
		capacity = 1
	}
	return &Limiter{slots: make(chan struct{}, capacity)}
}

// Acquire blocks until a slot is free or the context is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	select {
	case l.slots <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release returns a slot. Must be called exactly once per successful
// Acquire; callers defer it immediately.
func (l *Limiter) Release() {
	<-l.slots
}
