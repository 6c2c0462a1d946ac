package pipeline

import (
	"context"
	"sync"
)

// subjectLocks grants at-most-one in-flight run per subject while leaving
// different subjects fully concurrent.
type subjectLocks struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func newSubjectLocks() *subjectLocks {
	return &subjectLocks{slots: make(map[string]chan struct{})}
}

func (l *subjectLocks) slot(subjectRef string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.slots[subjectRef]
	if !ok {
		ch = make(chan struct{}, 1)
		l.slots[subjectRef] = ch
	}
	return ch
}

// acquire blocks until the subject's token is free or ctx is done.
func (l *subjectLocks) acquire(ctx context.Context, subjectRef string) error {
	select {
	case l.slot(subjectRef) <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *subjectLocks) release(subjectRef string) {
	<-l.slot(subjectRef)
}
