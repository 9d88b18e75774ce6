// Package lock provides mutual exclusion keyed by a string, used to serialize all writes to a
// single auction item.
package lock

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Local is an in-process keyed mutex. Different keys never block each other.
type Local struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func NewLocal() *Local {
	return &Local{locks: make(map[string]*entry)}
}

// Lock blocks until key is free or ctx is done. The returned unlock func is safe to call more
// than once.
func (l *Local) Lock(ctx context.Context, key string) (func() error, error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*entry)
	}
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, errors.Wrapf(ctx.Err(), "error waiting for lock: %s", key)
	}

	var once sync.Once
	return func() error {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
		return nil
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// held returns the number of keys currently tracked, used by tests to check cleanup.
func (l *Local) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
