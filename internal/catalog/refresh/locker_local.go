package refresh

import (
	"context"
	"sync"
)

// LocalLocker is a process-local single-flight lock.
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) TryAcquire(_ context.Context) (func(), error) {
	if !l.mu.TryLock() {
		return nil, ErrRefreshInProgress
	}
	var once sync.Once
	return func() { once.Do(l.mu.Unlock) }, nil
}
