package service

import "sync"

// Guard is a non-blocking mutual-exclusion gate. It is the only concurrency
// primitive guarding full-resync entry: TryAcquire never waits, it either
// takes the gate or reports that another holder has it.
type Guard struct {
	mu sync.Mutex
}

// NewGuard creates a released Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// TryAcquire takes the gate if it is free and reports whether it did.
func (g *Guard) TryAcquire() bool {
	return g.mu.TryLock()
}

// Release frees the gate. Callers must pair every successful TryAcquire
// with exactly one Release, on every exit path.
func (g *Guard) Release() {
	g.mu.Unlock()
}
