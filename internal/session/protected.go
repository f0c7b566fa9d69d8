package session

// Protected couples a mutable value with the lock that guards it. The value
// must only be read or mutated inside a critical section whose resource set
// includes the Protected itself.
type Protected[T any] struct {
	lockable
	value T
}

// NewProtected wraps value behind a fresh lockable.
func NewProtected[T any](value T) *Protected[T] {
	return &Protected[T]{lockable: newLockable(), value: value}
}

// Value returns the guarded value. The caller must hold the lock.
func (p *Protected[T]) Value() T {
	return p.value
}
