// Package streams implements the bounded producer-consumer queues spec §3
// names (scancode, log, timer-fired) plus the single-slot atomic waker they
// register against. Grounded on futures_util::task::AtomicWaker, the
// primitive the original kernel's task wakers are built from: a single
// registered callback an ISR can invoke without blocking or allocating.
package streams

import "sync/atomic"

// Waker holds at most one registered callback. A task registers its own
// wake-up (typically task.Waker.Wake) before suspending; the producer
// (an ISR or a logging call site) invokes Wake without knowing or caring
// who, if anyone, is registered. This is the "registration-then-recheck"
// primitive §4.4 requires to close the lost-wakeup race: a caller
// registers, then re-checks the fast path once more before trusting that
// Pending is still correct.
type Waker struct {
	cb atomic.Pointer[func()]
}

// NewWaker returns an unregistered Waker.
func NewWaker() *Waker {
	return &Waker{}
}

// Register stores cb as the callback Wake invokes next, replacing any
// previously registered callback. Never called from interrupt context.
func (w *Waker) Register(cb func()) {
	w.cb.Store(&cb)
}

// Wake invokes the currently registered callback, if any. Safe to call
// from interrupt context: it is a single atomic pointer load followed by
// an ordinary call, matching the "wake an atomic waker" permitted ISR
// operation (§5).
//
//go:nosplit
func (w *Waker) Wake() {
	if p := w.cb.Load(); p != nil && *p != nil {
		(*p)()
	}
}
