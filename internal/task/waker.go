package task

// Waker is the Go analogue of TaskWaker: it holds a task id and a shared
// handle to the ready queue, and waking it pushes the id back onto that
// queue (§9 "Cyclic reference between waker and queue" — ownership stays
// acyclic because the ready queue never holds a reference back to the
// waker, only the id).
type Waker struct {
	id      Id
	spawner *Spawner
}

func newWaker(id Id, spawner *Spawner) *Waker {
	return &Waker{id: id, spawner: spawner}
}

// Wake pushes this waker's task id back onto the ready queue. Safe to
// call from interrupt context (§5's permitted ISR operations list "wake
// an atomic waker").
//
//go:nosplit
func (w *Waker) Wake() {
	w.spawner.wakeReady(w.id)
}
