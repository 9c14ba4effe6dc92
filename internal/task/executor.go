package task

import "cinder/internal/asmutil"

// Executor runs ready tasks to completion on the bootstrap processor and
// halts when idle, per §4.4's scheduling model. It caches one Waker per
// live task id so repeated Pending polls don't allocate a fresh waker
// every time.
type Executor struct {
	spawner    *Spawner
	wakerCache map[Id]*Waker
}

// NewExecutor returns an executor driving spawner's task table.
func NewExecutor(spawner *Spawner) *Executor {
	return &Executor{spawner: spawner, wakerCache: make(map[Id]*Waker)}
}

// Run loops forever: disable interrupts, drain the ready queue, enable
// interrupts and halt until the next one arrives (§4.4 "Executor loop").
// It never returns; kmain calls this last.
func (e *Executor) Run() {
	for {
		asmutil.Cli()
		e.drain()
		asmutil.Sti()
		asmutil.Hlt()
	}
}

// DrainOnce runs a single ready-queue drain without touching the
// interrupt flag, for use by test harnesses and other hosted callers that
// step the executor deterministically instead of calling Run.
func (e *Executor) DrainOnce() {
	e.drain()
}

// drain pops every ready id, polling each task still present in the task
// table and removing it (plus its cached waker) on completion (§4.4
// "Ready drain"). Must run with interrupts already disabled.
func (e *Executor) drain() {
	for {
		id, ok := e.spawner.popReady()
		if !ok {
			return
		}
		t, present := e.spawner.tasks[id]
		if !present {
			continue // already completed; a stale wake is a no-op
		}

		waker, cached := e.wakerCache[id]
		if !cached {
			waker = newWaker(id, e.spawner)
			e.wakerCache[id] = waker
		}

		if t.Future.Poll(waker) == Ready {
			e.spawner.remove(id)
			delete(e.wakerCache, id)
		}
	}
}
