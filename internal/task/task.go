// Package task implements the cooperative single-threaded executor §4.4
// describes: a process-wide task spawner, a sorted task table, a bounded
// ready queue, and per-task wakers cached across polls. Grounded directly
// on the original kernel's task.rs/task/executor.rs; Go has no `dyn
// Future` trait objects, so Future is an interface instead of a boxed
// trait object, the one generalization §9's design notes call for.
package task

import (
	"sync/atomic"

	"cinder/internal/asmutil"
	"cinder/internal/kernelpanic"
)

// Poll mirrors core::task::Poll: either the future is done, or it needs
// to be polled again after its waker fires.
type Poll int

const (
	Pending Poll = iota
	Ready
)

// Future is a single step of cooperative work. Implementations must not
// block; they return Pending and arrange for waker.Wake to be called
// later instead.
type Future interface {
	Poll(waker *Waker) Poll
}

// Id is a globally unique, monotonically allocated task identifier
// (§3 Task, §8 property 9: "Ids returned by successive TaskId::new() are
// strictly increasing").
type Id uint64

var nextID atomic.Uint64

// NewID allocates the next task id.
func NewID() Id {
	return Id(nextID.Add(1) - 1)
}

// Task pairs an id with the future it drives, the Go analogue of
// StaticTask (a future.pinned boxed future in the original; here a plain
// interface value, since Go futures aren't relocated once stored in the
// task table).
type Task struct {
	ID     Id
	Future Future
}

// NewTask allocates a fresh id for future.
func NewTask(future Future) Task {
	return Task{ID: NewID(), Future: future}
}

// readyQueueCapacity bounds the multi-producer-multi-consumer ready
// queue (§3 "Ready queue").
const readyQueueCapacity = 20

// Spawner is the process-wide task spawner. Insertion adds (id, task) to
// a sorted task table and pushes id onto the ready queue; both mutations
// happen with interrupts disabled (§4.4 "avoid a deadlock against the
// keyboard/timer ISRs that wake tasks").
type Spawner struct {
	tasks     map[Id]Task
	order     []Id // kept sorted so iteration order matches a BTreeMap's
	readyHead int
	readyTail int
	readyLen  int
	ready     [readyQueueCapacity]Id
}

// NewSpawner returns an empty spawner.
func NewSpawner() *Spawner {
	return &Spawner{tasks: make(map[Id]Task)}
}

// Spawn inserts t into the task table and pushes its id onto the ready
// queue. A duplicate id is a programming error and is fatal (§4.4,
// mirroring task.rs's "panic!(task with same ID already in tasks)").
func (s *Spawner) Spawn(t Task) {
	asmutil.Cli()
	defer asmutil.Sti()

	if _, exists := s.tasks[t.ID]; exists {
		kernelpanic.Fatal("task: duplicate task id")
	}
	s.tasks[t.ID] = t
	s.insertSorted(t.ID)
	s.pushReady(t.ID)
}

func (s *Spawner) insertSorted(id Id) {
	i := 0
	for i < len(s.order) && s.order[i] < id {
		i++
	}
	s.order = append(s.order, 0)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = id
}

func (s *Spawner) pushReady(id Id) {
	if s.readyLen == readyQueueCapacity {
		kernelpanic.Fatal("task: ready queue full")
	}
	s.ready[s.readyTail] = id
	s.readyTail = (s.readyTail + 1) % readyQueueCapacity
	s.readyLen++
}

// wakeReady is the subset of pushReady the waker calls: it does not
// re-disable interrupts, since it runs either from interrupt context
// (permitted: "wake an atomic waker") or from inside a drain that has
// already disabled them.
func (s *Spawner) wakeReady(id Id) {
	if s.readyLen == readyQueueCapacity {
		return // best-effort; a saturated ready queue silently drops the wake
	}
	s.ready[s.readyTail] = id
	s.readyTail = (s.readyTail + 1) % readyQueueCapacity
	s.readyLen++
}

func (s *Spawner) popReady() (Id, bool) {
	if s.readyLen == 0 {
		return 0, false
	}
	id := s.ready[s.readyHead]
	s.readyHead = (s.readyHead + 1) % readyQueueCapacity
	s.readyLen--
	return id, true
}

func (s *Spawner) remove(id Id) {
	delete(s.tasks, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
