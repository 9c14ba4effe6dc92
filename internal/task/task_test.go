package task

import "testing"

// TestTaskIDsStrictlyIncreasing is property 9 from §8.
func TestTaskIDsStrictlyIncreasing(t *testing.T) {
	var prev Id
	for i := 0; i < 1000; i++ {
		id := NewID()
		if i > 0 && id <= prev {
			t.Fatalf("NewID() = %d, want strictly greater than %d", id, prev)
		}
		prev = id
	}
}

// countingFuture completes after N polls, counting how many times it was
// actually polled and waking itself after every Pending poll.
type countingFuture struct {
	remaining int
	polls     int
}

func (f *countingFuture) Poll(w *Waker) Poll {
	f.polls++
	f.remaining--
	if f.remaining <= 0 {
		return Ready
	}
	w.Wake()
	return Pending
}

// TestExecutorDrainsReadyTaskToCompletion is property 8 (liveness) in
// concrete form: a task that re-wakes itself every poll until done is
// eventually driven to completion by one drain call.
func TestExecutorDrainsReadyTaskToCompletion(t *testing.T) {
	spawner := NewSpawner()
	exec := NewExecutor(spawner)

	f := &countingFuture{remaining: 5}
	spawner.Spawn(NewTask(f))

	exec.drain()

	if f.polls != 5 {
		t.Fatalf("polls = %d, want 5", f.polls)
	}
	if len(spawner.tasks) != 0 {
		t.Fatalf("completed task should have been removed, table has %d entries", len(spawner.tasks))
	}
}

func TestSpawnerRejectsDuplicateViaPanic(t *testing.T) {
	// Spawn calls kernelpanic.Fatal on a duplicate id, which halts
	// forever on real hardware; hosted, the CLI that both Spawn and the
	// halt loop execute faults in an unprivileged process, so this path
	// can't be exercised without crashing the test binary. Covered instead
	// by code review: Spawn's duplicate check mirrors task/executor.rs's
	// `panic!("task with same ID already in tasks")` exactly.
	t.Skip("duplicate-id path halts forever by design; not exercisable hosted")
}

// pendingForever never completes; used to check popReady/drain behavior
// when a task stays Pending without re-waking itself.
type pendingForever struct{ polled int }

func (f *pendingForever) Poll(w *Waker) Poll {
	f.polled++
	return Pending
}

func TestExecutorLeavesPendingTaskInTableWithoutRewake(t *testing.T) {
	spawner := NewSpawner()
	exec := NewExecutor(spawner)

	f := &pendingForever{}
	task := NewTask(f)
	spawner.Spawn(task)

	exec.drain()

	if f.polled != 1 {
		t.Fatalf("polled = %d, want 1 (task never re-wakes itself)", f.polled)
	}
	if _, present := spawner.tasks[task.ID]; !present {
		t.Fatal("pending task should remain in the task table")
	}
	if _, ok := spawner.popReady(); ok {
		t.Fatal("ready queue should be empty: task never called Wake")
	}
}
