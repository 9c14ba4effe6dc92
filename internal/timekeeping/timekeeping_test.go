package timekeeping

import (
	"testing"

	"cinder/internal/interrupt"
	"cinder/internal/streams"
	"cinder/internal/task"
)

// TestTimerMonotonicity is property 6 from §8: TIME_MS never decreases.
func TestTimerMonotonicity(t *testing.T) {
	interrupt.TimeMS = 0
	var prev uint64
	for i := 0; i < 100; i++ {
		interrupt.TimeMS++
		now := NowMS()
		if now < prev {
			t.Fatalf("NowMS() went backwards: %d after %d", now, prev)
		}
		prev = now
	}
}

// TestWaitMSCompletesAtOrAfterDeadline is property 7: a wait_ms(d) future
// completes no earlier than t0+d once the timer task drains past it.
func TestWaitMSCompletesAtOrAfterDeadline(t *testing.T) {
	interrupt.TimeMS = 1000
	q := NewQueue()

	w := WaitMS(q, 50)
	spawner := task.NewSpawner()
	tk := task.NewTask(w)
	spawner.Spawn(tk)
	exec := task.NewExecutor(spawner)
	exec.DrainOnce() // first poll: arms the record, should stay Pending

	q.Drain(1049) // one ms short of the deadline
	if w.record.woken {
		t.Fatal("wait_ms(50) fired before its deadline")
	}

	q.Drain(1050) // exactly at the deadline
	if !w.record.woken {
		t.Fatal("wait_ms(50) did not fire at its deadline")
	}
}

func TestTimerTaskDrainsOnEachFiredTick(t *testing.T) {
	interrupt.TimeMS = 0
	fired := streams.NewTimerFiredStream()
	q := NewQueue()
	tt := NewTask(fired, q)

	rec := &waitRecord{endMS: 5}
	q.push(rec)

	interrupt.TimeMS = 5
	fired.Push()

	spawner := task.NewSpawner()
	spawner.Spawn(task.NewTask(tt))
	exec := task.NewExecutor(spawner)
	exec.DrainOnce()

	if !rec.woken {
		t.Fatal("timer task did not drain the queue after a fired tick")
	}
}
