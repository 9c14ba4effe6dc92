// Package timekeeping implements wait_ms and the timer task that resolves
// it (§4.4 "Timer waits", §4.6). TIME_MS itself lives in the interrupt
// package (it's incremented directly by the timer ISR); this package
// reads it and owns the time-wait record queue.
package timekeeping

import (
	"cinder/internal/interrupt"
	"cinder/internal/streams"
	"cinder/internal/task"
)

// NowMS returns the current millisecond counter with a relaxed load
// (§4.6: "Readers observe a relaxed load").
func NowMS() uint64 {
	return interrupt.TimeMS
}

// waitRecord is a pending wait_ms deadline. Per §4.4's cancellation
// design note, the record is shared between the future and the queue: a
// dropped future leaves its record in the queue, the timer task marks it
// woken and wakes a waker that may never be polled again, which is a
// harmless no-op.
type waitRecord struct {
	endMS  uint64
	woken  bool
	waker  *task.Waker
}

const maxPendingWaits = 64

// Queue is the segmented queue of pending time-wait records; the timer
// task is its sole consumer (§4.4 "Timer task").
type Queue struct {
	records []*waitRecord
}

// NewQueue returns an empty wait queue.
func NewQueue() *Queue {
	return &Queue{records: make([]*waitRecord, 0, maxPendingWaits)}
}

func (q *Queue) push(r *waitRecord) {
	q.records = append(q.records, r)
}

// Drain is called once per "interrupt fired" notification: it reads
// now_ms, then walks every pending record, marking and waking those whose
// deadline has passed and keeping the rest (§4.4 "Timer task").
func (q *Queue) Drain(nowMS uint64) {
	kept := q.records[:0]
	for _, r := range q.records {
		if nowMS >= r.endMS {
			r.woken = true
			if r.waker != nil {
				r.waker.Wake()
			}
			continue
		}
		kept = append(kept, r)
	}
	q.records = kept
}

// Wait is the future wait_ms(d) returns: it polls by checking the
// record's woken flag (§4.4).
type Wait struct {
	record *waitRecord
	queue  *Queue
	armed  bool
}

// WaitMS captures end = now_ms + d and returns a future that completes no
// earlier than that deadline (§8 property 7).
func WaitMS(queue *Queue, d uint64) *Wait {
	return &Wait{
		record: &waitRecord{endMS: NowMS() + d},
		queue:  queue,
	}
}

// Poll implements task.Future. The first poll enqueues the record (so the
// timer task can see it) and registers the caller's waker; later polls
// just check the flag.
func (w *Wait) Poll(waker *task.Waker) task.Poll {
	if !w.armed {
		w.record.waker = waker
		w.queue.push(w.record)
		w.armed = true
	}
	if w.record.woken {
		return task.Ready
	}
	return task.Pending
}

// Task drives Queue.Drain off the timer-fired stream, the async
// suspension point §9 names alongside scancode and log stream reads.
type Task struct {
	fired *streams.TimerFiredStream
	queue *Queue
}

// NewTask returns a future that forever drains queue each time fired
// reports a tick, never completing (it is spawned once and runs for the
// life of the kernel).
func NewTask(fired *streams.TimerFiredStream, queue *Queue) *Task {
	return &Task{fired: fired, queue: queue}
}

// Poll implements task.Future. It drains any ticks that arrived before
// this poll, registers the executor's waker against the fired stream so
// the next ISR-delivered tick re-queues this task, then re-checks the
// fast path once more before returning Pending — the
// registration-then-recheck sequence §4.4 requires to close the
// lost-wakeup race against the timer ISR.
func (t *Task) Poll(waker *task.Waker) task.Poll {
	for t.fired.TryPop() {
		t.queue.Drain(NowMS())
	}
	t.fired.Waker().Register(waker.Wake)
	for t.fired.TryPop() {
		t.queue.Drain(NowMS())
	}
	return task.Pending
}
