package terminal

import (
	"cinder/internal/streams"
	"cinder/internal/task"
)

// KeyboardTask is the Future that drives Terminal.OnScancode off the
// scancode stream — one of the three async suspension points §9 names.
// It never completes; kmain spawns it once, alongside LogTask and the
// timer task.
type KeyboardTask struct {
	term *Terminal
	in   *streams.ScancodeStream
}

// NewKeyboardTask returns a future that forwards every scancode from in
// to term for the life of the kernel.
func NewKeyboardTask(term *Terminal, in *streams.ScancodeStream) *KeyboardTask {
	return &KeyboardTask{term: term, in: in}
}

// Poll implements task.Future with the same fast-path/register/recheck
// shape LogTask and timekeeping.Task use to close the
// lost-wakeup race against the keyboard ISR.
func (k *KeyboardTask) Poll(waker *task.Waker) task.Poll {
	for {
		code, ok := k.in.TryPop()
		if !ok {
			break
		}
		k.term.OnScancode(code)
	}
	k.in.Waker().Register(waker.Wake)
	for {
		code, ok := k.in.TryPop()
		if !ok {
			break
		}
		k.term.OnScancode(code)
	}
	return task.Pending
}

// LogTask mirrors the terminal's log lines into Terminal.OnLog off the
// log stream, the second of §9's three async suspension points.
type LogTask struct {
	term *Terminal
	in   *streams.LogStream
}

// NewLogTask returns a future that forwards every log record from in to
// term for the life of the kernel.
func NewLogTask(term *Terminal, in *streams.LogStream) *LogTask {
	return &LogTask{term: term, in: in}
}

func (l *LogTask) Poll(waker *task.Waker) task.Poll {
	for {
		rec, ok := l.in.TryPop()
		if !ok {
			break
		}
		l.term.OnLog(rec)
	}
	l.in.Waker().Register(waker.Wake)
	for {
		rec, ok := l.in.TryPop()
		if !ok {
			break
		}
		l.term.OnLog(rec)
	}
	return task.Pending
}
