package terminal

import (
	"testing"

	"cinder/internal/streams"
	"cinder/internal/task"
)

func TestKeyboardTaskForwardsScancodesInOrder(t *testing.T) {
	term := newTestTerminal(t)
	in := streams.NewScancodeStream()
	kt := NewKeyboardTask(term, in)

	in.Push(0x1E) // 'a'
	in.Push(0x1F) // 's'

	spawner := task.NewSpawner()
	executor := task.NewExecutor(spawner)
	spawner.Spawn(task.NewTask(kt))
	executor.DrainOnce()

	if term.currentInput != "as" {
		t.Fatalf("currentInput = %q, want \"as\" (in arrival order, §8 property 5)", term.currentInput)
	}
}

func TestLogTaskForwardsRecordsWhenEnabled(t *testing.T) {
	term := newTestTerminal(t)
	in := streams.NewLogStream()
	lt := NewLogTask(term, in)

	var rec streams.LogRecord
	rec.Len = copy(rec.Bytes[:], "INFO: hello\n")
	in.Push(rec)

	spawner := task.NewSpawner()
	executor := task.NewExecutor(spawner)
	spawner.Spawn(task.NewTask(lt))
	executor.DrainOnce()

	if term.historyLen != 1 {
		t.Fatalf("historyLen = %d, want 1", term.historyLen)
	}
}
