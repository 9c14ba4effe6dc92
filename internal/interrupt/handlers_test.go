package interrupt

import (
	"testing"
	"unsafe"

	"cinder/internal/streams"
)

func TestTimerHandlerIncrementsCounterAndNotifies(t *testing.T) {
	TimerFired = streams.NewTimerFiredStream()
	LapicBase = fakeLapic()
	defer func() { TimerFired = nil }()

	before := TimeMS
	timerHandler()
	if TimeMS != before+1 {
		t.Fatalf("TimeMS = %d, want %d", TimeMS, before+1)
	}
	if !TimerFired.TryPop() {
		t.Fatal("timer handler did not notify the timer-fired stream")
	}
}

// fakeLapic backs LapicBase with real memory so MmioWrite32 in sendEOI
// doesn't touch an unmapped address during the test.
func fakeLapic() uintptr {
	buf := make([]byte, 4096)
	return uintptr(unsafe.Pointer(&buf[0]))
}
