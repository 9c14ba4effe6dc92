package apic

import (
	"testing"
	"unsafe"
)

func fakeMMIOWindow(t *testing.T, size int) uintptr {
	t.Helper()
	buf := make([]byte, size)
	t.Cleanup(func() { _ = buf })
	return uintptr(unsafe.Pointer(&buf[0]))
}

func TestLAPICEnableSetsSoftwareEnableBit(t *testing.T) {
	base := fakeMMIOWindow(t, 4096)
	l := NewLAPIC(base)
	l.Enable()
	if l.read(lapicSpuriousVector)&spuriousSoftwareEnable == 0 {
		t.Fatal("Enable() did not set the software-enable bit")
	}
}

func TestLAPICStartPeriodicTimerProgramsAllThreeRegisters(t *testing.T) {
	base := fakeMMIOWindow(t, 4096)
	l := NewLAPIC(base)
	l.StartPeriodicTimer(0x20)

	if got := l.read(lapicTimerDivide); got != timerDivideBy1 {
		t.Fatalf("divide register = %#x, want %#x", got, timerDivideBy1)
	}
	if got := l.read(lapicLVTTimer); got&0x20 == 0 || got&lvtTimerPeriodic == 0 {
		t.Fatalf("LVT timer register = %#x, want vector 0x20 with periodic bit set", got)
	}
	if got := l.read(lapicTimerInitCount); got != timerInitCount {
		t.Fatalf("init count register = %#x, want %#x", got, timerInitCount)
	}
}

// TestIOAPICUnmaskIRQSelectsLowRegisterLast checks the write order
// UnmaskIRQ uses: high dword (destination) first, then low dword
// (vector), so on real hardware the entry never briefly unmasks with a
// garbage vector. Against the flat memory this test backs the MMIO
// window with, the final register-select/window pair left behind is the
// low-dword write.
func TestIOAPICUnmaskIRQSelectsLowRegisterLast(t *testing.T) {
	base := fakeMMIOWindow(t, 4096)
	io := NewIOAPIC(base)
	io.UnmaskIRQ(1, 0x21, 0)

	sel := (*uint32)(unsafe.Pointer(base + ioapicRegSel))
	win := (*uint32)(unsafe.Pointer(base + ioapicWindow))
	if *sel != ioapicRedTbl+1*2 {
		t.Fatalf("final register-select = %#x, want the low dword of IRQ 1's entry", *sel)
	}
	if *win != 0x21 {
		t.Fatalf("final window value = %#x, want vector 0x21", *win)
	}
}
