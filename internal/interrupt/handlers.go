package interrupt

import (
	"cinder/internal/asmutil"
	"cinder/internal/kernelpanic"
	"cinder/internal/klog"
	"cinder/internal/streams"
)

const lapicEOIOffset = 0xB0

// LapicBase is the virtual address of the local xAPIC's MMIO window;
// Kmain assigns this once memory.PageMapper.MapAPICRegisters has mapped it. The timer and keyboard
// trampolines write the EOI register through it directly rather than
// calling into the apic package, keeping the interrupt-context code path
// free of anything beyond the permitted operations in §5.
var LapicBase uintptr

func sendEOI() {
	asmutil.MmioWrite32(LapicBase+lapicEOIOffset, 0)
}

// Scancodes and TimerFired are the streams the keyboard and timer
// handlers push into. Assigned once during boot by the task-setup code
// that owns the stream instances.
var (
	Scancodes  *streams.ScancodeStream
	TimerFired *streams.TimerFiredStream
)

// TimeMS is the monotonic millisecond counter §4.6 describes, incremented
// exactly once per timer IRQ. Readers use a relaxed load.
var TimeMS uint64

//go:nosplit
func breakpointHandler() {
	klog.Warnf("breakpoint exception")
}

//go:nosplit
func pageFaultHandler(errorCode uint64) {
	addr := asmutil.ReadCR2()
	trapFault("page fault", addr, errorCode)
}

//go:nosplit
func doubleFaultHandler(errorCode uint64) {
	trapFault("double fault", 0, errorCode)
}

//go:nosplit
func timerHandler() {
	TimeMS++
	if TimerFired != nil {
		TimerFired.Push()
	}
	sendEOI()
}

//go:nosplit
func keyboardHandler() {
	scancode := asmutil.Inb(0x60)
	if Scancodes != nil {
		Scancodes.Push(scancode)
	}
	sendEOI()
}

// trapFault is shared by the two fatal CPU-detected faults; it never
// returns (§7 Fatal-trap).
//
//go:nosplit
func trapFault(what string, addr, errorCode uint64) {
	kernelpanic.Trap(what, addr, errorCode)
}
