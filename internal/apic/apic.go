// Package apic programs the local xAPIC and the I/O APIC: the periodic
// timer and the keyboard IRQ route through here. Register offsets and the
// software-enable/divide/periodic-timer sequence are grounded on the
// original kernel's interrupts/apic.rs (write_lapic helper, XAPIC_*
// offsets, IOAPIC enable), translated from the x86 crate's typed register
// access into the raw MMIO-offset style the teacher kernel's gic_qemu.go
// uses for its own interrupt controller.
package apic

import "cinder/internal/asmutil"

// Local xAPIC register offsets (relative to the LAPIC MMIO base).
const (
	lapicSpuriousVector = 0x0F0
	lapicEOI            = 0x0B0
	lapicLVTTimer       = 0x320
	lapicTimerInitCount = 0x380
	lapicTimerDivide    = 0x3E0
	lapicID             = 0x020
)

const (
	spuriousSoftwareEnable = 1 << 8
	lvtTimerPeriodic       = 1 << 17
	timerDivideBy1         = 0b1011
	// timerInitCount is an installation-time constant tuned to deliver
	// roughly one tick per millisecond; calibrating it against the PIT or
	// invariant TSC is out of scope (§9 Open Questions).
	timerInitCount = 10_000_000
)

// LAPIC wraps the local xAPIC's MMIO window.
type LAPIC struct {
	base uintptr
}

// NewLAPIC wraps an already-mapped LAPIC MMIO window. memory.PageMapper's
// MapAPICRegisters supplies base.
func NewLAPIC(base uintptr) *LAPIC { return &LAPIC{base: base} }

func (l *LAPIC) read(offset uintptr) uint32  { return asmutil.MmioRead32(l.base + offset) }
func (l *LAPIC) write(offset uintptr, v uint32) { asmutil.MmioWrite32(l.base+offset, v) }

// ID returns this CPU's local APIC id, read out of the ID register's top
// byte.
func (l *LAPIC) ID() uint8 {
	return uint8(l.read(lapicID) >> 24)
}

// Enable sets the software-enable bit in the spurious-interrupt vector
// register, the step that actually turns the xAPIC on after mapping its
// MMIO window (§4.3 "the software-enable bit is set").
func (l *LAPIC) Enable() {
	l.write(lapicSpuriousVector, l.read(lapicSpuriousVector)|spuriousSoftwareEnable)
}

// StartPeriodicTimer configures divide-by-1, periodic mode, and the given
// vector, per §4.3's timer configuration.
func (l *LAPIC) StartPeriodicTimer(vector uint8) {
	l.write(lapicTimerDivide, timerDivideBy1)
	l.write(lapicLVTTimer, lvtTimerPeriodic|uint32(vector))
	l.write(lapicTimerInitCount, timerInitCount)
}

// EOI writes 0 to the EOI register, signaling completion of the current
// interrupt (§4.3 "End-of-interrupt").
//
//go:nosplit
func (l *LAPIC) EOI() {
	l.write(lapicEOI, 0)
}

const (
	icrLow        = 0x300
	icrHigh       = 0x310
	icrDeliveryPending = 1 << 12
)

// SendIPI writes the destination and command halves of the
// interprocessor-interrupt command register, used by the SMP trampoline
// to issue INIT and STARTUP IPIs (§4.5).
func (l *LAPIC) SendIPI(destAPICID uint8, command uint32) {
	l.write(icrHigh, uint32(destAPICID)<<24)
	l.write(icrLow, command)
}

// IPIPending reports whether the previous IPI is still being delivered;
// the trampoline polls this between INIT and STARTUP so the two IPIs
// serialize per §4.5.
func (l *LAPIC) IPIPending() bool {
	return l.read(icrLow)&icrDeliveryPending != 0
}

// I/O APIC register-select/window offsets and the redirection-table base.
const (
	ioapicRegSel = 0x00
	ioapicWindow = 0x10
	ioapicRedTbl = 0x10
)

// IOAPIC wraps the I/O APIC's MMIO window.
type IOAPIC struct {
	base uintptr
}

func NewIOAPIC(base uintptr) *IOAPIC { return &IOAPIC{base: base} }

func (io *IOAPIC) write(reg uint32, value uint32) {
	asmutil.MmioWrite32(io.base+ioapicRegSel, reg)
	asmutil.MmioWrite32(io.base+ioapicWindow, value)
}

// UnmaskIRQ routes irq to vector, delivered to the LAPIC with the given
// id, using fixed delivery mode and edge-triggered, active-high polarity
// (the defaults the original kernel's io_apic.enable call relies on).
func (io *IOAPIC) UnmaskIRQ(irq uint8, vector uint8, lapicID uint8) {
	low := uint32(vector)
	high := uint32(lapicID) << 24
	regLow := ioapicRedTbl + uint32(irq)*2
	regHigh := regLow + 1
	io.write(regHigh, high)
	io.write(regLow, low)
}
