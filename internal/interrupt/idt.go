// Package interrupt installs the IDT and PIC configuration this kernel
// needs: breakpoint, page fault, and double fault exceptions, plus the
// timer and keyboard IRQ vectors the APIC delivers. Grounded on the
// original kernel's interrupts.rs/pic.rs (disable PIC, build the IDT,
// wire vector 0x20/0x21) and the teacher kernel's exceptions.go style of
// hand-building vector tables and dispatching through a fixed-size
// handler array instead of a library's typed descriptor builder.
package interrupt

import (
	"unsafe"

	"cinder/internal/asmutil"
	"cinder/internal/gdt"
)

const (
	VectorBreakpoint  = 3
	VectorDoubleFault = 8
	VectorPageFault   = 14
	VectorTimer       = 0x20
	VectorKeyboard    = 0x21

	idtEntries = 256

	pic1Data = 0x21
	pic2Data = 0xA1
)

// gateDescriptor is one raw 16-byte IDT entry in x86_64's interrupt-gate
// format: split offset, fixed segment selector, type/attribute byte.
type gateDescriptor struct {
	offsetLow  uint16
	selector   uint16
	istAndZero uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

const gateTypeInterrupt = 0x8E // present, DPL=0, 64-bit interrupt gate

func buildGate(handler uintptr, ist uint8) gateDescriptor {
	return gateDescriptor{
		offsetLow:  uint16(handler),
		selector:   gdt.CodeSelector,
		istAndZero: ist,
		typeAttr:   gateTypeInterrupt,
		offsetMid:  uint16(handler >> 16),
		offsetHigh: uint32(handler >> 32),
	}
}

var idt [idtEntries]gateDescriptor

type pseudoDescriptor struct {
	limit uint16
	base  uint64
}

// Init builds and loads the IDT, then masks the legacy 8259 PIC so every
// interrupt is delivered through the APIC path instead (§4.3 "Legacy PIC
// fully masked before the APIC is programmed").
func Init() {
	idt[VectorBreakpoint] = buildGate(breakpointTrampoline(), 0)
	idt[VectorPageFault] = buildGate(pageFaultTrampoline(), 0)
	idt[VectorDoubleFault] = buildGate(doubleFaultTrampoline(), gdt.DoubleFaultISTIndex)
	idt[VectorTimer] = buildGate(timerTrampoline(), 0)
	idt[VectorKeyboard] = buildGate(keyboardTrampoline(), 0)

	desc := pseudoDescriptor{
		limit: uint16(unsafe.Sizeof(idt) - 1),
		base:  uint64(uintptr(unsafe.Pointer(&idt))),
	}
	asmutil.Lidt(unsafe.Pointer(&desc))

	disablePIC()
}

// disablePIC masks every IRQ on both 8259 controllers by writing 0xFF to
// each data port, per §4.3.
func disablePIC() {
	asmutil.Outb(pic1Data, 0xFF)
	asmutil.Outb(pic2Data, 0xFF)
}
