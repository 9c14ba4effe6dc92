// Package smp brings up application processors. A hand-assembled
// real-mode trampoline is copied to a fixed low physical address and each
// AP is started one at a time via INIT/STARTUP IPIs, per §4.5. This
// kernel never schedules work onto an AP once it is up (§1 Non-goals:
// "SMP work-stealing"); the AP's entry point sets a flag and halts.
package smp

import (
	"unsafe"

	"cinder/internal/apic"
	"cinder/internal/asmutil"
)

const (
	trampolinePhys = 0x8000
	descriptorPhys = 0x9000

	apStackSize   = 16 * 1024
	startupVector = trampolinePhys >> 12 // 0x08, per §4.5

	icrInit    = 0x4500
	icrStartup = 0x4600
)

// descriptor mirrors the shared record at 0x9000 that the trampoline blob
// reads once it reaches 32-bit protected mode, per §4.5.
type descriptor struct {
	apStackTop  uint64
	apEntryFn   uint64
	pml4Phys    uint64
	gdtBasePhys uint64
	gdtSize     uint16
}

// trampolineBlob is the embedded real-mode-to-long-mode bring-up code.
// The actual machine code is produced by an external assembler step and
// linked in as a byte blob; this placeholder reserves the shape so the
// copy-to-0x8000 step and its size are well-defined.
var trampolineBlob [512]byte

// online records, per application-processor index (1-based; index 0 is
// the bootstrap processor and never goes through this path), whether
// that AP has reached its entry function and parked.
var online [256]uint32

//go:noescape
func apEntryAddr() uintptr

// apEntry is called by the trampoline once an AP reaches long mode. It
// marks itself online and halts forever: this kernel only ever runs its
// executor on the bootstrap processor (§1, §4.5).
//
//go:nosplit
func apEntry(index uint64) {
	online[index] = 1
	asmutil.Cli()
	for {
		asmutil.Hlt()
	}
}

// Config carries the values Bringup needs that only the caller (kmain,
// after memory and GDT setup) has: the per-AP stack window's base and the
// current GDT's location, neither of which this package owns. Kmain passes
// kernel virtual addresses for both (memory.PageMapper.MapAPStacks's
// window and gdt.LinearAddr), which are valid for an AP once it runs on
// PML4Phys.
type Config struct {
	PhysOffset      uintptr
	APStackBasePhys uintptr
	GDTBasePhys     uint64
	GDTSize         uint16
	PML4Phys        uint64
}

// Bringup copies the trampoline to its fixed physical address and starts
// every application processor in ids one at a time, per §4.5's
// serialization requirement: the shared descriptor is repopulated and
// quiesced between successive IPI sequences, so no two APs ever read it
// concurrently.
func Bringup(lapic *apic.LAPIC, ids []uint8, cfg Config) {
	trampolineVirt := cfg.PhysOffset + trampolinePhys
	dst := unsafe.Slice((*byte)(unsafe.Pointer(trampolineVirt)), len(trampolineBlob))
	copy(dst, trampolineBlob[:])

	desc := (*descriptor)(unsafe.Pointer(cfg.PhysOffset + descriptorPhys))

	for i, id := range ids {
		index := i + 1
		desc.apStackTop = uint64(cfg.APStackBasePhys) + uint64(index)*apStackSize
		desc.apEntryFn = uint64(apEntryAddr())
		desc.pml4Phys = cfg.PML4Phys
		desc.gdtBasePhys = cfg.GDTBasePhys
		desc.gdtSize = cfg.GDTSize

		lapic.SendIPI(id, icrInit)
		for lapic.IPIPending() {
			asmutil.Pause()
		}
		lapic.SendIPI(id, icrStartup|startupVector)
		for lapic.IPIPending() {
			asmutil.Pause()
		}

		for online[index] == 0 {
			asmutil.Pause()
		}
	}
}

// Online reports whether application-processor index (1-based, in the
// order passed to Bringup) has reached its parking loop.
func Online(index int) bool {
	return online[index] != 0
}
