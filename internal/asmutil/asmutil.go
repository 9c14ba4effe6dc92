// Package asmutil holds the privileged primitives the rest of the kernel is
// built on: port I/O, control-register access, TLB/segment table loads and
// the spinlock/halt instructions. Everything here is implemented in
// asmutil_amd64.s; this file only declares the Go-visible signatures, the
// same split internal/runtime/atomic uses for its arch-specific backends.
package asmutil

import "unsafe"

// Outb writes a byte to an I/O port.
//
//go:noescape
func Outb(port uint16, value uint8)

// Inb reads a byte from an I/O port.
//
//go:noescape
func Inb(port uint16) uint8

// Outl writes a dword to an I/O port.
//
//go:noescape
func Outl(port uint16, value uint32)

// Inl reads a dword from an I/O port.
//
//go:noescape
func Inl(port uint16) uint32

// Cli disables maskable interrupts on the current CPU.
//
//go:noescape
func Cli()

// Sti enables maskable interrupts on the current CPU.
//
//go:noescape
func Sti()

// Hlt halts the CPU until the next interrupt.
//
//go:noescape
func Hlt()

// ReadCR2 returns the faulting address recorded by the last page fault.
//
//go:noescape
func ReadCR2() uint64

// ReadCR3 returns the physical address of the active level-4 page table.
//
//go:noescape
func ReadCR3() uint64

// WriteCR3 installs a new level-4 page table, flushing the entire TLB.
//
//go:noescape
func WriteCR3(phys uint64)

// Invlpg flushes a single TLB entry for the given virtual address.
//
//go:noescape
func Invlpg(virt uint64)

// Lgdt loads the GDT register from a 10-byte pseudo-descriptor
// (2-byte limit, 8-byte base).
//
//go:noescape
func Lgdt(pseudoDescriptor unsafe.Pointer)

// Lidt loads the IDT register from a 10-byte pseudo-descriptor.
//
//go:noescape
func Lidt(pseudoDescriptor unsafe.Pointer)

// Ltr loads the task register with the given GDT selector.
//
//go:noescape
func Ltr(selector uint16)

// SetCS performs a far return to reload CS with the given selector.
//
//go:noescape
func SetCS(selector uint16)

// SetDataSegments reloads DS/ES/SS with the given selector.
//
//go:noescape
func SetDataSegments(selector uint16)

// Rdmsr reads a model-specific register.
//
//go:noescape
func Rdmsr(msr uint32) uint64

// Wrmsr writes a model-specific register.
//
//go:noescape
func Wrmsr(msr uint32, value uint64)

// MmioRead32 reads a 32-bit value from a memory-mapped register. The
// pointer must already be mapped present/writable/no-cache.
//
//go:nosplit
func MmioRead32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

// MmioWrite32 writes a 32-bit value to a memory-mapped register.
//
//go:nosplit
func MmioWrite32(addr uintptr, value uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = value
}

// Bzero zeroes n bytes starting at ptr. Used on the allocation and
// interrupt-adjacent paths where pulling in a full memclr is undesirable.
//
//go:nosplit
func Bzero(ptr unsafe.Pointer, n uintptr) {
	b := unsafe.Slice((*byte)(ptr), n)
	for i := range b {
		b[i] = 0
	}
}

// SpinUntilZero busy-waits while *flag != 0, yielding to Pause each turn.
// Used by the mutual-exclusion primitives in §5 of the specification -
// there is no OS scheduler to block against, so every lock in this kernel
// is a spinlock.
//
//go:nosplit
func SpinUntilZero(flag *uint32) {
	for Load32(flag) != 0 {
		Pause()
	}
}

// Pause executes the PAUSE instruction, the standard spin-loop hint.
//
//go:noescape
func Pause()

// Load32 performs an atomic relaxed load. A thin wrapper kept alongside the
// other primitives so ISR-reachable code has one import to reason about.
//
//go:noescape
func Load32(ptr *uint32) uint32
