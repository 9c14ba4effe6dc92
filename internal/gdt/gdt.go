// Package gdt builds the kernel's segment descriptor table and task-state
// segment by hand: a flat code/data model plus one IST entry reserved for
// the double-fault handler, following the original kernel's gdt.rs
// contents (kernel code segment, kernel data segment, TSS segment, in that
// order after the null entry, plus one 20 KiB IST stack) but writing the raw descriptor bytes the way the teacher kernel's
// page.go and exceptions.go build hardware-facing tables by hand instead
// of through a crate.
package gdt

import (
	"unsafe"

	"cinder/internal/asmutil"
)

// DoubleFaultISTIndex is the IST slot (1-7) the double-fault handler's
// gate uses; 0 means "no IST switch".
const DoubleFaultISTIndex = 1

const doubleFaultStackSize = 4096 * 5 // 20 KiB, per §3 "a fixed 20 KiB stack"

var doubleFaultStack [doubleFaultStackSize]byte

// tss is the task-state segment. Only the IST array and the two size
// fields participate in long mode; the rest of the legacy TSS layout is
// present only because the hardware expects the full 104-byte structure.
type tss struct {
	reserved0 uint32
	rsp       [3]uint64
	reserved1 uint64
	ist       [7]uint64
	reserved2 uint64
	reserved3 uint16
	ioMapBase uint16
}

var theTSS tss

// descriptor is one raw 8-byte GDT entry in x86_64's packed format.
type descriptor uint64

const (
	accessPresent    = 1 << 47
	accessNotSystem  = 1 << 44
	accessExecutable = 1 << 43
	accessRW         = 1 << 41
	flagLongMode     = 1 << 53
	flagGranularity  = 1 << 55
)

func kernelCodeDescriptor() descriptor {
	return descriptor(accessPresent | accessNotSystem | accessExecutable | accessRW | flagLongMode)
}

func kernelDataDescriptor() descriptor {
	return descriptor(accessPresent | accessNotSystem | accessRW)
}

// tssDescriptor builds the two consecutive 8-byte slots a 64-bit TSS
// descriptor occupies, encoding base/limit/type the way the hardware
// expects: low descriptor holds base[23:0]/base[31:24]/limit, high
// descriptor holds base[63:32].
func tssDescriptor(base uint64, limit uint32) (low, high descriptor) {
	const typeAvailableTSS = 0x9
	low = descriptor(uint64(limit&0xffff) |
		((base & 0xffffff) << 16) |
		(uint64(typeAvailableTSS) << 40) |
		accessPresent |
		((base >> 24 & 0xff) << 56))
	high = descriptor(base >> 32)
	return
}

const (
	entryNull = iota
	entryCode
	entryData
	entryTSSLow
	entryTSSHigh
	gdtEntries
)

var table [gdtEntries]descriptor

// CodeSelector and DataSelector are the segment selectors Init installs;
// Init itself reloads CS with CodeSelector and DS/ES/SS with DataSelector.
const (
	CodeSelector = entryCode << 3
	DataSelector = entryData << 3
	TSSSelector  = entryTSSLow << 3
)

type pseudoDescriptor struct {
	limit uint16
	base  uint64
}

// Init builds the GDT and TSS, installs the double-fault IST stack,
// loads the GDT and TSS registers, and reloads CS, DS, ES and SS with the
// new flat selectors (FS and GS are left as they were). Must run once, early in boot, before any
// interrupt can be taken (the IDT's double-fault gate references
// DoubleFaultISTIndex, which is meaningless until this has run).
func Init() {
	stackTop := uintptr(unsafe.Pointer(&doubleFaultStack[0])) + doubleFaultStackSize
	theTSS.ist[DoubleFaultISTIndex-1] = uint64(stackTop)

	table[entryNull] = 0
	table[entryCode] = kernelCodeDescriptor()
	table[entryData] = kernelDataDescriptor()
	tssBase := uint64(uintptr(unsafe.Pointer(&theTSS)))
	table[entryTSSLow], table[entryTSSHigh] = tssDescriptor(tssBase, uint32(unsafe.Sizeof(theTSS))-1)

	desc := pseudoDescriptor{
		limit: uint16(unsafe.Sizeof(table) - 1),
		base:  uint64(uintptr(unsafe.Pointer(&table))),
	}
	asmutil.Lgdt(unsafe.Pointer(&desc))
	asmutil.SetCS(CodeSelector)
	asmutil.SetDataSegments(DataSelector)
	asmutil.Ltr(TSSSelector)
}

// LinearAddr and Size expose the live GDT's address and byte size so the
// SMP trampoline (§4.5) can point each AP's startup descriptor at the same
// table: once an AP loads PML4Phys into its own CR3 it shares the BSP's
// address space, so the BSP's own linear address for the table is valid
// for the AP too, no physical-address translation required.
func LinearAddr() uint64 { return uint64(uintptr(unsafe.Pointer(&table))) }
func Size() uint16       { return uint16(unsafe.Sizeof(table)) }
