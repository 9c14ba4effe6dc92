package memory

import (
	"cinder/internal/bitfield"
	"cinder/internal/kernelpanic"
)

// Layout constants for the fixed virtual windows §4.2 names. These are
// installation-time constants, the same role the linker-symbol addresses
// play in the teacher kernel's page.go.
const (
	HeapStart = 0xffff_8000_0000_0000
	HeapSize  = 10 * 1024 * 1024 // ≈10 MiB, per §3

	acpiPoolStart = HeapStart + HeapSize
	acpiPoolSize  = 64 * 1024
	acpiPoolPages = acpiPoolSize / pageSize

	apicLapicPhys = 0xFEE0_0000
	apicIoapicPhys = 0xFEC0_0000
	apicWindow     = 0xffff_9000_0000_0000

	trampolinePhys = 0x8000

	apStackPageSize = 16 * 1024
	apStackWindow   = acpiPoolStart + acpiPoolSize
)

// rw is shorthand for the present+writable flags most kernel-owned
// mappings use.
var rw = bitfield.PageTableFlags{Present: true, Writable: true}

// MapHeapWindow backs every page of [HeapStart, HeapStart+HeapSize) with a
// distinct frame before the allocator is armed, satisfying §3's "every
// page in the window is backed by a distinct frame before the allocator
// is armed" invariant.
func (m *PageMapper) MapHeapWindow() {
	m.MapRange(HeapStart, HeapSize/pageSize, rw)
}

// ACPIPool is the pre-populated pool of pages the ACPI-memory-mapping
// handler draws from (§4.2 (a), §4.3 "pulls a preallocated page from the
// ACPI pool"). Unmap is a no-op by design: pool pages are leaked, the
// region is single-use during boot (§4.3).
type ACPIPool struct {
	mapper *PageMapper
	base   uintptr
	next   int
}

// MapACPIPool reserves the ≈64 KiB window immediately after the heap and
// backs it with frames, returning a pool the ACPI reader draws pages from.
func (m *PageMapper) MapACPIPool() *ACPIPool {
	m.MapRange(acpiPoolStart, acpiPoolPages, rw)
	return &ACPIPool{mapper: m, base: acpiPoolStart}
}

// MapPhysical pulls the next pool page and maps it onto physAddr's
// containing frame, returning a virtual pointer into the mapped window.
// Exhausting the pool is fatal (§7: "exhausted ACPI pool").
func (p *ACPIPool) MapPhysical(physAddr uintptr) uintptr {
	if p.next >= acpiPoolPages {
		kernelpanic.Fatal("memory: ACPI pool exhausted")
	}
	virt := p.base + uintptr(p.next)*pageSize
	p.next++
	frameBase := physAddr &^ (pageSize - 1)
	offset := physAddr - frameBase
	p.mapper.MapFixed(virt, frameBase, rw)
	return virt + offset
}

// MapAPICRegisters maps the local xAPIC and I/O APIC MMIO windows with
// the no-cache attribute §3 requires, returning their virtual bases.
func (m *PageMapper) MapAPICRegisters() (lapicVirt, ioapicVirt uintptr) {
	flags := bitfield.PageTableFlags{Present: true, Writable: true, NoCache: true}
	m.MapFixed(apicWindow, apicLapicPhys, flags)
	m.MapFixed(apicWindow+pageSize, apicIoapicPhys, flags)
	return apicWindow, apicWindow + pageSize
}

// MapTrampoline maps the low-memory real-mode bring-up page at its fixed
// physical address 0x8000 (§4.2 (c), §4.5).
func (m *PageMapper) MapTrampoline() uintptr {
	m.MapFixed(trampolinePhys, trampolinePhys, rw)
	return trampolinePhys
}

// MapAPStacks reserves a 16 KiB-per-core stack region immediately after
// the ACPI pool, sized for apCount application processors (§4.2 (d)).
// Returns the window's base virtual address; stack i's top is
// base + (i+1)*16KiB, matching the trampoline descriptor's AP_STACK_BASE
// arithmetic in §4.5.
func (m *PageMapper) MapAPStacks(apCount int) uintptr {
	if apCount <= 0 {
		return apStackWindow
	}
	pages := (apStackPageSize * apCount) / pageSize
	m.MapRange(apStackWindow, pages, rw)
	return apStackWindow
}
