package memory

import (
	"unsafe"

	"cinder/internal/asmutil"
	"cinder/internal/bitfield"
	"cinder/internal/kernelpanic"
)

const (
	pageSize      = 4096
	entriesPerTbl = 512
	pageShift     = 12
	indexBits     = 9
	indexMask     = entriesPerTbl - 1
)

// tableEntries views one page-table's 4 KiB as 512 raw uint64 entries.
type tableEntries = [entriesPerTbl]uint64

// PageMapper owns the active level-4 table and maps virtual pages to
// physical frames. Per §4.2, the bootloader has already identity-mapped
// all physical memory at physOffset, so any physical address the mapper
// needs to read or write is reached through that offset rather than
// through a temporary mapping.
type PageMapper struct {
	physOffset uintptr
	frames     *FrameSource
	lock       uint32
}

// NewPageMapper wraps the level-4 table CR3 currently points at, using
// physOffset as the access window onto all physical memory.
func NewPageMapper(physOffset uintptr, frames *FrameSource) *PageMapper {
	return &PageMapper{physOffset: physOffset, frames: frames}
}

func (m *PageMapper) acquire() { asmutil.SpinUntilZero(&m.lock); m.lock = 1 }
func (m *PageMapper) release() { m.lock = 0 }

func (m *PageMapper) tableAt(phys uintptr) *tableEntries {
	return (*tableEntries)(unsafe.Pointer(m.physOffset + phys))
}

func (m *PageMapper) l4Table() *tableEntries {
	cr3 := uintptr(asmutil.ReadCR3()) &^ 0xfff
	return m.tableAt(cr3)
}

// indices splits a canonical virtual address into its four page-table
// indices, most significant first (l4, l3, l2, l1).
func indices(virt uintptr) (l4, l3, l2, l1 int) {
	l4 = int((virt >> (pageShift + 3*indexBits)) & indexMask)
	l3 = int((virt >> (pageShift + 2*indexBits)) & indexMask)
	l2 = int((virt >> (pageShift + 1*indexBits)) & indexMask)
	l1 = int((virt >> pageShift) & indexMask)
	return
}

// nextTable returns the next-level table the entry at idx points to,
// allocating and zeroing a fresh frame for it (present/writable, no
// no-execute so intermediate tables stay walkable) if the slot is empty.
func (m *PageMapper) nextTable(tbl *tableEntries, idx int) *tableEntries {
	entry := tbl[idx]
	if entry&bitfield.Pack(bitfield.PageTableFlags{Present: true}) == 0 {
		frame := m.frames.NextFrame()
		asmutil.Bzero(unsafe.Pointer(m.physOffset+frame), pageSize)
		tbl[idx] = uint64(frame) | bitfield.Pack(bitfield.PageTableFlags{Present: true, Writable: true})
		return m.tableAt(frame)
	}
	return m.tableAt(bitfield.FrameAddr(entry))
}

// Map installs a single 4 KiB mapping from virt to frame with the given
// attributes, walking/creating intermediate tables as needed, then
// flushes the TLB entry for virt on the current CPU (§3 Page mapper
// invariant: the new mapping is visible on the current CPU immediately
// after Map returns).
func (m *PageMapper) Map(virt uintptr, frame uintptr, flags bitfield.PageTableFlags) {
	m.acquire()
	defer m.release()

	l4i, l3i, l2i, l1i := indices(virt)
	l4 := m.l4Table()
	l3 := m.nextTable(l4, l4i)
	l2 := m.nextTable(l3, l3i)
	l1 := m.nextTable(l2, l2i)

	present := l1[l1i]&bitfield.Pack(bitfield.PageTableFlags{Present: true}) != 0
	if present {
		kernelpanic.Fatal("memory: remapping an already-present page")
	}
	l1[l1i] = uint64(frame) | bitfield.Pack(flags)

	asmutil.Invlpg(uint64(virt))
}

// MapRange maps count consecutive pages starting at virt to count
// consecutive frames drawn from the frame source, one Map call per page.
func (m *PageMapper) MapRange(virt uintptr, count int, flags bitfield.PageTableFlags) {
	for i := 0; i < count; i++ {
		m.Map(virt+uintptr(i)*pageSize, m.frames.NextFrame(), flags)
	}
}

// MapFixed maps virt to a caller-chosen physical frame (used for MMIO
// windows and the low-memory trampoline page, where the physical address
// is dictated by hardware, not drawn from the frame source).
func (m *PageMapper) MapFixed(virt, phys uintptr, flags bitfield.PageTableFlags) {
	m.acquire()
	defer m.release()

	l4i, l3i, l2i, l1i := indices(virt)
	l4 := m.l4Table()
	l3 := m.nextTable(l4, l4i)
	l2 := m.nextTable(l3, l3i)
	l1 := m.nextTable(l2, l2i)

	l1[l1i] = uint64(phys) | bitfield.Pack(flags)
	asmutil.Invlpg(uint64(virt))
}
