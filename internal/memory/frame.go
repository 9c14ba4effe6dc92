// Package memory owns the two leaf subsystems everything else is built
// on: a physical frame source drawn from the bootloader's memory map, and
// a page mapper over the bootloader-installed level-4 table. Grounded on
// the teacher kernel's page.go (ATAG-walk-style bounded iteration, free
// list headers living in the page metadata itself) but replaces the
// ARM MMU/ATAG model with x86_64 paging and a firmware memory-region map.
package memory

import (
	"cinder/internal/asmutil"
	"cinder/internal/bootinfo"
	"cinder/internal/kernelpanic"
)

const frameSize = 4096

// FrameSource walks the firmware memory map and hands out 4 KiB physical
// frames in order. Per §3: the cursor only advances, each frame is
// returned at most once, and only Usable regions are considered.
type FrameSource struct {
	regions []bootinfo.MemoryRegion
	cursor  uint64 // index of the next frame to hand out, across all usable regions
	lock    uint32
}

// NewFrameSource builds a source over the given memory map. Regions are
// taken in the order supplied; frame numbering is simply the concatenation
// of each usable region's 4 KiB-aligned frames in region order.
func NewFrameSource(regions []bootinfo.MemoryRegion) *FrameSource {
	return &FrameSource{regions: regions}
}

func (f *FrameSource) acquire() { asmutil.SpinUntilZero(&f.lock); f.lock = 1 }
func (f *FrameSource) release() { f.lock = 0 }

// framesInRegion returns how many whole 4 KiB frames fit in r, ignoring
// any partial trailing frame (the original kernel also only hands back
// whole-frame ranges).
func framesInRegion(r bootinfo.MemoryRegion) uint64 {
	base := alignUp(r.Base, frameSize)
	end := r.Base + r.Length
	if base >= end {
		return 0
	}
	return uint64((end - base) / frameSize)
}

func alignUp(v, align uintptr) uintptr {
	return (v + align - 1) &^ (align - 1)
}

// NextFrame returns the next unused physical frame address, or panics if
// the source is exhausted (§7 Fatal-panic: "exhausted frame source").
// The cursor advances unconditionally, matching the "never reuses frames"
// invariant in §4.2 even when a caller discards the returned frame.
func (f *FrameSource) NextFrame() uintptr {
	f.acquire()
	defer f.release()

	remaining := f.cursor
	for _, r := range f.regions {
		if r.Kind != bootinfo.Usable {
			continue
		}
		count := framesInRegion(r)
		if remaining < count {
			base := alignUp(r.Base, frameSize)
			addr := base + uintptr(remaining)*frameSize
			f.cursor++
			return addr
		}
		remaining -= count
	}
	kernelpanic.Fatal("memory: frame source exhausted")
	return 0
}
