package memory

import (
	"testing"

	"cinder/internal/bootinfo"
)

// TestFrameSourceUniqueness is property 4 from §8: two successive calls
// never return the same frame address.
func TestFrameSourceUniqueness(t *testing.T) {
	regions := []bootinfo.MemoryRegion{
		{Base: 0x100000, Length: 0x10000, Kind: bootinfo.Usable},
		{Base: 0x200000, Length: 0x4000, Kind: bootinfo.Reserved},
		{Base: 0x300000, Length: 0x8000, Kind: bootinfo.Usable},
	}
	fs := NewFrameSource(regions)

	seen := make(map[uintptr]bool)
	var prev uintptr
	for i := 0; i < 24; i++ { // 16 + 8 usable frames: every frame once
		f := fs.NextFrame()
		if f%frameSize != 0 {
			t.Fatalf("frame %#x is not 4 KiB aligned", f)
		}
		if seen[f] {
			t.Fatalf("frame %#x returned twice", f)
		}
		seen[f] = true
		if i > 0 && f == prev {
			t.Fatalf("successive calls returned the same frame %#x", f)
		}
		prev = f
	}
}

func TestFrameSourceSkipsReservedRegions(t *testing.T) {
	regions := []bootinfo.MemoryRegion{
		{Base: 0x0, Length: 0x1000, Kind: bootinfo.Reserved},
		{Base: 0x1000, Length: 0x1000, Kind: bootinfo.Usable},
	}
	fs := NewFrameSource(regions)
	if got := fs.NextFrame(); got != 0x1000 {
		t.Fatalf("NextFrame() = %#x, want 0x1000 (reserved region skipped)", got)
	}
}
