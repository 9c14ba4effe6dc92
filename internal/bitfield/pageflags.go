// Package bitfield packs small structs of flags into machine words, the
// same role `mazarin/bitfield` plays in the teacher repo (there: page
// allocator flags; here: x86_64 page-table entry flags).
package bitfield

// PageTableFlags mirrors the low bits of an x86_64 page-table entry that
// this kernel actually sets. Every mapper.Map call builds one of these and
// packs it with Pack before writing the entry.
type PageTableFlags struct {
	Present   bool
	Writable  bool
	NoExecute bool
	NoCache   bool
	Huge      bool
}

const (
	flagPresent   = 1 << 0
	flagWritable  = 1 << 1
	flagNoCache   = 1 << 4
	flagHuge      = 1 << 7
	flagNoExecute = 1 << 63
)

// Pack produces the bit pattern to OR into a page-table entry's low/high
// halves (NoExecute lives in bit 63, so the result is a full uint64).
func Pack(f PageTableFlags) uint64 {
	var v uint64
	if f.Present {
		v |= flagPresent
	}
	if f.Writable {
		v |= flagWritable
	}
	if f.NoCache {
		v |= flagNoCache
	}
	if f.Huge {
		v |= flagHuge
	}
	if f.NoExecute {
		v |= flagNoExecute
	}
	return v
}

// Unpack is Pack's inverse, used by diagnostics that print an existing
// entry's flags.
func Unpack(raw uint64) PageTableFlags {
	return PageTableFlags{
		Present:   raw&flagPresent != 0,
		Writable:  raw&flagWritable != 0,
		NoCache:   raw&flagNoCache != 0,
		Huge:      raw&flagHuge != 0,
		NoExecute: raw&flagNoExecute != 0,
	}
}

// AddressMask isolates the physical frame address out of a page-table
// entry, excluding the flag bits on both ends.
const AddressMask = 0x000f_ffff_ffff_f000

// FrameAddr extracts the physical address a page-table entry points at.
func FrameAddr(entry uint64) uintptr {
	return uintptr(entry & AddressMask)
}
