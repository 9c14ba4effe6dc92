// Package heap implements the kernel's buddy allocator: the only source of
// dynamic memory once it is armed. The algorithm is a direct translation of
// the original kernel's fixed-size allocator (order range [5, 19), header
// written in-place at the start of a free block, eager coalescing on free),
// kept in the header-in-block, go:nosplit style `heap.go`/`page.go` use in
// the teacher kernel for anything reachable from boot or interrupt context.
package heap

import (
	"fmt"
	"unsafe"

	"cinder/internal/asmutil"
	"cinder/internal/kernelpanic"
)

const (
	// MinOrderInclusive is the smallest block order the allocator hands
	// out: 2^5 = 32 bytes, large enough to hold a node header.
	MinOrderInclusive = 5
	// MaxOrderExclusive bounds block size from above: 2^(19-1) = 256 KiB
	// is the largest single block the allocator ever carves.
	MaxOrderExclusive = 19
	listSize          = MaxOrderExclusive - MinOrderInclusive
	minSize           = 1 << MinOrderInclusive
)

// node is the free-list header. While a block is free, this struct lives
// at the very start of the block's own memory; once allocated the same
// bytes are handed to the caller, so nothing may read node fields through
// an allocated pointer.
type node struct {
	startAddr uintptr
	size      uintptr
	order     int // index into freeList, not the exponent
	next      *node
}

// Allocator is the kernel's global buddy allocator. It has no public
// fields: every mutation goes through Allocate/Free so the invariants in
// spec §4.1 hold without a caller being able to reach around them.
type Allocator struct {
	freeList [listSize]*node
	lock     uint32
	armed    bool
}

func orderIndex(size uintptr) int {
	order := 0
	for s := size; s > 1; s >>= 1 {
		order++
	}
	idx := order - MinOrderInclusive
	if idx < 0 || idx >= listSize {
		kernelpanic.Fatal(fmt.Sprintf("heap: order %d out of range for size %d", order, size))
	}
	return idx
}

// ClampSize rounds a requested allocation up to the next power of two and
// floors it at the minimum block size, exactly as the original allocator's
// get_clamped_size_from_layout does.
func ClampSize(size uintptr) uintptr {
	if size < minSize {
		return minSize
	}
	size--
	size |= size >> 1
	size |= size >> 2
	size |= size >> 4
	size |= size >> 8
	size |= size >> 16
	size |= size >> 32
	size++
	return size
}

// Init carves [start, start+size) into maximum-order blocks and pushes
// each onto the top-order free list, oldest-last (so the last block
// carved becomes the head, per spec §4.1). Init refuses to run twice.
//
//go:nosplit
func (a *Allocator) Init(start, size uintptr) {
	if a.armed {
		kernelpanic.Fatal("heap: double init")
	}
	blockSize := uintptr(1) << (MaxOrderExclusive - 1)
	count := size / blockSize
	var head *node
	for i := uintptr(0); i < count; i++ {
		addr := start + i*blockSize
		n := (*node)(unsafe.Pointer(addr))
		n.startAddr = addr
		n.size = blockSize
		n.order = listSize - 1
		n.next = head
		head = n
	}
	a.freeList[listSize-1] = head
	a.armed = true
}

func (a *Allocator) acquire() { asmutil.SpinUntilZero(&a.lock); a.lock = 1 }
func (a *Allocator) release() { a.lock = 0 }

// Allocate returns the address of a block at least `size` bytes, whose
// natural alignment satisfies any requested alignment up to the clamped
// block size; an align larger than the clamped size rounds the block up to
// ClampSize(align). It never returns 0: running out of memory is fatal
// (§4.1 step 4, §7).
func (a *Allocator) Allocate(size, align uintptr) uintptr {
	clamped := ClampSize(size)
	if align > clamped {
		clamped = ClampSize(align)
	}
	idx := orderIndex(clamped)

	a.acquire()
	defer a.release()

	if a.freeList[idx] != nil {
		n := a.freeList[idx]
		a.freeList[idx] = n.next
		a.validate(n)
		return n.startAddr
	}
	return a.splitDown(idx).startAddr
}

// splitDown finds the smallest non-empty list above idx, then repeatedly
// splits blocks down to idx, pushing each right half onto the free list
// one order below (§4.1 steps 2-3).
func (a *Allocator) splitDown(idx int) *node {
	src := idx + 1
	for src < listSize && a.freeList[src] == nil {
		src++
	}
	if src >= listSize {
		kernelpanic.Fatal("heap: out of memory")
	}

	n := a.freeList[src]
	a.freeList[src] = n.next
	a.validate(n)

	for order := src; order > idx; order-- {
		left, right := a.split(n)
		right.order = order - 1
		right.next = a.freeList[order-1]
		a.freeList[order-1] = right
		n = left
	}
	return n
}

// split halves a block in two, writing fresh headers at each half's start
// address (§4.1 step 3). It does not touch the free lists.
func (a *Allocator) split(n *node) (left, right *node) {
	half := n.size / 2
	l := (*node)(unsafe.Pointer(n.startAddr))
	l.startAddr = n.startAddr
	l.size = half
	l.next = nil

	r := (*node)(unsafe.Pointer(n.startAddr + half))
	r.startAddr = n.startAddr + half
	r.size = half
	r.next = nil
	return l, r
}

// Free returns a block of the given size to the allocator, coalescing
// eagerly with its buddy at every order where the buddy is free (§4.1 Free
// algorithm).
func (a *Allocator) Free(addr, size uintptr) {
	clamped := ClampSize(size)
	idx := orderIndex(clamped)

	a.acquire()
	defer a.release()
	a.free(addr, idx)
}

func (a *Allocator) free(addr uintptr, idx int) {
	size := uintptr(1) << (idx + MinOrderInclusive)
	if idx < listSize-1 {
		buddyAddr := addr ^ size
		if parent, found := a.unlink(idx, buddyAddr); found {
			_ = parent
			mergedAddr := addr
			if buddyAddr < addr {
				mergedAddr = buddyAddr
			}
			a.free(mergedAddr, idx+1)
			return
		}
	}

	n := (*node)(unsafe.Pointer(addr))
	n.startAddr = addr
	n.size = size
	n.order = idx
	n.next = a.freeList[idx]
	a.freeList[idx] = n
}

// unlink removes the node at wantAddr from free-list[idx], LIFO scan,
// returning whether it was found.
func (a *Allocator) unlink(idx int, wantAddr uintptr) (*node, bool) {
	var prev *node
	cur := a.freeList[idx]
	for cur != nil {
		if cur.startAddr == wantAddr {
			if prev == nil {
				a.freeList[idx] = cur.next
			} else {
				prev.next = cur.next
			}
			return cur, true
		}
		prev = cur
		cur = cur.next
	}
	return nil, false
}

// validate enforces the three checks the original allocator's
// check_pointer_safety makes on every node it touches: non-nil, the node's
// own start_addr field agrees with its address, and that address is
// aligned to the node's size.
func (a *Allocator) validate(n *node) {
	if n == nil {
		kernelpanic.Fatal("heap: nil free-list node")
	}
	addr := uintptr(unsafe.Pointer(n))
	if addr != n.startAddr {
		kernelpanic.Fatal("heap: node start_addr does not match its own address")
	}
	if addr%n.size != 0 {
		kernelpanic.Fatal("heap: free block misaligned for its own size")
	}
}

// FreeListLength reports how many blocks sit on the free list of the given
// order (an exponent, not a list index); the E1 end-to-end scenario uses it
// on the top order.
func (a *Allocator) FreeListLength(order int) int {
	idx := order - MinOrderInclusive
	n := 0
	for cur := a.freeList[idx]; cur != nil; cur = cur.next {
		n++
	}
	return n
}
