package streams

// ScancodeCapacity is the bounded queue depth between the keyboard ISR and
// the task that decodes scancodes into key events, matching the original
// kernel's ArrayQueue<u8, 100>.
const ScancodeCapacity = 100

// ScancodeStream is a single-producer (the keyboard ISR), single-consumer
// (the keyboard task) ring buffer. It never blocks: a full buffer drops
// the oldest byte's incoming replacement silently, since an ISR can never
// wait for room (§5 "ISR cannot allocate or block").
type ScancodeStream struct {
	buf        [ScancodeCapacity]uint8
	head, tail int
	count      int
	waker      Waker
}

// NewScancodeStream returns a ready-to-use stream with its waker armed.
func NewScancodeStream() *ScancodeStream {
	return &ScancodeStream{waker: *NewWaker()}
}

// Push is called from the keyboard ISR. It drops the byte if the queue is
// already full rather than overwrite, mirroring ArrayQueue::push's
// Result<(), T> contract: a dropped scancode is recoverable, corrupting
// the ring is not.
//
//go:nosplit
func (s *ScancodeStream) Push(b uint8) bool {
	if s.count == ScancodeCapacity {
		return false
	}
	s.buf[s.tail] = b
	s.tail = (s.tail + 1) % ScancodeCapacity
	s.count++
	s.waker.Wake()
	return true
}

// TryPop removes and returns the oldest scancode if any is queued.
func (s *ScancodeStream) TryPop() (uint8, bool) {
	if s.count == 0 {
		return 0, false
	}
	b := s.buf[s.head]
	s.head = (s.head + 1) % ScancodeCapacity
	s.count--
	return b, true
}

// Waker exposes the stream's waker so a Future can register interest
// before suspending.
func (s *ScancodeStream) Waker() *Waker { return &s.waker }
