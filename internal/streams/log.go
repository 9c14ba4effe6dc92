package streams

// LogRecordSize matches the 80-byte line truncation logger.rs applies
// before pushing onto LOG_QUE; a fixed-size array keeps the whole record
// on the stack, so pushing from an ISR never allocates.
const LogRecordSize = 80

// LogCapacity is the depth of the bounded log queue the terminal's log
// task drains, mirroring ArrayQueue<[u8; 80], 32>.
const LogCapacity = 32

// LogRecord is one formatted log line, truncated to LogRecordSize bytes;
// klog's records keep the trailing newline when it fits.
type LogRecord struct {
	Bytes [LogRecordSize]byte
	Len   int
}

// LogStream is the bounded queue between klog (producer, may run in
// interrupt or task context) and the terminal's log task (consumer).
type LogStream struct {
	buf        [LogCapacity]LogRecord
	head, tail int
	count      int
	waker      Waker
}

func NewLogStream() *LogStream {
	return &LogStream{waker: *NewWaker()}
}

// Push enqueues rec and reports whether there was room. A full queue
// rejects the incoming record and leaves the existing contents untouched
// (Soft-drop, spec §5/§7): the caller is responsible for surfacing the
// drop, since LogStream itself has no sink to write a notice to.
//
//go:nosplit
func (s *LogStream) Push(rec LogRecord) bool {
	if s.count == LogCapacity {
		return false
	}
	s.buf[s.tail] = rec
	s.tail = (s.tail + 1) % LogCapacity
	s.count++
	s.waker.Wake()
	return true
}

func (s *LogStream) TryPop() (LogRecord, bool) {
	if s.count == 0 {
		return LogRecord{}, false
	}
	rec := s.buf[s.head]
	s.head = (s.head + 1) % LogCapacity
	s.count--
	return rec, true
}

func (s *LogStream) Waker() *Waker { return &s.waker }
