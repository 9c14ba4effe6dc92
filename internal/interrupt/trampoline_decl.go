package interrupt

// These return the address of the matching assembly entry point in
// isr_amd64.s; the IDT gate descriptor is built from that address.

//go:noescape
func breakpointTrampoline() uintptr

//go:noescape
func pageFaultTrampoline() uintptr

//go:noescape
func doubleFaultTrampoline() uintptr

//go:noescape
func timerTrampoline() uintptr

//go:noescape
func keyboardTrampoline() uintptr
