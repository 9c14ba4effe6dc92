package terminal

import (
	"testing"
	"unsafe"

	"cinder/internal/bootinfo"
	"cinder/internal/graphics"
	"cinder/internal/streams"
)

func newTestTerminal(t *testing.T) *Terminal {
	t.Helper()
	width, height := 320, 32
	buf := make([]byte, width*height*4)
	t.Cleanup(func() { _ = buf })
	fb := bootinfo.Framebuffer{
		Addr:          uintptr(unsafe.Pointer(&buf[0])),
		Width:         width,
		Height:        height,
		Stride:        width,
		BytesPerPixel: 4,
		Format:        bootinfo.PixelBGR,
	}
	term := New(graphics.NewCanvas(fb))
	term.Init()
	return term
}

// TestKeyboardPipelineAdvancesCursor is scenario E3: pressing then
// releasing 'a' (scancodes 0x1E, 0x9E) accepts the character and advances
// the cursor by one cell; the release code is a no-op.
func TestKeyboardPipelineAdvancesCursor(t *testing.T) {
	term := newTestTerminal(t)

	term.OnScancode(0x1E) // press 'a'
	if term.currentInput != "a" || term.cursorCol != 1 {
		t.Fatalf("after press: input=%q cursorCol=%d, want \"a\", 1", term.currentInput, term.cursorCol)
	}

	term.OnScancode(0x9E) // release 'a'
	if term.currentInput != "a" || term.cursorCol != 1 {
		t.Fatalf("release scancode changed state: input=%q cursorCol=%d", term.currentInput, term.cursorCol)
	}
}

func TestBackspaceRemovesLastCharacter(t *testing.T) {
	term := newTestTerminal(t)
	term.OnScancode(0x1E) // 'a'
	term.OnScancode(0x1F) // 's'
	term.OnScancode(0x0E) // backspace

	if term.currentInput != "a" || term.cursorCol != 1 {
		t.Fatalf("after backspace: input=%q cursorCol=%d, want \"a\", 1", term.currentInput, term.cursorCol)
	}
}

func TestBackspaceAtStartIsNoop(t *testing.T) {
	term := newTestTerminal(t)
	term.OnScancode(0x0E) // backspace on empty line
	if term.currentInput != "" || term.cursorCol != 0 {
		t.Fatalf("backspace on empty line mutated state: input=%q cursorCol=%d", term.currentInput, term.cursorCol)
	}
}

// TestLogsCommandTogglesFlag is half of scenario E5: "logs false\n" sets
// Terminal's logs flag to false.
func TestLogsCommandTogglesFlag(t *testing.T) {
	term := newTestTerminal(t)
	if !term.LogsEnabled() {
		t.Fatalf("logs should default to enabled")
	}

	typeLine(term, "logs false")
	if term.LogsEnabled() {
		t.Fatalf("LogsEnabled() = true after \"logs false\", want false")
	}

	typeLine(term, "logs true")
	if !term.LogsEnabled() {
		t.Fatalf("LogsEnabled() = false after \"logs true\", want true")
	}
}

func TestLogsCommandUnparseableArgDefaults(t *testing.T) {
	term := newTestTerminal(t)
	term.logs = true
	typeLine(term, "logs notabool")
	if term.LogsEnabled() {
		t.Fatalf("unparseable bool should fall back to the zero value (false)")
	}
}

func TestUnknownCommandDoesNotPanic(t *testing.T) {
	term := newTestTerminal(t)
	typeLine(term, "frobnicate")
	// No observable state change is asserted beyond "it doesn't crash";
	// §6 only requires the known command set be printed via warn!.
}

// TestPoweroffInvokesShutdown is the other half of E5: "poweroff\n"
// triggers the QEMU exit path. shutdown is swapped out for the duration
// of the test so it never executes the privileged OUT instruction
// qemuexit.Exit issues.
func TestPoweroffInvokesShutdown(t *testing.T) {
	term := newTestTerminal(t)

	prev := shutdown
	called := false
	shutdown = func() { called = true }
	defer func() { shutdown = prev }()

	typeLine(term, "poweroff")

	if !called {
		t.Fatalf("poweroff command never invoked shutdown")
	}
}

// TestLogHistoryGatedByLogsFlag verifies OnLog only retains records while
// logging is enabled.
func TestLogHistoryGatedByLogsFlag(t *testing.T) {
	term := newTestTerminal(t)
	term.logs = false
	term.OnLog(streams.LogRecord{Len: 3})
	if term.historyLen != 0 {
		t.Fatalf("historyLen = %d with logs disabled, want 0", term.historyLen)
	}

	term.logs = true
	term.OnLog(streams.LogRecord{Len: 3})
	if term.historyLen != 1 {
		t.Fatalf("historyLen = %d with logs enabled, want 1", term.historyLen)
	}
}

// letterScancodes maps a subset of scancode-set-1 make codes for the letters
// this package's tests need to type full command lines.
var letterScancodes = map[rune]uint8{
	'a': 0x1E, 'b': 0x30, 'c': 0x2E, 'd': 0x20, 'e': 0x12,
	'f': 0x21, 'g': 0x22, 'i': 0x17, 'l': 0x26, 'n': 0x31,
	'o': 0x18, 'p': 0x19, 'r': 0x13, 's': 0x1F, 't': 0x14,
	'u': 0x16, 'w': 0x11,
	' ': 0x39,
}

func typeLine(term *Terminal, line string) {
	for _, r := range line {
		code, ok := letterScancodes[r]
		if !ok {
			panic("typeLine: no scancode mapped for " + string(r))
		}
		term.OnScancode(code)
	}
	term.OnScancode(0x1C) // Enter
}
