// Package terminal is cinder's one in-kernel application: a line-based
// command terminal (§6 "Terminal CLI"), grounded directly on the original
// kernel's terminal/src/lib.rs + commands.rs. It owns the command table,
// the accumulated input line, and the `logs` toggle, and draws its
// command bar and cursor through internal/graphics — the named external
// collaborator (§1) is the font rasterizer that would turn typed
// characters into visible glyphs; this package draws only the cursor bar
// and background cells, the minimal drawing it can do without that
// rasterizer.
package terminal

import (
	"cinder/internal/graphics"
	"cinder/internal/keymap"
	"cinder/internal/streams"
)

// Cell colors, ported from the original's CURSOR/TEXT/BACKGROUND_HISTORY
// /BACKGROUND_COMMAND constants.
var (
	cursorColor  = graphics.Color{R: 252, G: 230, B: 169}
	textColor    = graphics.Color{R: 169, G: 234, B: 252}
	historyBg    = graphics.Color{R: 20, G: 20, B: 20}
	commandBarBg = graphics.Color{R: 40, G: 40, B: 40}
)

const (
	charWidth  = 8
	charHeight = 16

	// logHistoryDepth bounds how many past log lines Terminal retains
	// while the `logs` toggle is on; unrelated to streams.LogCapacity,
	// which bounds the producer-consumer queue upstream of this history.
	logHistoryDepth = 64
)

// Terminal is the application layer's single App implementation: it
// receives key, log, and (eventually) time callbacks from the executor's
// tasks and draws into the framebuffer via Canvas.
type Terminal struct {
	canvas *graphics.Canvas

	currentInput string
	cursorCol    int
	logs         bool

	commands map[string]commandFunc

	history    [logHistoryDepth]streams.LogRecord
	historyLen int
}

// New returns a Terminal ready to draw onto canvas once Init runs.
func New(canvas *graphics.Canvas) *Terminal {
	return &Terminal{
		canvas:   canvas,
		logs:     true,
		commands: initCommands(),
	}
}

// Init paints the initial screen: the history area, a blank command bar
// across the window's width, and the cursor at column 0 — the same
// sequence os::App::init's default implementation runs.
func (t *Terminal) Init() {
	width, height := t.canvas.Dimensions()
	t.canvas.FillRect(0, 0, width, height, historyBg)

	cols := width / charWidth
	for x := 0; x < cols; x++ {
		t.canvas.FillRect(x*charWidth, 0, charWidth, charHeight, commandBarBg)
	}
	t.drawCursor()
}

func (t *Terminal) drawCursor() {
	t.canvas.DrawCursorGlyph(t.cursorCol, 0, charWidth, charHeight, cursorColor, commandBarBg)
}

func (t *Terminal) clearCursor() {
	t.canvas.FillRect(t.cursorCol*charWidth, 0, charWidth, charHeight, commandBarBg)
}

// OnScancode decodes one scancode and, for a recognized key press,
// updates the input line and redraws the command bar, mirroring
// on_key_pressed's Enter/Backspace/printable-rune cases. Unrecognized
// scancodes and key releases are ignored, the Go analogue of the
// original's `RawKey(_) => warn!` catch-all (omitted here since an
// unsupported scancode is routine, not an error worth a log line on
// every untracked key).
func (t *Terminal) OnScancode(code uint8) {
	r, pressed, ok := keymap.Decode(code)
	if !ok || !pressed {
		return
	}

	switch r {
	case keymap.Enter:
		t.onEnter()
	case keymap.Backspace:
		t.onBackspace()
	default:
		t.onPrintable(r)
	}
}

func (t *Terminal) onEnter() {
	t.parseAndRunCurrentCommand()

	for x := 0; x <= t.cursorCol; x++ {
		t.canvas.FillRect(x*charWidth, 0, charWidth, charHeight, commandBarBg)
	}
	t.currentInput = ""
	t.cursorCol = 0
	t.drawCursor()
}

func (t *Terminal) onBackspace() {
	if t.cursorCol == 0 {
		return
	}
	t.clearCursor()
	t.cursorCol--
	t.currentInput = t.currentInput[:len(t.currentInput)-1]
	t.canvas.FillRect(t.cursorCol*charWidth, 0, charWidth, charHeight, commandBarBg)
	t.drawCursor()
}

func (t *Terminal) onPrintable(r rune) {
	t.clearCursor()
	// Drawing the glyph itself is the font rasterizer's job (§1 Out of
	// scope); cinder marks the cell as occupied text-colored space so the
	// cursor's advance is visually correct even without glyph rendering.
	t.canvas.FillRect(t.cursorCol*charWidth, 0, charWidth, charHeight, textColor)
	t.currentInput += string(r)
	t.cursorCol++
	t.drawCursor()
}

// OnLog records rec into the bounded history ring when logging is
// enabled (toggled by the `logs` command, §6), dropping the oldest entry
// once full. Rendering history text onto the framebuffer is, like the
// command bar's glyphs, the font rasterizer's job; cinder retains the
// lines so that collaborator has something to read.
func (t *Terminal) OnLog(rec streams.LogRecord) {
	if !t.logs {
		return
	}
	if t.historyLen < logHistoryDepth {
		t.history[t.historyLen] = rec
		t.historyLen++
		return
	}
	copy(t.history[:], t.history[1:])
	t.history[logHistoryDepth-1] = rec
}

// LogsEnabled reports whether the `logs` toggle is currently on.
func (t *Terminal) LogsEnabled() bool { return t.logs }
