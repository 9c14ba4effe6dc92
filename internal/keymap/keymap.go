// Package keymap translates PS/2 scancode set 1 bytes into the runes the
// terminal application needs. It covers exactly the keys a user needs to
// type the commands §6 lists (letters, digits, space, enter, backspace);
// anything else decodes as "not supported", matching the original
// terminal's on_key_pressed catch-all (`DecodedKey::RawKey(_) => warn!`).
// This is the minimal slice of pc_keyboard's scancode table the terminal
// actually exercises, not a general keyboard-layout implementation.
package keymap

// Enter and Backspace are reported as their ASCII control codes, the same
// values the original terminal matches on ('\n' and '\u{8}').
const (
	Enter     = '\n'
	Backspace = '\b'
)

// set1 maps a US QWERTY scancode-set-1 make code to its unshifted ASCII
// rune. Only printable keys plus Enter/Backspace/Space are populated;
// everything else (function keys, modifiers, arrows) is left absent.
var set1 = map[uint8]rune{
	0x02: '1', 0x03: '2', 0x04: '3', 0x05: '4', 0x06: '5',
	0x07: '6', 0x08: '7', 0x09: '8', 0x0A: '9', 0x0B: '0',
	0x0C: '-', 0x0D: '=',
	0x0E: Backspace,
	0x10: 'q', 0x11: 'w', 0x12: 'e', 0x13: 'r', 0x14: 't',
	0x15: 'y', 0x16: 'u', 0x17: 'i', 0x18: 'o', 0x19: 'p',
	0x1C: Enter,
	0x1E: 'a', 0x1F: 's', 0x20: 'd', 0x21: 'f', 0x22: 'g',
	0x23: 'h', 0x24: 'j', 0x25: 'k', 0x26: 'l',
	0x2C: 'z', 0x2D: 'x', 0x2E: 'c', 0x2F: 'v', 0x30: 'b',
	0x31: 'n', 0x32: 'm',
	0x39: ' ',
}

const releaseBit = 0x80

// Decode interprets one scancode. pressed is false for a key-release
// byte (top bit set, §4.3's keyboard ISR forwards both press and release
// codes — E3 delivers 0x1E then 0x9E for press/release of 'a'); ok is
// false for any scancode this minimal table doesn't cover.
func Decode(scancode uint8) (r rune, pressed bool, ok bool) {
	pressed = scancode&releaseBit == 0
	code := scancode &^ releaseBit
	r, ok = set1[code]
	return r, pressed, ok
}
