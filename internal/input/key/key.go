package key

import "fmt"

// Key codes for keys that have no character representation.
//
// Printable characters and control bytes are fed to the dispatcher as their
// own code points. Everything else (arrows, function keys, ...) uses codes
// above the Unicode range so the two sets can never collide.
const (
	// specialBase is the first code past the Unicode range.
	specialBase rune = 0x110000

	KeyHome rune = specialBase + iota
	KeyEnd
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyBackspace
	KeyDelete
	KeyInsert
	KeyPageUp
	KeyPageDown
	KeyBacktab

	// KeyF0 is the base of the function key range; use F(n) for F-n.
	KeyF0
)

// MaxFunctionKey is the highest function key number with its own code.
const MaxFunctionKey = 63

// Control characters that show up in bindings often enough to be named.
const (
	KeyCtrlC  rune = 0x03
	KeyTab    rune = '\t'
	KeyEnter  rune = '\r'
	KeyEscape rune = 0x1b
	KeyDel    rune = 0x7f
	KeySpace  rune = ' '
)

// F returns the code of function key n (0..MaxFunctionKey).
func F(n int) rune {
	if n < 0 || n > MaxFunctionKey {
		panic(fmt.Sprintf("function key out of range: %d", n))
	}
	return KeyF0 + rune(n)
}

// IsSpecial returns true if code is an application key code rather than a
// character.
func IsSpecial(code rune) bool {
	return code >= specialBase && code <= KeyF0+MaxFunctionKey
}

// IsFunctionKey returns true if code is one of F0..F63.
func IsFunctionKey(code rune) bool {
	return code >= KeyF0 && code <= KeyF0+MaxFunctionKey
}

// IsDigit returns true if code is an ASCII digit.
func IsDigit(code rune) bool {
	return code >= '0' && code <= '9'
}

// specialNames maps application key codes to their notation names.
var specialNames = map[rune]string{
	KeyHome:      "home",
	KeyEnd:       "end",
	KeyLeft:      "left",
	KeyRight:     "right",
	KeyUp:        "up",
	KeyDown:      "down",
	KeyBackspace: "bs",
	KeyDelete:    "delete",
	KeyInsert:    "insert",
	KeyPageUp:    "pageup",
	KeyPageDown:  "pagedown",
	KeyBacktab:   "s-tab",
}

// Name returns a short human-readable name for a single code.
// Characters are returned as themselves.
func Name(code rune) string {
	if name, ok := specialNames[code]; ok {
		return name
	}
	if IsFunctionKey(code) {
		return fmt.Sprintf("f%d", code-KeyF0)
	}
	if IsSpecial(code) || code > 0x10ffff || code < 0 {
		return fmt.Sprintf("key(%#x)", code)
	}
	return string(code)
}
