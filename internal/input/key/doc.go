// Package key provides key codes, key sequences and the bracket-notation
// translator used when reading configuration.
//
// The dispatcher works on raw key codes only:
//
//   - Characters and control bytes are their own code points ('j', 0x17 for Ctrl-W).
//   - Keys with no character form (arrows, <home>, function keys) use the
//     application codes declared in this package, above the Unicode range.
//   - Sequence is an ordered list of codes, compared code by code.
//
// # Notation
//
// Configuration text spells keys in bracket notation:
//
//	<c-w>l      Ctrl-W followed by l
//	<a-x>       Alt-x (escape followed by x)
//	<space>     space
//	<f5>        function key 5 (extended tables only)
//
// A Translator turns such text into a Sequence and back. Unknown bracket runs
// are kept literally, so "<foo>" is the five codes '<','f','o','o','>'.
package key
