// Package keymap stores the key bindings of every mode.
//
// # Origins
//
// Each mode holds three layers of bindings:
//
//   - builtin: compiled in at startup and never removed.
//   - user: added from configuration; usually a remap whose right-hand side
//     is matched again as if it had been typed.
//   - foreign: registered by plugins.
//
// When several layers bind the same keys the foreign binding runs, then the
// user one, then the builtin one. A foreign binding never replaces a user
// binding: removing the foreign binding makes the user binding effective
// again. Foreign bindings may not collide with builtins at all, not even
// as a prefix, so plugins cannot change how builtin key grammar is read.
//
// # Namespaces
//
// Actions and selectors live in separate namespaces. A selector ("j", "gg")
// picks the entries an action works on and only appears after an action
// that asks for one ("d" in "d3j").
//
// # Remaps
//
// AddUser checks the remap graph of the mode before accepting a mapping.
// A mapping that lets a chain of remaps reach itself is refused with
// ErrRemapCycle:
//
//	store.AddUser("normal", key.Seq("A"), key.Seq("B"), 0) // ok
//	store.AddUser("normal", key.Seq("B"), key.Seq("gg"), 0) // ok
//	store.AddUser("normal", key.Seq("gg"), key.Seq("A"), 0) // ErrRemapCycle
//
// # Files
//
// Loader reads user mappings from YAML or TOML keymap files. Keys are
// written in bracket notation and parsed with a key.Translator.
package keymap
