// Package mode defines the input modes of the file manager.
//
// A mode partitions the key binding namespace: a sequence bound in normal
// mode has no effect in the command line. The set of modes is fixed when the
// binding store is built, and every mode carries flags telling the
// dispatcher how to read input:
//
//   - UsesCount: "12j" is j with count 12.
//   - UsesRegs: `"ayy` selects register a before yy.
//   - UsesInput: keys with no binding go to the mode's default handler
//     (the command line inserts them as text).
//
// Manager tracks which mode is active. Switching notifies the registered
// callbacks outside of the manager's lock so a callback may query it.
package mode
