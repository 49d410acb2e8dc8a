// Package vim holds the vi-style grammar rules shared by the key
// dispatcher: numeric count prefixes and register names.
//
// A count is a run of decimal digits that starts with 1-9:
//
//	"12j"  count 12, then j
//	"0"    not a count, the key 0
//	"10j"  count 10; 0 continues a run that has started
//
// Counts saturate at MaxCount instead of overflowing. When a count is typed
// both before an action and before its selector ("2d3j") the two multiply.
package vim
