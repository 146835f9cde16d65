// Package format turns indicator snapshots into terminal lines.
//
// A Style is resolved once per indicator from its Config and a lipgloss
// renderer. Line renders a snapshot at an exact column width for in-place
// redraws; Plain renders it unpadded for append-only output.
package format
