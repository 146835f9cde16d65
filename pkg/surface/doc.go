// Package surface draws a block of rows at a fixed position on a terminal.
//
// A Surface remembers how many rows it drew. Each Redraw moves the cursor
// back to the first of them, clears and rewrites every row, and leaves the
// cursor below the block, so output printed before the block stays intact.
// When the writer is not a terminal the surface only supports Println, which
// strips escape sequences.
package surface
