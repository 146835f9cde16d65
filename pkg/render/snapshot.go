package render

import (
	"time"

	"github.com/rileyhilliard/indica/pkg/format"
	"github.com/rileyhilliard/indica/pkg/indicator"
)

// Row is one registry entry as captured for a single render pass.
type Row struct {
	Handle Handle
	State  indicator.Snapshot
	Style  *format.Style
}

// Line renders the row at the given width.
func (r Row) Line(width int) string {
	return r.Style.Line(r.State, width)
}

// Snapshot is a read-only copy of every registered row plus the terminal
// size, taken once per tick and discarded after it is drawn.
type Snapshot struct {
	Rows   []Row
	Width  int
	Height int
	Taken  time.Time
}

// Snapshot copies the registry. The registry lock covers only the slice
// copy; each indicator is then read under its own lock.
func (r *Registry) Snapshot(now time.Time, width, height int) Snapshot {
	return snapshotOf(r.copyEntries(), now, width, height)
}

func snapshotOf(entries []entry, now time.Time, width, height int) Snapshot {
	rows := make([]Row, len(entries))
	for i, e := range entries {
		rows[i] = Row{
			Handle: e.handle,
			State:  e.state.Snapshot(now),
			Style:  e.style,
		}
	}
	return Snapshot{Rows: rows, Width: width, Height: height, Taken: now}
}

// Capacity is the number of lines that fit on screen: one less than the
// terminal height, so the cursor row below the block never scrolls.
func (s Snapshot) Capacity() int {
	if s.Height-1 < 1 {
		return 1
	}
	return s.Height - 1
}

// Visible returns the rows that are drawn and how many are summarized.
// When the rows do not fit, the first Capacity()-1 are drawn and the last
// line becomes the "+N more" summary.
func (s Snapshot) Visible() (rows []Row, hidden int) {
	capacity := s.Capacity()
	if len(s.Rows) <= capacity {
		return s.Rows, 0
	}
	shown := capacity - 1
	return s.Rows[:shown], len(s.Rows) - shown
}

// Lines formats the visible rows, plus the summary line when rows are hidden.
func (s Snapshot) Lines() []string {
	rows, hidden := s.Visible()
	lines := make([]string, 0, len(rows)+1)
	for _, row := range rows {
		lines = append(lines, row.Line(s.Width))
	}
	if hidden > 0 {
		lines = append(lines, format.Summary(hidden, s.Width))
	}
	return lines
}
