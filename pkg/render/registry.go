package render

import (
	"context"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/indica/pkg/format"
	"github.com/rileyhilliard/indica/pkg/indicator"
)

// Handle identifies one registration. The zero Handle is never issued.
type Handle struct {
	id uint64
}

// IsZero reports whether h was never issued by a Registry.
func (h Handle) IsZero() bool {
	return h.id == 0
}

type entry struct {
	handle     Handle
	state      *indicator.State
	style      *format.Style
	removeHook func()
}

// Registry is the ordered set of indicators on screen. Insertion order is
// row order: the row of a handle is its index, so removing an entry moves
// every entry below it up one row.
//
// The registry lock is held only while the entry slice is read or changed,
// never while an indicator's own lock is held.
type Registry struct {
	mu       sync.Mutex
	entries  []*entry
	nextID   uint64
	renderer *lipgloss.Renderer
	changed  chan struct{} // closed and replaced on every change
}

// NewRegistry creates an empty registry whose row styles are resolved
// against r. A nil renderer uses the lipgloss default.
func NewRegistry(r *lipgloss.Renderer) *Registry {
	return &Registry{
		renderer: r,
		changed:  make(chan struct{}),
	}
}

// Register appends st as the last row and returns its handle.
func (r *Registry) Register(st *indicator.State) Handle {
	e := &entry{
		state: st,
		style: format.NewStyle(st.Config(), r.renderer),
	}
	e.removeHook = st.OnStatusChange(func(indicator.Status) {
		r.notify()
	})

	r.mu.Lock()
	r.nextID++
	e.handle = Handle{id: r.nextID}
	r.entries = append(r.entries, e)
	r.broadcastLocked()
	r.mu.Unlock()

	return e.handle
}

// Unregister removes the entry for h. Returns false when h is not registered.
func (r *Registry) Unregister(h Handle) bool {
	r.mu.Lock()
	idx := r.indexLocked(h)
	if idx < 0 {
		r.mu.Unlock()
		return false
	}
	e := r.entries[idx]
	r.entries = append(r.entries[:idx], r.entries[idx+1:]...)
	r.broadcastLocked()
	r.mu.Unlock()

	e.removeHook()
	return true
}

// Row returns the current row of h.
func (r *Registry) Row(h Handle) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLocked(h)
	return idx, idx >= 0
}

// State returns the indicator registered under h.
func (r *Registry) State(h Handle) (*indicator.State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := r.indexLocked(h)
	if idx < 0 {
		return nil, false
	}
	return r.entries[idx].state, true
}

// Len returns the number of registered indicators.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Handles returns the handles in row order.
func (r *Registry) Handles() []Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handle, len(r.entries))
	for i, e := range r.entries {
		out[i] = e.handle
	}
	return out
}

// AllCompleted reports whether every registered indicator is Completed or
// Stopped. An empty registry counts as completed.
func (r *Registry) AllCompleted() bool {
	for _, e := range r.copyEntries() {
		if !e.state.IsTerminal() {
			return false
		}
	}
	return true
}

// Wait blocks until AllCompleted is true or ctx is done.
func (r *Registry) Wait(ctx context.Context) error {
	for {
		r.mu.Lock()
		changed := r.changed
		r.mu.Unlock()

		if r.AllCompleted() {
			return nil
		}

		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// copyEntries returns the entries in row order. The entries themselves are
// shared; only the slice is copied.
func (r *Registry) copyEntries() []entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entry, len(r.entries))
	for i, e := range r.entries {
		out[i] = *e
	}
	return out
}

func (r *Registry) indexLocked(h Handle) int {
	if h.IsZero() {
		return -1
	}
	for i, e := range r.entries {
		if e.handle == h {
			return i
		}
	}
	return -1
}

func (r *Registry) notify() {
	r.mu.Lock()
	r.broadcastLocked()
	r.mu.Unlock()
}

func (r *Registry) broadcastLocked() {
	close(r.changed)
	r.changed = make(chan struct{})
}
