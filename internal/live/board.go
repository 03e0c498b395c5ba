package live

import (
	"sync"

	"github.com/angelmondragon/yoypulse/internal/pulse"
)

// Board holds what the dashboard renders: the latest snapshot, the sample
// history and the most recent refresh error.
type Board struct {
	history *History

	mu        sync.RWMutex
	latest    *pulse.Snapshot
	lastError string
}

func NewBoard(historySize int) *Board {
	return &Board{history: NewHistory(historySize)}
}

// View is a consistent copy of the board.
type View struct {
	Snapshot  *pulse.Snapshot `json:"snapshot"`
	Current   Sample          `json:"current"`
	History   Series          `json:"history"`
	LastError string          `json:"last_error,omitempty"`
}

func (b *Board) record(snap *pulse.Snapshot, sample Sample) {
	b.history.Append(sample)
	b.mu.Lock()
	defer b.mu.Unlock()
	copied := *snap
	b.latest = &copied
	b.lastError = ""
}

func (b *Board) fail(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastError = err.Error()
}

func (b *Board) state() boardState {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return boardState{Snapshot: b.latest, Samples: b.history.Samples(), LastError: b.lastError}
}

func (b *Board) restore(st boardState) {
	b.history.Replace(st.Samples)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.latest = st.Snapshot
	b.lastError = st.LastError
}

func (b *Board) View() View {
	b.mu.RLock()
	var snap *pulse.Snapshot
	if b.latest != nil {
		copied := *b.latest
		snap = &copied
	}
	lastError := b.lastError
	b.mu.RUnlock()

	current, _ := b.history.Last()
	return View{
		Snapshot:  snap,
		Current:   current,
		History:   b.history.Series(),
		LastError: lastError,
	}
}
