package session

import (
	"sync"

	"lunch-menu/internal/menu"
)

// FinderPhase is the visible stage of the single-day finder.
type FinderPhase string

const (
	Idle      FinderPhase = "idle"
	Searching FinderPhase = "loading"
	Found     FinderPhase = "result-shown"
)

// FinderState tracks the finder's phase and its latest result. Each search
// overwrites the previous result.
type FinderState struct {
	mu     sync.Mutex
	phase  FinderPhase
	result *menu.MenuItem
	seq    uint64
}

// NewFinderState returns an idle finder.
func NewFinderState() *FinderState {
	return &FinderState{phase: Idle}
}

// Begin starts a search and returns its sequence number.
func (f *FinderState) Begin() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.phase = Searching
	return f.seq
}

// Resolve stores item as the result of search seq. It reports false, and
// changes nothing, when a newer search has started since.
func (f *FinderState) Resolve(seq uint64, item menu.MenuItem) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq {
		return false
	}
	f.result = &item
	f.phase = Found
	return true
}

// Fail ends search seq without a result. The previous result, if any,
// stays on screen.
func (f *FinderState) Fail(seq uint64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if seq != f.seq {
		return false
	}
	if f.result != nil {
		f.phase = Found
	} else {
		f.phase = Idle
	}
	return true
}

// Phase returns the current phase.
func (f *FinderState) Phase() FinderPhase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Result returns a copy of the latest result.
func (f *FinderState) Result() (menu.MenuItem, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.result == nil {
		return menu.MenuItem{}, false
	}
	return *f.result, true
}
