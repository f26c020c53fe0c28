package session

import (
	"fmt"
	"maps"
	"sync"

	"lunch-menu/internal/menu"
)

// Operation names a kind of backend request for fencing.
type Operation string

const (
	OpScrape   Operation = "scrape"
	OpCalendar Operation = "calendar"
	OpPDF      Operation = "pdf"
	OpEmail    Operation = "email"
)

// Ticket identifies one dispatched request. A response is applied only while
// its ticket is still current.
type Ticket struct {
	Op    Operation
	Epoch uint64
	Seq   uint64
	// Week and Result count the scrapes and calendars applied before the
	// request was sent.
	Week   uint64
	Result uint64
}

// State is the data collected by the generator. The zero value is the state
// after a load or a "new menu".
type State struct {
	MenuData    menu.WeekMenu `json:"menu_data,omitempty"`
	WeekID      string        `json:"week_id,omitempty"`
	WeekLabel   string        `json:"week_label,omitempty"`
	CalendarURL string        `json:"calendar_url,omitempty"`
	PDFURL      string        `json:"pdf_url,omitempty"`
}

// HasMenu reports whether a scraped week is available.
func (s State) HasMenu() bool {
	return s.MenuData != nil
}

// HasCalendar reports whether a calendar has been generated.
func (s State) HasCalendar() bool {
	return s.CalendarURL != ""
}

// StepHook is called once for every actual step change.
type StepHook func(from, to Step)

// ViewState is the generator's step plus its collected State. It is safe for
// concurrent use. Hooks run outside the lock.
type ViewState struct {
	mu     sync.Mutex
	step   Step
	state  State
	epoch  uint64
	seqs   map[Operation]uint64
	week   uint64
	result uint64
	reveal Step
	onStep StepHook
}

// NewViewState returns a ViewState at the initial step. onStep may be nil.
func NewViewState(onStep StepHook) *ViewState {
	return &ViewState{
		step:   Initial,
		seqs:   make(map[Operation]uint64),
		onStep: onStep,
	}
}

// Step returns the current step.
func (v *ViewState) Step() Step {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.step
}

// Snapshot returns a copy of the collected state.
func (v *ViewState) Snapshot() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := v.state
	s.MenuData = maps.Clone(v.state.MenuData)
	return s
}

// Begin issues a ticket for a new request of kind op. Any ticket issued
// earlier for the same op becomes stale.
func (v *ViewState) Begin(op Operation) Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.seqs[op]++
	return Ticket{Op: op, Epoch: v.epoch, Seq: v.seqs[op], Week: v.week, Result: v.result}
}

// Current reports whether t is the latest ticket for its op and no reset has
// happened since it was issued. Calendar, PDF and email requests also go
// stale when another week is loaded, and a scrape goes stale when a
// calendar is shown.
func (v *ViewState) Current(t Ticket) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.currentLocked(t)
}

func (v *ViewState) currentLocked(t Ticket) bool {
	if t.Epoch != v.epoch || t.Seq != v.seqs[t.Op] {
		return false
	}
	if t.Op == OpScrape {
		return t.Result == v.result
	}
	return t.Week == v.week
}

// ApplyScrape stores a scraped week and moves to the preview step. The
// calendar and PDF of a previous week are dropped.
func (v *ViewState) ApplyScrape(t Ticket, data menu.WeekMenu, weekID, weekLabel string) error {
	return v.apply(t, ScrapeSucceeded, func(s *State) error {
		if data == nil {
			data = menu.WeekMenu{}
		}
		*s = State{MenuData: data, WeekID: weekID, WeekLabel: weekLabel}
		v.week++
		return nil
	})
}

// ApplyCalendar stores the generated calendar and moves to the result step.
func (v *ViewState) ApplyCalendar(t Ticket, calendarURL, pdfURL string) error {
	return v.apply(t, GenerateSucceeded, func(s *State) error {
		if !s.HasMenu() {
			return fmt.Errorf("%w: no menu data", ErrInvalidTransition)
		}
		s.CalendarURL = calendarURL
		s.PDFURL = pdfURL
		v.result++
		return nil
	})
}

// ApplyPDF stores the exported PDF URL. The step does not change.
func (v *ViewState) ApplyPDF(t Ticket, pdfURL string) error {
	return v.apply(t, "", func(s *State) error {
		s.PDFURL = pdfURL
		return nil
	})
}

// Confirm checks that a response without state changes, such as a sent
// email, still belongs to the current session.
func (v *ViewState) Confirm(t Ticket) error {
	return v.apply(t, "", func(*State) error { return nil })
}

// apply runs update under the lock when t is current and trigger (if any)
// is allowed, then fires the step hook.
func (v *ViewState) apply(t Ticket, trigger Trigger, update func(*State) error) error {
	v.mu.Lock()
	if !v.currentLocked(t) {
		v.mu.Unlock()
		return fmt.Errorf("%w: %s #%d", ErrStaleResponse, t.Op, t.Seq)
	}

	from, to := v.step, v.step
	if trigger != "" {
		next, err := Next(from, trigger)
		if err != nil {
			v.mu.Unlock()
			return err
		}
		to = next
	}

	updated := v.state
	if err := update(&updated); err != nil {
		v.mu.Unlock()
		return err
	}
	v.state = updated
	changed := v.moveLocked(to)
	hook := v.onStep
	v.mu.Unlock()

	if changed && hook != nil {
		hook(from, to)
	}
	return nil
}

// Reset clears the state, returns to the initial step and invalidates every
// outstanding ticket.
func (v *ViewState) Reset() {
	v.mu.Lock()
	from := v.step
	v.epoch++
	v.state = State{}
	changed := v.moveLocked(Initial)
	hook := v.onStep
	v.mu.Unlock()

	if changed && hook != nil {
		hook(from, Initial)
	}
}

// moveLocked sets the step and reports whether it changed.
func (v *ViewState) moveLocked(to Step) bool {
	if v.step == to {
		return false
	}
	v.step = to
	v.reveal = to
	return true
}

// TakeReveal returns the step revealed by the last change and clears it, so
// a front end scrolls to a new panel exactly once.
func (v *ViewState) TakeReveal() (Step, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.reveal == "" {
		return "", false
	}
	s := v.reveal
	v.reveal = ""
	return s, true
}
