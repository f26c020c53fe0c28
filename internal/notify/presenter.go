// Package notify holds the transient notifications and the shared loading
// overlay of a front end session.
package notify

import (
	"sync"
	"time"
)

// Severity selects the color of a notification.
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Info    Severity = "info"
)

// Color returns the background color used for the severity. Unknown values
// are shown as info.
func (s Severity) Color() string {
	switch s {
	case Success:
		return "#4CAF50"
	case Error:
		return "#f44336"
	default:
		return "#2196F3"
	}
}

// Phase is the lifecycle stage of a notification.
type Phase string

const (
	Visible Phase = "visible"
	Leaving Phase = "leaving"
)

const (
	// VisibleFor is how long a notification stays fully shown.
	VisibleFor = 3 * time.Second
	// LeaveFor is the exit phase before the notification is removed.
	LeaveFor = 300 * time.Millisecond

	defaultLoadingText = "Loading..."
)

// Notification is one toast message.
type Notification struct {
	ID       uint64    `json:"id"`
	Message  string    `json:"message"`
	Severity Severity  `json:"severity"`
	Color    string    `json:"color"`
	Phase    Phase     `json:"phase"`
	Created  time.Time `json:"created"`
}

// Loading is the state of the overlay.
type Loading struct {
	Visible bool   `json:"visible"`
	Text    string `json:"text"`
}

// Scheduler runs f after d. time.AfterFunc is used unless a test supplies
// its own.
type Scheduler func(d time.Duration, f func())

// Option configures a Presenter.
type Option func(*Presenter)

// WithScheduler replaces the timer used to age notifications.
func WithScheduler(s Scheduler) Option {
	return func(p *Presenter) { p.after = s }
}

// WithNotifyHook registers fn to be called for every new notification.
func WithNotifyHook(fn func(Notification)) Option {
	return func(p *Presenter) { p.onNotify = fn }
}

// WithLoadingHook registers fn to be called whenever the overlay changes.
func WithLoadingHook(fn func(Loading)) Option {
	return func(p *Presenter) { p.onLoading = fn }
}

// Presenter stacks notifications and owns the loading overlay. It is safe
// for concurrent use; hooks run outside the lock.
type Presenter struct {
	mu      sync.Mutex
	nextID  uint64
	items   []*Notification
	loading Loading

	after     Scheduler
	now       func() time.Time
	onNotify  func(Notification)
	onLoading func(Loading)
}

// New creates a Presenter with no notifications and a hidden overlay.
func New(opts ...Option) *Presenter {
	p := &Presenter{
		after: func(d time.Duration, f func()) { time.AfterFunc(d, f) },
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Notify shows message with the given severity. Notifications are neither
// deduplicated nor capped; each one ages out on its own timer.
func (p *Presenter) Notify(message string, severity Severity) Notification {
	if severity != Success && severity != Error {
		severity = Info
	}

	p.mu.Lock()
	p.nextID++
	n := &Notification{
		ID:       p.nextID,
		Message:  message,
		Severity: severity,
		Color:    severity.Color(),
		Phase:    Visible,
		Created:  p.now(),
	}
	p.items = append(p.items, n)
	snapshot := *n
	hook := p.onNotify
	p.mu.Unlock()

	p.after(VisibleFor, func() { p.leave(snapshot.ID) })
	if hook != nil {
		hook(snapshot)
	}
	return snapshot
}

func (p *Presenter) leave(id uint64) {
	p.mu.Lock()
	found := false
	for _, n := range p.items {
		if n.ID == id {
			n.Phase = Leaving
			found = true
			break
		}
	}
	p.mu.Unlock()

	if found {
		p.after(LeaveFor, func() { p.remove(id) })
	}
}

func (p *Presenter) remove(id uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, n := range p.items {
		if n.ID == id {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return
		}
	}
}

// Notifications returns the notifications currently on screen, oldest first.
func (p *Presenter) Notifications() []Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Notification, len(p.items))
	for i, n := range p.items {
		out[i] = *n
	}
	return out
}

// Clear drops every notification immediately.
func (p *Presenter) Clear() {
	p.mu.Lock()
	p.items = nil
	p.mu.Unlock()
}

// ShowLoading displays the overlay with text, replacing any text already
// shown. An empty text shows the default label.
func (p *Presenter) ShowLoading(text string) {
	if text == "" {
		text = defaultLoadingText
	}
	p.setLoading(Loading{Visible: true, Text: text})
}

// HideLoading hides the overlay. Calls are not counted: one hide undoes any
// number of shows.
func (p *Presenter) HideLoading() {
	p.setLoading(Loading{})
}

func (p *Presenter) setLoading(l Loading) {
	p.mu.Lock()
	p.loading = l
	hook := p.onLoading
	p.mu.Unlock()

	if hook != nil {
		hook(l)
	}
}

// Loading returns the current overlay state.
func (p *Presenter) Loading() Loading {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loading
}

// WithLoading shows the overlay while fn runs and hides it afterwards,
// whether fn fails, succeeds or panics.
func (p *Presenter) WithLoading(text string, fn func() error) error {
	p.ShowLoading(text)
	defer p.HideLoading()
	return fn()
}
