// Package app implements the user actions of the lunch menu front ends. Each
// action validates its input, dispatches one backend call under the loading
// overlay, applies the result to the session's view state and reports the
// outcome as a notification.
package app

import (
	"context"
	"errors"
	"time"

	"lunch-menu/internal/menuapi"
	"lunch-menu/internal/notify"
	"lunch-menu/internal/session"

	"github.com/sirupsen/logrus"
)

// Dispatcher performs the backend calls. *menuapi.Client satisfies it.
type Dispatcher interface {
	ScrapeMenu(ctx context.Context, req menuapi.ScrapeRequest) (*menuapi.ScrapeResponse, error)
	GenerateCalendar(ctx context.Context, req menuapi.WeekRequest) (*menuapi.CalendarResponse, error)
	ExportPDF(ctx context.Context, req menuapi.WeekRequest) (*menuapi.PDFResponse, error)
	SendEmail(ctx context.Context, req menuapi.EmailRequest) (*menuapi.EmailResponse, error)
}

// Validation errors. They are reported before any backend call.
var (
	ErrURLRequired       = errors.New("menu URL is required")
	ErrRecipientRequired = errors.New("email recipient is required")
	ErrNoMenuData        = errors.New("no menu data loaded")
	ErrNoCalendar        = errors.New("no calendar generated")
	ErrCalendarShown     = errors.New("calendar already generated")
)

var validationMessages = map[error]string{
	ErrURLRequired:       "Please enter a menu URL",
	ErrRecipientRequired: "Please enter an email address",
	ErrNoMenuData:        "Please load a menu first",
	ErrNoCalendar:        "Please generate a calendar first",
	ErrCalendarShown:     "Please start a new menu first",
}

// App holds the application's dependencies.
type App struct {
	dispatcher Dispatcher
	log        logrus.FieldLogger
	now        func() time.Time
}

// NewApp creates and initializes a new App instance.
func NewApp(dispatcher Dispatcher) *App {
	return &App{
		dispatcher: dispatcher,
		log:        logrus.WithField("component", "app"),
		now:        time.Now,
	}
}

// Session is one user's view of the finder and the generator.
type Session struct {
	ID        string
	Presenter *notify.Presenter
	Finder    *Finder
	Generator *Generator
}

// NewSession creates a session in its initial state. onStep is called once
// per generator step change and may be nil.
func (a *App) NewSession(id string, onStep session.StepHook, opts ...notify.Option) *Session {
	presenter := notify.New(opts...)
	log := a.log.WithField("session", id)
	return &Session{
		ID:        id,
		Presenter: presenter,
		Finder: &Finder{
			app:       a,
			presenter: presenter,
			state:     session.NewFinderState(),
			log:       log,
		},
		Generator: &Generator{
			app:       a,
			presenter: presenter,
			view:      session.NewViewState(onStep),
			log:       log,
		},
	}
}

// reject reports a validation error and returns it.
func reject(p *notify.Presenter, err error) error {
	p.Notify(validationMessages[err], notify.Error)
	return err
}

// fail reports a backend error as "Error: <message>" and returns it.
func fail(p *notify.Presenter, log logrus.FieldLogger, action string, err error) error {
	log.WithField("action", action).WithError(err).Warn("action failed")
	p.Notify("Error: "+err.Error(), notify.Error)
	return err
}

// detach keeps a dispatched call running when the caller goes away.
func detach(ctx context.Context) context.Context {
	return context.WithoutCancel(ctx)
}
