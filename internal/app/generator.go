package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lunch-menu/internal/menu"
	"lunch-menu/internal/menuapi"
	"lunch-menu/internal/notify"
	"lunch-menu/internal/session"

	"github.com/sirupsen/logrus"
)

// Generator drives the multi-step flow: scrape a week, preview it, generate
// the calendar, then export or email it.
type Generator struct {
	app       *App
	presenter *notify.Presenter
	view      *session.ViewState
	log       logrus.FieldLogger
}

// View returns the generator's step and collected state.
func (g *Generator) View() *session.ViewState {
	return g.view
}

// ScrapeMenu loads the week at offset (0 is the current week) from url and
// shows its preview.
func (g *Generator) ScrapeMenu(ctx context.Context, url string, offset int) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return reject(g.presenter, ErrURLRequired)
	}
	if g.view.Step() == session.ResultShown {
		return reject(g.presenter, ErrCalendarShown)
	}

	ticket := g.view.Begin(session.OpScrape)
	var resp *menuapi.ScrapeResponse
	err := g.presenter.WithLoading("Scraping menu...", func() error {
		var err error
		resp, err = g.app.dispatcher.ScrapeMenu(detach(ctx), menuapi.ScrapeRequest{URL: url, WeekOffset: &offset})
		return err
	})
	if err != nil {
		return g.failUnlessStale(ticket, "scrape", err)
	}

	data := resp.MenuData
	if data == nil && resp.MenuItem != nil {
		day := resp.MenuItem.Day
		if day == "" {
			day = resp.Day
		}
		data = menu.WeekMenu{day: *resp.MenuItem}
	}

	now := g.app.now()
	fillDates(data, menu.WeekDates(now, offset))

	weekID := resp.WeekID
	if weekID == "" {
		weekID = menu.WeekID(now, offset)
	}
	label := resp.WeekLabel()
	if label == "" {
		label = menu.WeekLabel(now, offset)
	}

	if err := g.view.ApplyScrape(ticket, data, weekID, label); err != nil {
		return g.dropped(ticket, err)
	}

	g.presenter.Notify(fmt.Sprintf("Menu loaded for %s", label), notify.Success)
	return nil
}

// GenerateCalendar renders the calendar for the previewed week.
func (g *Generator) GenerateCalendar(ctx context.Context) error {
	state := g.view.Snapshot()
	if !state.HasMenu() {
		return reject(g.presenter, ErrNoMenuData)
	}

	ticket := g.view.Begin(session.OpCalendar)
	var resp *menuapi.CalendarResponse
	err := g.presenter.WithLoading("Generating calendar...", func() error {
		var err error
		resp, err = g.app.dispatcher.GenerateCalendar(detach(ctx), menuapi.WeekRequest{
			MenuData: state.MenuData,
			WeekID:   state.WeekID,
		})
		return err
	})
	if err != nil {
		return g.failUnlessStale(ticket, "calendar", err)
	}

	if err := g.view.ApplyCalendar(ticket, resp.CalendarURL, resp.PDFURL); err != nil {
		return g.dropped(ticket, err)
	}

	g.presenter.Notify("Calendar generated!", notify.Success)
	return nil
}

// ExportPDF exports the current week as a PDF and returns its URL.
func (g *Generator) ExportPDF(ctx context.Context) (string, error) {
	state := g.view.Snapshot()
	if !state.HasMenu() {
		return "", reject(g.presenter, ErrNoMenuData)
	}

	ticket := g.view.Begin(session.OpPDF)
	var resp *menuapi.PDFResponse
	err := g.presenter.WithLoading("Exporting PDF...", func() error {
		var err error
		resp, err = g.app.dispatcher.ExportPDF(detach(ctx), menuapi.WeekRequest{
			MenuData: state.MenuData,
			WeekID:   state.WeekID,
		})
		return err
	})
	if err != nil {
		return "", g.failUnlessStale(ticket, "pdf", err)
	}

	if err := g.view.ApplyPDF(ticket, resp.PDFURL); err != nil {
		return "", g.dropped(ticket, err)
	}

	g.presenter.Notify("PDF ready!", notify.Success)
	return resp.PDFURL, nil
}

// SendEmail mails the generated calendar (and PDF, if exported) to recipient.
func (g *Generator) SendEmail(ctx context.Context, recipient string) error {
	recipient = strings.TrimSpace(recipient)
	if recipient == "" {
		return reject(g.presenter, ErrRecipientRequired)
	}
	state := g.view.Snapshot()
	if !state.HasCalendar() {
		return reject(g.presenter, ErrNoCalendar)
	}

	ticket := g.view.Begin(session.OpEmail)
	err := g.presenter.WithLoading("Sending email...", func() error {
		_, err := g.app.dispatcher.SendEmail(detach(ctx), menuapi.EmailRequest{
			Recipient:   recipient,
			CalendarURL: state.CalendarURL,
			PDFURL:      state.PDFURL,
			WeekID:      state.WeekID,
		})
		return err
	})
	if err != nil {
		return g.failUnlessStale(ticket, "email", err)
	}

	if err := g.view.Confirm(ticket); err != nil {
		return g.dropped(ticket, err)
	}

	g.presenter.Notify(fmt.Sprintf("Email sent to %s!", recipient), notify.Success)
	return nil
}

// NewMenu clears everything collected so far and returns to the first step.
// Responses still in flight are discarded when they arrive.
func (g *Generator) NewMenu() {
	g.view.Reset()
	g.log.Debug("generator reset")
}

// fillDates sets the date of items the backend sent without one.
func fillDates(data menu.WeekMenu, dates map[string]string) {
	for day, item := range data {
		if item.Date != "" {
			continue
		}
		if date, ok := dates[day]; ok {
			item.Date = date
			data[day] = item
		}
	}
}

// failUnlessStale reports err unless a newer request or a reset has made
// this one irrelevant.
func (g *Generator) failUnlessStale(ticket session.Ticket, action string, err error) error {
	if !g.view.Current(ticket) {
		return g.dropped(ticket, fmt.Errorf("%w: %v", session.ErrStaleResponse, err))
	}
	return fail(g.presenter, g.log, action, err)
}

// dropped logs a response that was not applied. Nothing is shown to the
// user: the backend call succeeded and the view already reflects newer state.
func (g *Generator) dropped(ticket session.Ticket, err error) error {
	log := g.log.WithFields(logrus.Fields{"op": ticket.Op, "seq": ticket.Seq}).WithError(err)
	if errors.Is(err, session.ErrStaleResponse) {
		log.Debug("dropping stale response")
	} else {
		log.Warn("dropping response that does not fit the current step")
	}
	return err
}
