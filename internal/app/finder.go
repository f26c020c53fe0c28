package app

import (
	"context"
	"strings"

	"lunch-menu/internal/menu"
	"lunch-menu/internal/menuapi"
	"lunch-menu/internal/notify"
	"lunch-menu/internal/session"

	"github.com/sirupsen/logrus"
)

// Finder looks up today's lunch.
type Finder struct {
	app       *App
	presenter *notify.Presenter
	state     *session.FinderState
	log       logrus.FieldLogger
}

// State returns the finder's phase and latest result.
func (f *Finder) State() *session.FinderState {
	return f.state
}

// FindTodayMenu scrapes url and returns today's item. An empty url is
// rejected without contacting the backend.
func (f *Finder) FindTodayMenu(ctx context.Context, url string) (menu.MenuItem, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return menu.MenuItem{}, reject(f.presenter, ErrURLRequired)
	}

	seq := f.state.Begin()
	var resp *menuapi.ScrapeResponse
	err := f.presenter.WithLoading("Finding today's menu...", func() error {
		var err error
		resp, err = f.app.dispatcher.ScrapeMenu(detach(ctx), menuapi.ScrapeRequest{URL: url})
		return err
	})
	if err != nil {
		f.state.Fail(seq)
		return menu.MenuItem{}, fail(f.presenter, f.log, "find", err)
	}

	item := f.app.todayItem(resp)
	if !f.state.Resolve(seq, item) {
		f.log.WithField("seq", seq).Debug("dropping stale finder response")
		return item, session.ErrStaleResponse
	}

	f.presenter.Notify("Menu found!", notify.Success)
	return item, nil
}

// todayItem picks the single-day item out of a scrape response. The backend
// normally sends menu_item; a whole week falls back to today's weekday.
func (a *App) todayItem(resp *menuapi.ScrapeResponse) menu.MenuItem {
	if resp.MenuItem != nil {
		item := *resp.MenuItem
		if item.Day == "" {
			item.Day = resp.Day
		}
		if item.Date == "" {
			item.Date = resp.Date
		}
		return item
	}

	day := resp.Day
	if day == "" {
		day = strings.ToLower(a.now().Weekday().String())
	}
	if item, ok := resp.MenuData[day]; ok {
		return item
	}
	return menu.MenuItem{Day: day, Date: resp.Date}
}
