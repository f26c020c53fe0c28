package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"lunch-menu/internal/app"
	"lunch-menu/internal/notify"
	"lunch-menu/internal/render"
	"lunch-menu/internal/session"
)

// Panel ids scrolled into view after a step change.
var revealTargets = map[session.Step]string{
	session.Initial:       "scrape-section",
	session.MenuPreviewed: "preview-section",
	session.ResultShown:   "result-section",
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{"status": "ok"}
	if s.health != nil {
		for k, v := range s.health() {
			body[k] = v
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleFinderPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.fresh(w, r)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.renderFinder(w, sess, "", false)
}

func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	url := r.FormValue("url")
	_, err := sess.Finder.FindTodayMenu(r.Context(), url)
	s.renderFinder(w, sess, url, err == nil)
}

func (s *Server) renderFinder(w http.ResponseWriter, sess *app.Session, url string, reveal bool) {
	data := s.baseData(sess, "Lunch Menu Finder", "finder")
	data.URL = url
	data.Phase = sess.Finder.State().Phase()
	if item, ok := sess.Finder.State().Result(); ok {
		card := render.MenuCard(item)
		data.Result = &card
	}
	if reveal {
		data.Reveal = "menu-result"
	}
	if err := s.pages.render(w, "finder", data); err != nil {
		s.serverError(w, err)
	}
}

func (s *Server) handleGeneratorPage(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.fresh(w, r)
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.renderGenerator(w, sess, generatorForm{})
}

type generatorForm struct {
	URL       string
	Offset    int
	Recipient string
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	form := generatorForm{URL: r.FormValue("url")}
	if raw := r.FormValue("week_offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil {
			sess.Presenter.Notify("Invalid week selection", notify.Error)
			s.renderGenerator(w, sess, form)
			return
		}
		form.Offset = offset
	}
	_ = sess.Generator.ScrapeMenu(r.Context(), form.URL, form.Offset)
	s.renderGenerator(w, sess, form)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_ = sess.Generator.GenerateCalendar(r.Context())
	s.renderGenerator(w, sess, generatorForm{})
}

func (s *Server) handlePDF(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	_, _ = sess.Generator.ExportPDF(r.Context())
	s.renderGenerator(w, sess, generatorForm{})
}

func (s *Server) handleEmail(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	form := generatorForm{Recipient: r.FormValue("recipient")}
	_ = sess.Generator.SendEmail(r.Context(), form.Recipient)
	s.renderGenerator(w, sess, form)
}

func (s *Server) handleNewMenu(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sess.Generator.NewMenu()
	s.renderGenerator(w, sess, generatorForm{})
}

func (s *Server) renderGenerator(w http.ResponseWriter, sess *app.Session, form generatorForm) {
	view := sess.Generator.View()
	data := s.baseData(sess, "Lunch Menu Generator", "generator")
	data.Step = view.Step()
	data.State = view.Snapshot()
	data.Week = render.WeekCards(data.State.MenuData)
	data.URL = form.URL
	data.Offset = form.Offset
	data.Recipient = form.Recipient
	if step, ok := view.TakeReveal(); ok {
		data.Reveal = revealTargets[step]
	}
	if err := s.pages.render(w, "generator", data); err != nil {
		s.serverError(w, err)
	}
}

func (s *Server) handleInfoPage(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page := s.pages.info[slug]
		data := pageData{Title: page.Title, Active: slug, Body: page.Body}
		if err := s.pages.render(w, "info", data); err != nil {
			s.serverError(w, err)
		}
	}
}

// stateSnapshot is the JSON view of a session for GET /state.
type stateSnapshot struct {
	Step          session.Step          `json:"step"`
	FinderPhase   session.FinderPhase   `json:"finder_phase"`
	State         session.State         `json:"state"`
	Loading       notify.Loading        `json:"loading"`
	Notifications []notify.Notification `json:"notifications"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	notifications := sess.Presenter.Notifications()
	if notifications == nil {
		notifications = []notify.Notification{}
	}
	writeJSON(w, http.StatusOK, stateSnapshot{
		Step:          sess.Generator.View().Step(),
		FinderPhase:   sess.Finder.State().Phase(),
		State:         sess.Generator.View().Snapshot(),
		Loading:       sess.Presenter.Loading(),
		Notifications: notifications,
	})
}

func (s *Server) baseData(sess *app.Session, title, active string) pageData {
	return pageData{
		Title:         title,
		Active:        active,
		Notifications: sess.Presenter.Notifications(),
		Loading:       sess.Presenter.Loading(),
	}
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*app.Session, bool) {
	sess, err := s.sessions.load(w, r)
	if err != nil {
		s.serverError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) serverError(w http.ResponseWriter, err error) {
	s.log.WithError(err).Error("request failed")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
