package session

import (
	"errors"
	"sync"
	"testing"

	"lunch-menu/internal/menu"

	"github.com/google/go-cmp/cmp"
)

func TestNext(t *testing.T) {
	tests := []struct {
		from    Step
		trigger Trigger
		want    Step
		wantErr bool
	}{
		{Initial, ScrapeSucceeded, MenuPreviewed, false},
		{MenuPreviewed, ScrapeSucceeded, MenuPreviewed, false},
		{MenuPreviewed, GenerateSucceeded, ResultShown, false},
		{ResultShown, GenerateSucceeded, ResultShown, false},
		{Initial, NewMenu, Initial, false},
		{MenuPreviewed, NewMenu, Initial, false},
		{ResultShown, NewMenu, Initial, false},
		{Initial, GenerateSucceeded, Initial, true},
		{ResultShown, ScrapeSucceeded, ResultShown, true},
		{Initial, Trigger("bogus"), Initial, true},
	}

	for _, tc := range tests {
		t.Run(string(tc.from)+"/"+string(tc.trigger), func(t *testing.T) {
			got, err := Next(tc.from, tc.trigger)
			if tc.wantErr {
				if !errors.Is(err, ErrInvalidTransition) {
					t.Fatalf("Expected ErrInvalidTransition, got %v", err)
				}
			} else if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if got != tc.want {
				t.Errorf("Expected %s, got %s", tc.want, got)
			}
		})
	}
}

type stepChange struct {
	From, To Step
}

func newRecordingViewState() (*ViewState, *[]stepChange) {
	var changes []stepChange
	v := NewViewState(func(from, to Step) {
		changes = append(changes, stepChange{from, to})
	})
	return v, &changes
}

func week() menu.WeekMenu {
	return menu.WeekMenu{"monday": {Day: "monday", Date: "2024-10-14", Name: "Pizza"}}
}

func TestViewStateFlow(t *testing.T) {
	v, changes := newRecordingViewState()

	if v.Step() != Initial {
		t.Fatalf("Expected initial step, got %s", v.Step())
	}

	if err := v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W41", "Oct 14 – Oct 18, 2024"); err != nil {
		t.Fatalf("ApplyScrape failed: %v", err)
	}
	if v.Step() != MenuPreviewed {
		t.Fatalf("Expected menu-previewed, got %s", v.Step())
	}

	// Re-scraping stays on the preview and fires no hook.
	if err := v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W42", ""); err != nil {
		t.Fatalf("Second ApplyScrape failed: %v", err)
	}

	if err := v.ApplyCalendar(v.Begin(OpCalendar), "/static/cal.png", ""); err != nil {
		t.Fatalf("ApplyCalendar failed: %v", err)
	}
	if err := v.ApplyPDF(v.Begin(OpPDF), "/static/cal.pdf"); err != nil {
		t.Fatalf("ApplyPDF failed: %v", err)
	}
	if err := v.Confirm(v.Begin(OpEmail)); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}

	want := State{
		MenuData:    week(),
		WeekID:      "2024-W42",
		CalendarURL: "/static/cal.png",
		PDFURL:      "/static/cal.pdf",
	}
	if diff := cmp.Diff(want, v.Snapshot()); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}

	v.Reset()
	if v.Step() != Initial {
		t.Errorf("Expected initial step after reset, got %s", v.Step())
	}
	if diff := cmp.Diff(State{}, v.Snapshot()); diff != "" {
		t.Errorf("Expected all fields cleared (-want +got):\n%s", diff)
	}

	wantChanges := []stepChange{
		{Initial, MenuPreviewed},
		{MenuPreviewed, ResultShown},
		{ResultShown, Initial},
	}
	if diff := cmp.Diff(wantChanges, *changes); diff != "" {
		t.Errorf("Step hook calls mismatch (-want +got):\n%s", diff)
	}
}

func TestViewStateGuards(t *testing.T) {
	t.Run("CalendarNeedsPreview", func(t *testing.T) {
		v, changes := newRecordingViewState()
		err := v.ApplyCalendar(v.Begin(OpCalendar), "/static/cal.png", "")
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("Expected ErrInvalidTransition, got %v", err)
		}
		if v.Snapshot().CalendarURL != "" {
			t.Error("Expected calendar not to be stored")
		}
		if len(*changes) != 0 {
			t.Errorf("Expected no hook calls, got %v", *changes)
		}
	})

	t.Run("ScrapeWithNullDataStillPreviews", func(t *testing.T) {
		v := NewViewState(nil)
		if err := v.ApplyScrape(v.Begin(OpScrape), nil, "2024-W41", ""); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !v.Snapshot().HasMenu() {
			t.Error("Expected an empty week to count as scraped")
		}
	})

	t.Run("NewWeekStartsClean", func(t *testing.T) {
		v := NewViewState(nil)
		_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W41", "")
		_ = v.ApplyCalendar(v.Begin(OpCalendar), "/static/cal.png", "/static/cal.pdf")

		v.Reset()
		_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W42", "")
		s := v.Snapshot()
		if s.HasCalendar() || s.PDFURL != "" {
			t.Errorf("Expected a fresh week without calendar, got %+v", s)
		}
	})

	t.Run("SnapshotIsACopy", func(t *testing.T) {
		v := NewViewState(nil)
		_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W41", "")

		s := v.Snapshot()
		s.MenuData["tuesday"] = menu.MenuItem{Name: "Tacos"}
		if _, ok := v.Snapshot().MenuData["tuesday"]; ok {
			t.Error("Expected snapshot mutation not to leak into the view state")
		}
	})
}

func TestFencing(t *testing.T) {
	t.Run("OlderRequestLoses", func(t *testing.T) {
		v := NewViewState(nil)
		first := v.Begin(OpScrape)
		second := v.Begin(OpScrape)

		if err := v.ApplyScrape(second, week(), "2024-W42", ""); err != nil {
			t.Fatalf("Expected latest response to apply, got %v", err)
		}
		err := v.ApplyScrape(first, menu.WeekMenu{}, "2024-W41", "")
		if !errors.Is(err, ErrStaleResponse) {
			t.Fatalf("Expected ErrStaleResponse, got %v", err)
		}
		if v.Snapshot().WeekID != "2024-W42" {
			t.Errorf("Expected newer week to survive, got %s", v.Snapshot().WeekID)
		}
	})

	t.Run("OperationsAreIndependent", func(t *testing.T) {
		v := NewViewState(nil)
		scrape := v.Begin(OpScrape)
		v.Begin(OpPDF)
		if !v.Current(scrape) {
			t.Error("Expected a PDF request not to fence a scrape")
		}
	})

	t.Run("NewWeekFencesOlderRequests", func(t *testing.T) {
		v := NewViewState(nil)
		_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W41", "")
		calendar := v.Begin(OpCalendar)
		pdf := v.Begin(OpPDF)

		if err := v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W42", ""); err != nil {
			t.Fatalf("Expected the new week to apply, got %v", err)
		}

		if err := v.ApplyCalendar(calendar, "/static/cal-2024-W41.png", ""); !errors.Is(err, ErrStaleResponse) {
			t.Errorf("Expected the old week's calendar to be stale, got %v", err)
		}
		if err := v.ApplyPDF(pdf, "/static/cal-2024-W41.pdf"); !errors.Is(err, ErrStaleResponse) {
			t.Errorf("Expected the old week's PDF to be stale, got %v", err)
		}
		want := State{MenuData: week(), WeekID: "2024-W42"}
		if diff := cmp.Diff(want, v.Snapshot()); diff != "" {
			t.Errorf("State mismatch (-want +got):\n%s", diff)
		}
		if v.Step() != MenuPreviewed {
			t.Errorf("Expected to stay on the preview, got %s", v.Step())
		}
	})

	t.Run("CalendarFencesOlderScrape", func(t *testing.T) {
		v := NewViewState(nil)
		_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W41", "")
		rescrape := v.Begin(OpScrape)

		if err := v.ApplyCalendar(v.Begin(OpCalendar), "/static/cal.png", ""); err != nil {
			t.Fatalf("Expected the calendar to apply, got %v", err)
		}

		if err := v.ApplyScrape(rescrape, week(), "2024-W42", ""); !errors.Is(err, ErrStaleResponse) {
			t.Fatalf("Expected ErrStaleResponse, got %v", err)
		}
		if s := v.Snapshot(); s.WeekID != "2024-W41" || s.CalendarURL != "/static/cal.png" {
			t.Errorf("Expected the shown calendar to survive, got %+v", s)
		}
	})

	t.Run("ResetInvalidatesTickets", func(t *testing.T) {
		v, changes := newRecordingViewState()
		_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W41", "")
		pending := v.Begin(OpCalendar)

		v.Reset()

		err := v.ApplyCalendar(pending, "/static/cal.png", "")
		if !errors.Is(err, ErrStaleResponse) {
			t.Fatalf("Expected ErrStaleResponse after reset, got %v", err)
		}
		if v.Step() != Initial {
			t.Errorf("Expected to stay on initial, got %s", v.Step())
		}
		if diff := cmp.Diff(State{}, v.Snapshot()); diff != "" {
			t.Errorf("Expected empty state (-want +got):\n%s", diff)
		}
		if len(*changes) != 2 {
			t.Errorf("Expected 2 step changes, got %v", *changes)
		}
	})

	t.Run("ConcurrentResponses", func(t *testing.T) {
		v := NewViewState(nil)
		tickets := make([]Ticket, 20)
		for i := range tickets {
			tickets[i] = v.Begin(OpScrape)
		}

		var wg sync.WaitGroup
		for i, ticket := range tickets {
			wg.Add(1)
			go func(i int, ticket Ticket) {
				defer wg.Done()
				_ = v.ApplyScrape(ticket, week(), string(rune('A'+i)), "")
			}(i, ticket)
		}
		wg.Wait()

		if got := v.Snapshot().WeekID; got != string(rune('A'+19)) {
			t.Errorf("Expected only the last ticket to apply, got %q", got)
		}
	})
}

func TestTakeReveal(t *testing.T) {
	v := NewViewState(nil)
	if _, ok := v.TakeReveal(); ok {
		t.Fatal("Expected nothing to reveal initially")
	}

	_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W41", "")
	step, ok := v.TakeReveal()
	if !ok || step != MenuPreviewed {
		t.Fatalf("Expected to reveal menu-previewed, got %s %v", step, ok)
	}
	if _, ok := v.TakeReveal(); ok {
		t.Error("Expected reveal to fire only once")
	}

	_ = v.ApplyScrape(v.Begin(OpScrape), week(), "2024-W42", "")
	if _, ok := v.TakeReveal(); ok {
		t.Error("Expected no reveal when the step did not change")
	}
}

func TestFinderState(t *testing.T) {
	f := NewFinderState()
	if f.Phase() != Idle {
		t.Fatalf("Expected idle, got %s", f.Phase())
	}

	seq := f.Begin()
	if f.Phase() != Searching {
		t.Fatalf("Expected loading, got %s", f.Phase())
	}
	if !f.Fail(seq) || f.Phase() != Idle {
		t.Errorf("Expected failure without result to return to idle, got %s", f.Phase())
	}

	seq = f.Begin()
	if !f.Resolve(seq, menu.MenuItem{Name: "Pizza"}) {
		t.Fatal("Expected resolve to apply")
	}
	if f.Phase() != Found {
		t.Errorf("Expected result-shown, got %s", f.Phase())
	}

	stale := f.Begin()
	latest := f.Begin()
	if !f.Resolve(latest, menu.MenuItem{Name: "Tacos"}) {
		t.Fatal("Expected latest search to apply")
	}
	if f.Resolve(stale, menu.MenuItem{Name: "Soup"}) {
		t.Error("Expected stale search to be dropped")
	}
	if item, _ := f.Result(); item.Name != "Tacos" {
		t.Errorf("Expected Tacos, got %s", item.Name)
	}

	seq = f.Begin()
	f.Fail(seq)
	if f.Phase() != Found {
		t.Errorf("Expected previous result to stay shown, got %s", f.Phase())
	}
}
