// Package session holds the per-user view state of the lunch menu front ends:
// the generator's step machine and collected results, the finder's single
// result, and the request fencing that keeps late responses from
// overwriting newer state.
package session

import (
	"errors"
	"fmt"
)

// Step is the visible stage of the generator flow.
type Step string

const (
	Initial       Step = "initial"
	MenuPreviewed Step = "menu-previewed"
	ResultShown   Step = "result-shown"
)

// Trigger is an event that may move the generator to another step.
type Trigger string

const (
	ScrapeSucceeded   Trigger = "scrape-success"
	GenerateSucceeded Trigger = "generate-success"
	NewMenu           Trigger = "new-menu"
)

var (
	// ErrInvalidTransition is returned when a trigger is not allowed from the
	// current step.
	ErrInvalidTransition = errors.New("invalid step transition")
	// ErrStaleResponse is returned when a response arrives after a newer
	// request of the same kind, or after a reset.
	ErrStaleResponse = errors.New("stale response")
)

// Next returns the step reached from `from` by trigger.
//
//	initial        --scrape-success-->   menu-previewed
//	menu-previewed --scrape-success-->   menu-previewed
//	menu-previewed --generate-success--> result-shown
//	result-shown   --generate-success--> result-shown
//	any            --new-menu-->         initial
func Next(from Step, trigger Trigger) (Step, error) {
	switch trigger {
	case NewMenu:
		return Initial, nil
	case ScrapeSucceeded:
		if from == Initial || from == MenuPreviewed {
			return MenuPreviewed, nil
		}
	case GenerateSucceeded:
		if from == MenuPreviewed || from == ResultShown {
			return ResultShown, nil
		}
	}
	return from, fmt.Errorf("%w: %s from %s", ErrInvalidTransition, trigger, from)
}
