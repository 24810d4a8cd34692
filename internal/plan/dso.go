// Package plan evaluates DSOs for a night or a year and ranks the results.
package plan

import (
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/visibility"
)

// DSO is one object evaluated for one night.
type DSO struct {
	Name     string
	Index    int // position in the requested list
	Object   catalog.Object
	Metadata catalog.Metadata
	Window   night.Window
	Trace    night.Trace
	Peak     visibility.Peak
	Moon     visibility.MoonScore
}

// Observable reports whether the DSO belongs in one of the night buckets.
func (d *DSO) Observable() bool {
	return !d.Peak.Empty && d.Peak.Altitude > 0 && d.Peak.Visible
}

// Date returns the evening the DSO was evaluated for.
func (d *DSO) Date() time.Time {
	return d.Window.Date
}

// Outcome is the per-object result of a batch. Exactly one of DSO and Err
// is set.
type Outcome struct {
	Name  string
	Index int
	DSO   *DSO
	Err   error
}

// Result is a planned night.
type Result struct {
	Date     time.Time
	Window   night.Window
	DSOs     []*DSO    // evaluated objects in request order
	Failures []Outcome // objects that could not be evaluated
	Duration time.Duration
}

func splitOutcomes(outcomes []Outcome) ([]*DSO, []Outcome) {
	var dsos []*DSO
	var failures []Outcome
	for _, o := range outcomes {
		if o.Err != nil {
			failures = append(failures, o)
			continue
		}
		dsos = append(dsos, o.DSO)
	}
	return dsos, failures
}
