package plan

import (
	"sort"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
)

// Filter narrows the night buckets. The zero value admits every
// observable DSO.
type Filter struct {
	Moon      bool            // require a passing moon score
	TopOnly   bool            // require the moon below the horizon (implies Moon)
	Direction astro.Direction // preferred direction, NoDirection for any
}

// NoFilter admits every observable DSO.
var NoFilter = Filter{}

func (f Filter) admits(d *DSO) bool {
	switch {
	case f.TopOnly:
		if !d.Moon.Top {
			return false
		}
	case f.Moon:
		if !d.Moon.Passes {
			return false
		}
	}
	if f.Direction != astro.NoDirection && !d.Peak.Direction.Includes(f.Direction) {
		return false
	}
	return true
}

// Ranking is the bucketed result of a night, each bucket ascending by
// peak time.
type Ranking struct {
	Astronomical []*DSO
	Nautical     []*DSO
	Invisible    []*DSO
	Filtered     int // observable DSOs rejected by the filter
}

// Rank partitions dsos into the three buckets. A DSO peaking inside the
// (effective) astronomical window is never also listed as nautical.
// Unobservable DSOs are always invisible, whatever the filter says.
func Rank(dsos []*DSO, f Filter) Ranking {
	sorted := make([]*DSO, len(dsos))
	copy(sorted, dsos)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Peak.Time.Before(sorted[j].Peak.Time)
	})

	var r Ranking
	for _, d := range sorted {
		if !d.Observable() {
			r.Invisible = append(r.Invisible, d)
			continue
		}

		switch {
		case d.Peak.InAstronomical:
			if f.admits(d) {
				r.Astronomical = append(r.Astronomical, d)
			} else {
				r.Filtered++
			}
		case d.Peak.InNautical:
			if f.admits(d) {
				r.Nautical = append(r.Nautical, d)
			} else {
				r.Filtered++
			}
		default:
			r.Invisible = append(r.Invisible, d)
		}
	}
	return r
}

// Len returns the number of ranked DSOs across all buckets.
func (r Ranking) Len() int {
	return len(r.Astronomical) + len(r.Nautical) + len(r.Invisible)
}
