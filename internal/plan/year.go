package plan

import (
	"context"
	"fmt"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/metrics"
)

// YearPlan holds one DSO evaluated on the 1st of every month.
type YearPlan struct {
	Name     string
	Year     int
	Object   catalog.Object
	Metadata catalog.Metadata
	Months   []*DSO // January first; a month that failed is nil
	Ranking  Ranking
	Best     int // index into Months, -1 if no month is observable
}

// BestMonth returns the best month's evaluation, or nil.
func (y *YearPlan) BestMonth() *DSO {
	if y.Best < 0 || y.Best >= len(y.Months) {
		return nil
	}
	return y.Months[y.Best]
}

// Year evaluates name on the 1st of each month of year. The name is
// resolved once; a month whose night cannot be sampled is left nil.
func (p *Planner) Year(ctx context.Context, name string, year int) (*YearPlan, error) {
	start := time.Now()

	obj, err := p.resolve(ctx, name)
	if err != nil {
		metrics.RecordEvaluation(metrics.ResultUnresolved)
		return nil, err
	}
	meta := p.lookupMetadata(ctx, obj)
	tz := p.loc.TZ()

	outcomes := p.run(ctx, 12, func(ctx context.Context, i int) Outcome {
		date := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, tz)
		out := Outcome{Name: obj.Name}

		ev, err := p.Prepare(ctx, date)
		if err == nil {
			out.DSO, err = p.Evaluate(ctx, ev, obj, meta)
		}
		if err != nil {
			out.Err = fmt.Errorf("%s on %s: %w", obj.Name, date.Format("02.01.2006"), err)
			metrics.RecordEvaluation(metrics.ResultEphemeris)
			return out
		}
		out.DSO.Index = i
		metrics.RecordEvaluation(metrics.ResultOK)
		return out
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	yp := &YearPlan{Name: obj.Name, Year: year, Object: obj, Metadata: meta, Months: make([]*DSO, 12)}
	var evaluated []*DSO
	for i, o := range outcomes {
		if o.Err != nil {
			p.log.Warn("%v", o.Err)
			continue
		}
		yp.Months[i] = o.DSO
		evaluated = append(evaluated, o.DSO)
	}
	yp.Ranking = Rank(evaluated, NoFilter)
	yp.Best = bestMonth(yp.Months)

	metrics.ObservePlan("year", time.Since(start))
	if b := yp.BestMonth(); b != nil {
		p.log.Info("%s %d: best on %s, %.0f° %s at %s", yp.Name, year, b.Date().Format("02.01."),
			b.Peak.Altitude, b.Peak.Direction, b.Peak.Time.Format("15:04"))
	} else {
		p.log.Info("%s %d: not observable on any 1st of the month", yp.Name, year)
	}
	return yp, nil
}

// bestMonth picks the first month by moon below horizon, passing moon score,
// astronomical darkness, then higher peak. Earlier months win ties.
func bestMonth(months []*DSO) int {
	best := -1
	for i, d := range months {
		if d == nil || !d.Observable() {
			continue
		}
		if best < 0 || better(d, months[best]) {
			best = i
		}
	}
	return best
}

func better(a, b *DSO) bool {
	if a.Moon.Top != b.Moon.Top {
		return a.Moon.Top
	}
	if a.Moon.Passes != b.Moon.Passes {
		return a.Moon.Passes
	}
	if a.Peak.InAstronomical != b.Peak.InAstronomical {
		return a.Peak.InAstronomical
	}
	return a.Peak.Altitude > b.Peak.Altitude
}
