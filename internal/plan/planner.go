package plan

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/config"
	"github.com/yetanothergithubaccount/DSObest/internal/ephem"
	"github.com/yetanothergithubaccount/DSObest/internal/logging"
	"github.com/yetanothergithubaccount/DSObest/internal/metrics"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/visibility"
)

// Options tunes a Planner.
type Options struct {
	Samples         int
	Visibility      visibility.Config
	MaxIllumination float64
	Workers         int
	ResolveTimeout  time.Duration // per object, covers retries
}

// OptionsFromConfig derives planner options from a validated configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Samples: cfg.Sampling.Samples,
		Visibility: visibility.Config{
			MinAltitude: cfg.Sampling.MinAltitude,
			MinVisible:  cfg.Sampling.MinVisible,
		},
		MaxIllumination: cfg.Moon.MaxIllumination,
		Workers:         cfg.Workers,
		ResolveTimeout:  cfg.Resolver.Timeout * time.Duration(cfg.Resolver.MaxRetries+1),
	}
}

// Evening is the object-independent part of a night: the sun and moon
// trace and the darkness window derived from it.
type Evening struct {
	Window     night.Window
	Background night.Trace
}

// Planner evaluates DSOs for one observer location.
type Planner struct {
	loc      config.Location
	resolver catalog.Resolver
	metadata catalog.MetadataLookup
	sampler  *night.Sampler
	opts     Options
	log      *logging.Logger
}

// New creates a planner. metadata may be nil.
func New(loc config.Location, resolver catalog.Resolver, metadata catalog.MetadataLookup,
	eph ephem.Ephemeris, opts Options, log *logging.Logger) *Planner {
	if log == nil {
		log = logging.Discard()
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.Visibility == (visibility.Config{}) {
		opts.Visibility = visibility.DefaultConfig()
	}
	return &Planner{
		loc:      loc,
		resolver: resolver,
		metadata: metadata,
		sampler:  night.NewSampler(eph, loc.Observer(), opts.Samples),
		opts:     opts,
		log:      log,
	}
}

// Location returns the observer site.
func (p *Planner) Location() config.Location {
	return p.loc
}

// Prepare samples the sun and moon for the evening of date and computes the
// darkness window.
func (p *Planner) Prepare(ctx context.Context, date time.Time) (*Evening, error) {
	tz := p.loc.TZ()
	date = date.In(tz)

	bg, err := p.sampler.Background(ctx, night.Midnight(date, tz))
	if err != nil {
		return nil, fmt.Errorf("sample night of %s: %w", date.Format("02.01.2006"), err)
	}

	w, err := night.ComputeWindow(date, bg.Samples)
	if err != nil {
		return nil, fmt.Errorf("night window %s: %w", date.Format("02.01.2006"), err)
	}
	w.Annotate(p.loc.Latitude, p.loc.Longitude)

	switch {
	case !w.Nautical.Defined:
		p.log.Warn("no nautical darkness on %s at %s", date.Format("02.01.2006"), p.loc.Name)
	case w.AstronomicalFallback():
		p.log.Info("no astronomical darkness on %s, using nautical window %s - %s",
			date.Format("02.01.2006"), w.Nautical.Start.Format("15:04"), w.Nautical.End.Format("15:04"))
	}

	return &Evening{Window: w, Background: bg}, nil
}

// Evaluate samples a resolved object against a prepared evening.
func (p *Planner) Evaluate(ctx context.Context, ev *Evening, obj catalog.Object, meta catalog.Metadata) (*DSO, error) {
	trace, err := p.sampler.WithObject(ctx, obj.Position, ev.Background)
	if err != nil {
		return nil, err
	}

	peak := visibility.FindPeak(trace, ev.Window, p.opts.Visibility)
	moon := visibility.ScoreTrace(trace, peak, p.opts.MaxIllumination)

	return &DSO{
		Name:     obj.Name,
		Object:   obj,
		Metadata: meta,
		Window:   ev.Window,
		Trace:    trace,
		Peak:     peak,
		Moon:     moon,
	}, nil
}

// Tonight evaluates names for the evening of date. Objects that fail to
// resolve or sample are reported in Result.Failures; the batch continues.
func (p *Planner) Tonight(ctx context.Context, date time.Time, names []string) (*Result, error) {
	start := time.Now()

	ev, err := p.Prepare(ctx, date)
	if err != nil {
		return nil, err
	}
	metrics.SetFallback(ev.Window.AstronomicalFallback())

	outcomes := p.run(ctx, len(names), func(ctx context.Context, i int) Outcome {
		return p.evaluateName(ctx, ev, i, names[i])
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	dsos, failures := splitOutcomes(outcomes)
	res := &Result{
		Date:     ev.Window.Date,
		Window:   ev.Window,
		DSOs:     dsos,
		Failures: failures,
		Duration: time.Since(start),
	}
	metrics.ObservePlan("tonight", res.Duration)

	p.log.Info("evaluated %d of %d objects for %s in %v", len(dsos), len(names),
		res.Date.Format("02.01.2006"), res.Duration.Round(time.Millisecond))
	return res, nil
}

func (p *Planner) evaluateName(ctx context.Context, ev *Evening, index int, name string) Outcome {
	out := Outcome{Name: catalog.NormalizeName(name), Index: index}

	obj, err := p.resolve(ctx, name)
	if err != nil {
		p.log.Warn("skip %s: %v", out.Name, err)
		metrics.RecordEvaluation(metrics.ResultUnresolved)
		out.Err = err
		return out
	}
	meta := p.lookupMetadata(ctx, obj)

	dso, err := p.Evaluate(ctx, ev, obj, meta)
	if err != nil {
		p.log.Warn("skip %s: %v", out.Name, err)
		var ee *ephem.EphemerisError
		if errors.As(err, &ee) {
			metrics.RecordEvaluation(metrics.ResultEphemeris)
		} else {
			metrics.RecordEvaluation(metrics.ResultError)
		}
		out.Err = err
		return out
	}
	dso.Index = index

	metrics.RecordEvaluation(metrics.ResultOK)
	p.log.Debug("%s: peak %.1f° %s at %s visible=%v", dso.Name, dso.Peak.Altitude, dso.Peak.Direction,
		dso.Peak.Time.Format("15:04"), dso.Peak.Visible)
	out.DSO = dso
	return out
}

func (p *Planner) resolve(ctx context.Context, name string) (catalog.Object, error) {
	if p.opts.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ResolveTimeout)
		defer cancel()
	}

	start := time.Now()
	obj, err := p.resolver.Resolve(ctx, name)
	source := obj.Source
	if err != nil {
		source = "failed"
	}
	metrics.ObserveResolve(source, time.Since(start))

	if err != nil {
		var re *catalog.ResolutionError
		if !errors.As(err, &re) {
			err = &catalog.ResolutionError{Name: catalog.NormalizeName(name), Err: err}
		}
		return catalog.Object{}, err
	}
	return obj, nil
}

// lookupMetadata never fails; unknown values stay at their defaults.
func (p *Planner) lookupMetadata(ctx context.Context, obj catalog.Object) catalog.Metadata {
	if p.metadata == nil {
		return catalog.UnknownMetadata()
	}
	if p.opts.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.opts.ResolveTimeout)
		defer cancel()
	}

	id := obj.ID
	if id == "" {
		id = obj.Name
	}
	meta, err := p.metadata.Lookup(ctx, id)
	if err != nil {
		p.log.Debug("metadata %s: %v", obj.Name, err)
		return catalog.UnknownMetadata()
	}
	return meta
}

// run fans n jobs out to the worker pool and returns the outcomes in job
// order. Jobs not run because ctx was cancelled carry ctx.Err().
func (p *Planner) run(ctx context.Context, n int, fn func(ctx context.Context, i int) Outcome) []Outcome {
	if n == 0 {
		return nil
	}
	workers := p.opts.Workers
	if workers > n {
		workers = n
	}

	jobs := make(chan int, workers*2)
	results := make(chan Outcome, workers*2)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out := fn(ctx, i)
				out.Index = i
				select {
				case results <- out:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	outcomes := make([]Outcome, n)
	done := make([]bool, n)
	for out := range results {
		outcomes[out.Index] = out
		done[out.Index] = true
	}
	for i := range outcomes {
		if !done[i] {
			outcomes[i] = Outcome{Index: i, Err: ctx.Err()}
		}
	}
	return outcomes
}
