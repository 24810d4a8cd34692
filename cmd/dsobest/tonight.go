package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/metrics"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/report"
	"github.com/yetanothergithubaccount/DSObest/internal/storage"
	"github.com/yetanothergithubaccount/DSObest/internal/ui"
)

type tonightOptions struct {
	dso         string
	catalogue   string
	date        string
	moon        bool
	top         bool
	direction   string
	tui         bool
	jsonPath    string
	message     bool
	metricsFile string
}

func tonightCmd() *cobra.Command {
	var o tonightOptions

	cmd := &cobra.Command{
		Use:   "tonight",
		Short: "Rank DSOs for one night",
		Long:  "Evaluate a catalogue (or one DSO) for the night starting on --date and list it by darkness window",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext()
			defer stop()
			return runTonight(ctx, a, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.dso, "dso", "", "evaluate a single DSO instead of a catalogue")
	f.StringVar(&o.catalogue, "catalogue", catalog.Messier.Name, "catalogue (Messier, Caldwell)")
	f.StringVar(&o.date, "date", "", "evening date DD.MM.YYYY (default today)")
	f.BoolVar(&o.moon, "moon", false, "only DSOs with a passing moon score")
	f.BoolVar(&o.top, "top", false, "only DSOs seen with the moon below the horizon")
	f.StringVar(&o.direction, "direction", "", "preferred direction (N, NE, E, SE, S, SW, W, NW)")
	f.BoolVar(&o.tui, "tui", false, "browse the night interactively")
	f.StringVar(&o.jsonPath, "json", "", "write the JSON report to this path (- for stdout)")
	f.BoolVar(&o.message, "message", false, "send the results message")
	f.StringVar(&o.metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format")
	return cmd
}

func (o tonightOptions) filter() (plan.Filter, error) {
	f := plan.NoFilter
	f.Moon = o.moon
	f.TopOnly = o.top
	if o.direction != "" {
		d, ok := astro.ParseDirection(o.direction)
		if !ok {
			return f, fmt.Errorf("invalid direction %q", o.direction)
		}
		f.Direction = d
	}
	return f, nil
}

func runTonight(ctx context.Context, a *app, o tonightOptions) error {
	loc := a.cfg.Location
	date, err := plan.ParseDate(o.date, loc.TZ(), time.Now())
	if err != nil {
		return err
	}
	filter, err := o.filter()
	if err != nil {
		return err
	}
	cat, err := catalog.Lookup(o.catalogue)
	if err != nil {
		return err
	}
	names := cat.Objects
	if dso := strings.TrimSpace(o.dso); dso != "" {
		names = []string{dso}
	}

	a.log.Info("Planning %d DSOs for %s at %s", len(names), date.Format("02.01.2006"), loc.Name)
	res, err := a.planner.Tonight(ctx, date, names)
	if err != nil {
		return fmt.Errorf("plan night: %w", err)
	}
	for _, f := range res.Failures {
		a.log.Warn("%s skipped: %v", f.Name, f.Err)
	}

	all := plan.Rank(res.DSOs, plan.NoFilter)
	metrics.SetRanking(len(all.Astronomical), len(all.Nautical), len(all.Invisible))
	metrics.SetFallback(res.Window.AstronomicalFallback())
	if a.db != nil {
		recs := storage.NightRecords(date, loc.Name, cat.Name, all)
		if err := a.db.SaveNight(ctx, date.Format(storage.DateLayout), loc.Name, recs); err != nil {
			a.log.Warn("save night: %v", err)
		}
	}

	if o.tui {
		return ui.Run(loc, res, filter)
	}

	ranking := plan.Rank(res.DSOs, filter)
	n := report.NewNight(loc, cat.Name, res, ranking, o.moon || o.top)

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	if o.jsonPath != "-" {
		if err := report.WriteSummary(os.Stdout, n, styled); err != nil {
			return err
		}
		fmt.Println()
		observable := append(append([]*plan.DSO{}, ranking.Astronomical...), ranking.Nautical...)
		if err := report.WriteAltitudeChart(os.Stdout, observable, report.ChartWidth, styled); err != nil {
			return err
		}
	}

	export := report.ExportNight(n, time.Now())
	jsonPath := o.jsonPath
	switch {
	case jsonPath == "-":
		if err := export.WriteJSON(os.Stdout); err != nil {
			return fmt.Errorf("write JSON to stdout: %w", err)
		}
	case jsonPath == "" && o.message:
		jsonPath = filepath.Join(a.cfg.Report.OutputDir, n.FileName()+".json")
		fallthrough
	case jsonPath != "":
		if err := report.WriteFile(jsonPath, export); err != nil {
			return err
		}
		a.log.Info("Report written to %s", jsonPath)
	}

	if o.message {
		d, release := a.dispatcher()
		defer release()
		if err := d.Text(ctx, n.Message()); err != nil {
			a.log.Warn("send message: %v", err)
		}
		if jsonPath != "-" {
			if err := d.File(ctx, jsonPath); err != nil {
				a.log.Warn("send report: %v", err)
			}
		}
	}

	if o.metricsFile != "" {
		if err := metrics.WriteTextfile(o.metricsFile); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return nil
}
