package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/notify"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/report"
)

type bestOptions struct {
	dso       string
	catalogue string
	year      int
	message   bool
}

func bestCmd() *cobra.Command {
	var o bestOptions

	cmd := &cobra.Command{
		Use:   "best",
		Short: "Find the best month for DSOs",
		Long:  "Evaluate DSOs on the 1st of every month of --year and chart their peak altitude",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx, stop := signalContext()
			defer stop()
			return runBest(ctx, a, o)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.dso, "dso", "", "evaluate a single DSO instead of a catalogue")
	f.StringVar(&o.catalogue, "catalogue", catalog.Messier.Name, "catalogue (Messier, Caldwell)")
	f.IntVar(&o.year, "year", time.Now().Year(), "year to evaluate")
	f.BoolVar(&o.message, "message", false, "send each year message with its chart")
	return cmd
}

func runBest(ctx context.Context, a *app, o bestOptions) error {
	cat, err := catalog.Lookup(o.catalogue)
	if err != nil {
		return err
	}
	names := cat.Objects
	if dso := strings.TrimSpace(o.dso); dso != "" {
		names = []string{dso}
	}

	var d notify.Dispatcher
	if o.message {
		var release func()
		d, release = a.dispatcher()
		defer release()
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	failed := 0
	for _, name := range names {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		y, err := a.planner.Year(ctx, name, o.year)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			a.log.Warn("%s skipped: %v", name, err)
			failed++
			continue
		}

		if err := report.WriteYearChart(os.Stdout, y, report.ChartWidth, styled); err != nil {
			return err
		}
		msg := report.YearMessage(a.cfg.Location, y)
		fmt.Println(msg)
		fmt.Println()

		chartPath, err := writeYearChart(a.cfg.Report.OutputDir, y)
		if err != nil {
			a.log.Warn("write chart for %s: %v", y.Name, err)
		}

		if d != nil {
			if err := d.Text(ctx, msg); err != nil {
				a.log.Warn("send message: %v", err)
			}
			if chartPath != "" {
				if err := d.File(ctx, chartPath); err != nil {
					a.log.Warn("send chart: %v", err)
				}
			}
		}
	}

	if failed == len(names) {
		return fmt.Errorf("no DSO could be evaluated for %d", o.year)
	}
	return nil
}

// writeYearChart saves the unstyled chart next to the other reports.
func writeYearChart(dir string, y *plan.YearPlan) (string, error) {
	var buf bytes.Buffer
	if err := report.WriteYearChart(&buf, y, report.ChartWidth, false); err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, report.ChartFileName(y.Name, y.Year)+".txt")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
