package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/night"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
	"github.com/yetanothergithubaccount/DSObest/internal/visibility"
)

func TestTonightOptions_Filter(t *testing.T) {
	tests := []struct {
		name    string
		opts    tonightOptions
		want    plan.Filter
		wantErr bool
	}{
		{"none", tonightOptions{}, plan.NoFilter, false},
		{"moon", tonightOptions{moon: true}, plan.Filter{Moon: true, Direction: astro.NoDirection}, false},
		{"top south", tonightOptions{top: true, direction: "s"}, plan.Filter{TopOnly: true, Direction: astro.South}, false},
		{"bad direction", tonightOptions{direction: "UP"}, plan.Filter{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.opts.filter()
			if (err != nil) != tt.wantErr {
				t.Fatalf("filter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("filter() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestWriteYearChart(t *testing.T) {
	y := &plan.YearPlan{Name: "NGC 7000", Year: 2025, Months: make([]*plan.DSO, 12), Best: -1}
	for i := range y.Months {
		date := time.Date(2025, time.Month(i+1), 1, 0, 0, 0, 0, time.UTC)
		y.Months[i] = &plan.DSO{
			Name:   y.Name,
			Window: night.Window{Date: date, Midnight: date.AddDate(0, 0, 1)},
			Peak:   visibility.EmptyPeak(),
		}
	}

	dir := filepath.Join(t.TempDir(), "charts")
	path, err := writeYearChart(dir, y)
	if err != nil {
		t.Fatalf("writeYearChart() error = %v", err)
	}
	if filepath.Base(path) != "DSO_NGC7000_2025.txt" {
		t.Errorf("path = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "NGC 7000") {
		t.Errorf("chart missing the DSO name:\n%s", data)
	}
	if strings.Contains(string(data), "\x1b[") {
		t.Error("saved chart should not carry ANSI styling")
	}
}
