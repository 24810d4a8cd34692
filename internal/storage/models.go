package storage

import (
	"time"

	"gorm.io/gorm"
)

// ObjectRecord caches a resolved catalogue object.
type ObjectRecord struct {
	gorm.Model
	Name   string  `gorm:"uniqueIndex" json:"name"`
	MainID string  `json:"main_id"`
	RAdeg  float64 `gorm:"column:ra_deg" json:"ra_deg"`
	DecDeg float64 `json:"dec_deg"`
	Type   string  `json:"type"`
	Source string  `json:"source"`
}

// NightRecord is one DSO's result for one night at one location.
// Results are fixed per date: a rerun replaces the earlier row.
type NightRecord struct {
	gorm.Model
	Date      string `gorm:"uniqueIndex:idx_night_dso;size:10" json:"date"` // YYYY-MM-DD, evening
	Location  string `gorm:"uniqueIndex:idx_night_dso" json:"location"`
	Name      string `gorm:"uniqueIndex:idx_night_dso" json:"name"`
	Catalogue string `json:"catalogue"`
	Position  int    `json:"position"` // 1-based position in the requested list

	Bucket       string    `gorm:"index" json:"bucket"` // astronomical, nautical or invisible
	PeakAltitude float64   `json:"peak_altitude"`
	PeakAzimuth  float64   `json:"peak_azimuth"`
	Direction    string    `json:"direction"`
	PeakTime     time.Time `json:"peak_time"`
	Visible      bool      `json:"visible"`

	MoonPasses       bool    `json:"moon_passes"`
	MoonTop          bool    `json:"moon_top"`
	MoonAltitude     float64 `json:"moon_altitude"`
	MoonIllumination float64 `json:"moon_illumination_pct"`
	MoonText         string  `json:"moon_text"`

	Magnitude float64 `json:"magnitude"`
	ObjType   string  `json:"object_type"`
}

// NightSummary lists the stored nights.
type NightSummary struct {
	Date     string `json:"date"`
	Location string `json:"location"`
	Count    int64  `json:"count"`
}
