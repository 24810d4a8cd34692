// Package storage persists resolved objects and nightly results in sqlite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/yetanothergithubaccount/DSObest/internal/astro"
	"github.com/yetanothergithubaccount/DSObest/internal/catalog"
	"github.com/yetanothergithubaccount/DSObest/internal/plan"
)

// DateLayout is the stored form of an evening date.
const DateLayout = "2006-01-02"

// Database wraps the sqlite store.
type Database struct {
	db *gorm.DB
}

// Open opens or creates the database at path and migrates the schema.
func Open(path string) (*Database, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.AutoMigrate(&ObjectRecord{}, &NightRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Database{db: db}, nil
}

// LoadObject implements catalog.ObjectStore.
func (d *Database) LoadObject(ctx context.Context, name string) (catalog.Object, error) {
	var rec ObjectRecord
	err := d.db.WithContext(ctx).Where("name = ?", catalog.NormalizeName(name)).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.Object{}, catalog.ErrNotFound
	}
	if err != nil {
		return catalog.Object{}, err
	}

	return catalog.Object{
		Name:     rec.Name,
		ID:       rec.MainID,
		Position: astro.Equatorial{RAdeg: rec.RAdeg, DecDeg: rec.DecDeg},
		Type:     rec.Type,
		Source:   rec.Source,
	}, nil
}

// SaveObject implements catalog.ObjectStore.
func (d *Database) SaveObject(ctx context.Context, obj catalog.Object) error {
	rec := &ObjectRecord{
		Name:   catalog.NormalizeName(obj.Name),
		MainID: obj.ID,
		RAdeg:  obj.Position.RAdeg,
		DecDeg: obj.Position.DecDeg,
		Type:   obj.Type,
		Source: obj.Source,
	}
	return d.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"main_id", "ra_deg", "dec_deg", "type", "source", "updated_at"}),
	}).Create(rec).Error
}

// CountObjects returns the number of cached objects.
func (d *Database) CountObjects(ctx context.Context) (int64, error) {
	var n int64
	err := d.db.WithContext(ctx).Model(&ObjectRecord{}).Count(&n).Error
	return n, err
}

// NightRecords flattens a ranking into rows. The ranking should be built
// with plan.NoFilter so every DSO is kept.
func NightRecords(date time.Time, location, catalogue string, r plan.Ranking) []NightRecord {
	var recs []NightRecord
	add := func(bucket string, dsos []*plan.DSO) {
		for _, d := range dsos {
			recs = append(recs, NightRecord{
				Date:             date.Format(DateLayout),
				Location:         location,
				Name:             d.Name,
				Catalogue:        catalogue,
				Position:         d.Index + 1,
				Bucket:           bucket,
				PeakAltitude:     d.Peak.Altitude,
				PeakAzimuth:      d.Peak.Azimuth,
				Direction:        d.Peak.Direction.String(),
				PeakTime:         d.Peak.Time,
				Visible:          d.Peak.Visible,
				MoonPasses:       d.Moon.Passes,
				MoonTop:          d.Moon.Top,
				MoonAltitude:     d.Moon.MoonAlt,
				MoonIllumination: d.Moon.MoonIllumPercent,
				MoonText:         d.Moon.Text(),
				Magnitude:        d.Metadata.Magnitude,
				ObjType:          d.Metadata.Type,
			})
		}
	}
	add("astronomical", r.Astronomical)
	add("nautical", r.Nautical)
	add("invisible", r.Invisible)
	return recs
}

// SaveNight replaces the stored results of one night at one location.
func (d *Database) SaveNight(ctx context.Context, date, location string, recs []NightRecord) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("date = ? AND location = ?", date, location).Delete(&NightRecord{}).Error; err != nil {
			return err
		}
		if len(recs) == 0 {
			return nil
		}
		return tx.Create(&recs).Error
	})
}

// GetNight returns the stored results of a night, peak time ascending within
// each bucket. An empty location matches every location.
func (d *Database) GetNight(ctx context.Context, date, location string) ([]NightRecord, error) {
	q := d.db.WithContext(ctx).Where("date = ?", date)
	if location != "" {
		q = q.Where("location = ?", location)
	}

	var recs []NightRecord
	result := q.Order("bucket asc").Order("peak_time asc").Find(&recs)
	if result.Error != nil {
		return nil, result.Error
	}
	return recs, nil
}

// ListNights returns the stored nights, newest first.
func (d *Database) ListNights(ctx context.Context, limit int) ([]NightSummary, error) {
	if limit <= 0 {
		limit = 30
	}
	var out []NightSummary
	result := d.db.WithContext(ctx).Model(&NightRecord{}).
		Select("date, location, COUNT(*) AS count").
		Group("date, location").
		Order("date desc").
		Limit(limit).
		Scan(&out)
	if result.Error != nil {
		return nil, result.Error
	}
	return out, nil
}

// CleanOldNights removes results for evenings before cutoff.
func (d *Database) CleanOldNights(ctx context.Context, cutoff time.Time) error {
	return d.db.WithContext(ctx).Unscoped().Where("date < ?", cutoff.Format(DateLayout)).Delete(&NightRecord{}).Error
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
