package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/kartingops/laptimeoor/pkg/config"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Store provides persistence for synced tracks, drivers and lap records.
// Lookup methods return (nil, nil) when the row does not exist.
type Store interface {
	Start(ctx context.Context) error
	Stop() error

	UpsertTrack(ctx context.Context, track *Track) error
	GetTrackBySlug(ctx context.Context, slug string) (*Track, error)

	UpsertDriver(ctx context.Context, driver *Driver) error
	GetDriverBySlug(ctx context.Context, slug string) (*Driver, error)
	CountDrivers(ctx context.Context) (int64, error)

	UpsertLapRecord(ctx context.Context, record *LapRecord) error
	ListLapRecords(ctx context.Context, trackSlug string) ([]LapRecord, error)

	UpsertDriverRecord(ctx context.Context, record *DriverRecord) error
	ListDriverRecords(
		ctx context.Context, driverSlug string,
	) ([]DriverRecord, error)
}

// Compile-time interface check.
var _ Store = (*store)(nil)

type store struct {
	log logrus.FieldLogger
	cfg *config.DatabaseConfig
	db  *gorm.DB
}

// NewStore creates a new Store backed by the configured database driver.
func NewStore(
	log logrus.FieldLogger,
	cfg *config.DatabaseConfig,
) Store {
	return &store{
		log: log.WithField("component", "store"),
		cfg: cfg,
	}
}

// Start opens the database connection and runs migrations.
func (s *store) Start(ctx context.Context) error {
	var dialector gorm.Dialector

	gormCfg := &gorm.Config{
		Logger: logger.Discard,
	}

	switch s.cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(s.cfg.DSN)
	case "postgres":
		dialector = postgres.Open(s.cfg.DSN)
	default:
		return fmt.Errorf("unsupported database driver: %s", s.cfg.Driver)
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}

	s.db = db

	if err := s.db.WithContext(ctx).AutoMigrate(
		&Track{},
		&Driver{},
		&LapRecord{},
		&DriverRecord{},
	); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	s.log.WithField("driver", s.cfg.Driver).Info("Database connected")

	return nil
}

// Stop closes the underlying database connection.
func (s *store) Stop() error {
	if s.db == nil {
		return nil
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("getting underlying db: %w", err)
	}

	return sqlDB.Close()
}

// --- Tracks ---

// UpsertTrack inserts or updates a track keyed by slug, replacing the stats
// snapshot in full. The track's ID is backfilled on both paths.
func (s *store) UpsertTrack(ctx context.Context, track *Track) error {
	result := s.db.WithContext(ctx).
		Where("slug = ?", track.Slug).
		Assign(track.assignments()).
		FirstOrCreate(track)
	if result.Error != nil {
		return fmt.Errorf("upserting track: %w", result.Error)
	}

	return nil
}

// GetTrackBySlug returns the track, or nil when it does not exist.
func (s *store) GetTrackBySlug(
	ctx context.Context, slug string,
) (*Track, error) {
	var track Track
	if err := s.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&track).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting track by slug: %w", err)
	}

	return &track, nil
}

// assignments is the Assign column map for upserts. A map keeps zero values
// updatable (gorm skips zero struct fields on update, which would leave a
// leader's 0.0 gap stale).
func (t *Track) assignments() map[string]interface{} {
	return map[string]interface{}{
		"name":                     t.Name,
		"location":                 t.Location,
		"description":              t.Description,
		"stats_total_drivers":      t.Stats.TotalDrivers,
		"stats_world_record":       t.Stats.WorldRecord,
		"stats_world_record_str":   t.Stats.WorldRecordStr,
		"stats_record_holder":      t.Stats.RecordHolder,
		"stats_record_holder_slug": t.Stats.RecordHolderSlug,
		"stats_mean":               t.Stats.Mean,
		"stats_std_dev":            t.Stats.StdDev,
		"stats_median":             t.Stats.Median,
		"stats_slowest":            t.Stats.Slowest,
		"stats_top1_percent":       t.Stats.Top1Percent,
		"stats_top5_percent":       t.Stats.Top5Percent,
		"stats_top10_percent":      t.Stats.Top10Percent,
		"stats_meta_time":          t.Stats.MetaTime,
		"stats_last_updated":       t.Stats.LastUpdated,
	}
}

// --- Drivers ---

// UpsertDriver inserts or updates a driver keyed by slug, replacing the
// identity fields.
func (s *store) UpsertDriver(ctx context.Context, driver *Driver) error {
	result := s.db.WithContext(ctx).
		Where("slug = ?", driver.Slug).
		Assign(driver.assignments()).
		FirstOrCreate(driver)
	if result.Error != nil {
		return fmt.Errorf("upserting driver: %w", result.Error)
	}

	return nil
}

// GetDriverBySlug returns the driver, or nil when it does not exist.
func (s *store) GetDriverBySlug(
	ctx context.Context, slug string,
) (*Driver, error) {
	var driver Driver
	if err := s.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&driver).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("getting driver by slug: %w", err)
	}

	return &driver, nil
}

func (s *store) CountDrivers(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).
		Model(&Driver{}).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("counting drivers: %w", err)
	}

	return count, nil
}

func (d *Driver) assignments() map[string]interface{} {
	return map[string]interface{}{
		"name":        d.Name,
		"profile_url": d.ProfileURL,
	}
}

// --- Lap records ---

// UpsertLapRecord inserts or updates the annotated row keyed by
// (track slug, driver slug). All computed fields are replaced so repeated
// syncs converge to current values.
func (s *store) UpsertLapRecord(ctx context.Context, record *LapRecord) error {
	result := s.db.WithContext(ctx).
		Where("track_slug = ? AND driver_slug = ?",
			record.TrackSlug, record.DriverSlug).
		Assign(record.assignments()).
		FirstOrCreate(record)
	if result.Error != nil {
		return fmt.Errorf("upserting lap record: %w", result.Error)
	}

	return nil
}

// ListLapRecords returns a track's lap records ordered by position.
func (s *store) ListLapRecords(
	ctx context.Context, trackSlug string,
) ([]LapRecord, error) {
	var records []LapRecord
	if err := s.db.WithContext(ctx).
		Where("track_slug = ?", trackSlug).
		Order("position ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing lap records: %w", err)
	}

	return records, nil
}

func (r *LapRecord) assignments() map[string]interface{} {
	return map[string]interface{}{
		"track_id":      r.TrackID,
		"track_name":    r.TrackName,
		"driver_name":   r.DriverName,
		"profile_url":   r.ProfileURL,
		"position":      r.Position,
		"best_time":     r.BestTime,
		"best_time_str": r.BestTimeStr,
		"date":          r.Date,
		"max_kmh":       r.MaxKmh,
		"max_g":         r.MaxG,
		"tier":          r.Tier,
		"z_score":       r.ZScore,
		"percentile":    r.Percentile,
		"gap_to_leader": r.GapToLeader,
		"interval":      r.Interval,
	}
}

// --- Driver records ---

// UpsertDriverRecord inserts or updates a driver's per-track entry keyed by
// (driver slug, track slug), so re-syncing a track never accumulates
// duplicate entries in the driver's set.
func (s *store) UpsertDriverRecord(
	ctx context.Context, record *DriverRecord,
) error {
	result := s.db.WithContext(ctx).
		Where("driver_slug = ? AND track_slug = ?",
			record.DriverSlug, record.TrackSlug).
		Assign(record.assignments()).
		FirstOrCreate(record)
	if result.Error != nil {
		return fmt.Errorf("upserting driver record: %w", result.Error)
	}

	return nil
}

// ListDriverRecords returns a driver's per-track entries ordered by track
// slug.
func (s *store) ListDriverRecords(
	ctx context.Context, driverSlug string,
) ([]DriverRecord, error) {
	var records []DriverRecord
	if err := s.db.WithContext(ctx).
		Where("driver_slug = ?", driverSlug).
		Order("track_slug ASC").
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("listing driver records: %w", err)
	}

	return records, nil
}

func (r *DriverRecord) assignments() map[string]interface{} {
	return map[string]interface{}{
		"track_id":      r.TrackID,
		"track_name":    r.TrackName,
		"position":      r.Position,
		"best_time":     r.BestTime,
		"best_time_str": r.BestTimeStr,
		"date":          r.Date,
		"max_kmh":       r.MaxKmh,
		"max_g":         r.MaxG,
		"tier":          r.Tier,
		"percentile":    r.Percentile,
		"gap_to_leader": r.GapToLeader,
		"interval":      r.Interval,
	}
}
