package store

import (
	"time"
)

// Track is one karting venue plus the stats snapshot from its latest sync.
type Track struct {
	ID          uint   `gorm:"primaryKey"`
	Slug        string `gorm:"uniqueIndex;not null"`
	Name        string `gorm:"not null"`
	Location    string
	Description string

	Stats TrackStats `gorm:"embedded;embeddedPrefix:stats_"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TrackStats is the aggregate snapshot recomputed in full on every sync.
type TrackStats struct {
	TotalDrivers     int
	WorldRecord      float64
	WorldRecordStr   string
	RecordHolder     string
	RecordHolderSlug string
	Mean             float64
	StdDev           float64
	Median           float64
	Slowest          float64
	Top1Percent      float64
	Top5Percent      float64
	Top10Percent     float64
	MetaTime         float64
	LastUpdated      time.Time
}

// Driver is one driver identity, unique across all tracks.
type Driver struct {
	ID         uint   `gorm:"primaryKey"`
	Slug       string `gorm:"uniqueIndex;not null"`
	Name       string `gorm:"not null"`
	ProfileURL string `gorm:"index"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// LapRecord is the fully annotated leaderboard row for one driver at one
// track, keyed by the (track slug, driver slug) pair.
type LapRecord struct {
	ID uint `gorm:"primaryKey"`

	TrackID   uint   `gorm:"not null;index:idx_laprecords_track_position;index:idx_laprecords_tier_track"`
	TrackName string `gorm:"not null"`
	TrackSlug string `gorm:"not null;uniqueIndex:idx_laprecords_track_driver;index:idx_laprecords_slug_position"`

	DriverName string `gorm:"not null"`
	DriverSlug string `gorm:"not null;uniqueIndex:idx_laprecords_track_driver;index"`
	ProfileURL string

	Position    int     `gorm:"not null;index:idx_laprecords_track_position;index:idx_laprecords_slug_position"`
	BestTime    float64 `gorm:"not null"`
	BestTimeStr string  `gorm:"not null"`
	Date        time.Time
	MaxKmh      *int
	MaxG        *float64

	Tier        string `gorm:"not null;index:idx_laprecords_tier_track,priority:1"`
	ZScore      float64
	Percentile  float64
	GapToLeader float64
	Interval    float64

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (LapRecord) TableName() string {
	return "laprecords"
}

// DriverRecord is one driver's performance entry at one track, the
// relational form of the per-track set a driver accumulates. A driver holds
// at most one entry per track.
type DriverRecord struct {
	ID uint `gorm:"primaryKey"`

	DriverSlug string `gorm:"not null;uniqueIndex:idx_driver_records_driver_track"`
	TrackSlug  string `gorm:"not null;uniqueIndex:idx_driver_records_driver_track"`

	TrackID   uint   `gorm:"not null"`
	TrackName string `gorm:"not null"`

	Position    int     `gorm:"not null"`
	BestTime    float64 `gorm:"not null"`
	BestTimeStr string  `gorm:"not null"`
	Date        time.Time
	MaxKmh      *int
	MaxG        *float64

	Tier        string `gorm:"not null"`
	Percentile  float64
	GapToLeader float64
	Interval    float64

	CreatedAt time.Time
	UpdatedAt time.Time
}
