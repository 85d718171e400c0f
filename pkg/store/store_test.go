package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kartingops/laptimeoor/pkg/config"
	"github.com/kartingops/laptimeoor/pkg/store"
)

func setupTestStore(t *testing.T) store.Store {
	t.Helper()

	cfg := &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    ":memory:",
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := store.NewStore(log, cfg)
	require.NoError(t, s.Start(context.Background()))

	t.Cleanup(func() { _ = s.Stop() })

	return s
}

func sampleTrack() *store.Track {
	return &store.Track{
		Slug:        "sportzilla-formula-karting",
		Name:        "Sportzilla Formula Karting",
		Location:    "Lahore, Pakistan",
		Description: "Premier karting track in Lahore",
		Stats: store.TrackStats{
			TotalDrivers:     3,
			WorldRecord:      59.0,
			WorldRecordStr:   "00:59.000",
			RecordHolder:     "Ammar Hassan",
			RecordHolderSlug: "ammar-hassan",
			Mean:             60.0,
			StdDev:           1.0,
			Median:           60.0,
			Slowest:          61.0,
			Top1Percent:      59.02,
			Top5Percent:      59.1,
			Top10Percent:     59.2,
			MetaTime:         59.05,
			LastUpdated:      time.Now().UTC(),
		},
	}
}

func TestStore_UpsertTrack(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	track := sampleTrack()
	require.NoError(t, s.UpsertTrack(ctx, track))
	assert.NotZero(t, track.ID, "ID must be backfilled on insert")

	got, err := s.GetTrackBySlug(ctx, track.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Sportzilla Formula Karting", got.Name)
	assert.Equal(t, "Lahore, Pakistan", got.Location)
	assert.Equal(t, 3, got.Stats.TotalDrivers)
	assert.InDelta(t, 59.0, got.Stats.WorldRecord, 1e-9)
	assert.Equal(t, "ammar-hassan", got.Stats.RecordHolderSlug)
}

func TestStore_GetMissingReturnsNil(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	track, err := s.GetTrackBySlug(ctx, "never-synced")
	require.NoError(t, err)
	assert.Nil(t, track)

	driver, err := s.GetDriverBySlug(ctx, "never-raced")
	require.NoError(t, err)
	assert.Nil(t, driver)
}

func TestStore_UpsertTrackIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first := sampleTrack()
	require.NoError(t, s.UpsertTrack(ctx, first))

	// A later sync with fresh stats must update in place, not duplicate.
	second := sampleTrack()
	second.Stats.TotalDrivers = 4
	second.Stats.WorldRecord = 58.5
	second.Stats.StdDev = 0
	require.NoError(t, s.UpsertTrack(ctx, second))

	assert.Equal(t, first.ID, second.ID)

	got, err := s.GetTrackBySlug(ctx, first.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 4, got.Stats.TotalDrivers)
	assert.InDelta(t, 58.5, got.Stats.WorldRecord, 1e-9)
	assert.Zero(t, got.Stats.StdDev, "zero stats must overwrite stale values")
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt),
		"created timestamp must never be overwritten")
}

func TestStore_UpsertDriver(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	driver := &store.Driver{
		Slug:       "ammar-hassan",
		Name:       "Ammar Hassan",
		ProfileURL: "https://example.com/drivers/ammar-hassan",
	}
	require.NoError(t, s.UpsertDriver(ctx, driver))

	// Re-syncing with a changed profile URL replaces identity fields.
	updated := &store.Driver{
		Slug:       "ammar-hassan",
		Name:       "Ammar Hassan",
		ProfileURL: "https://example.com/profiles/ammar-hassan",
	}
	require.NoError(t, s.UpsertDriver(ctx, updated))

	got, err := s.GetDriverBySlug(ctx, "ammar-hassan")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, driver.ID, got.ID)
	assert.Equal(t, "https://example.com/profiles/ammar-hassan", got.ProfileURL)

	count, err := s.CountDrivers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestStore_UpsertLapRecordConvergesToCurrent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	record := &store.LapRecord{
		TrackID:     1,
		TrackName:   "Apex Autodrome",
		TrackSlug:   "apex-autodrome",
		DriverName:  "Bilal Khan",
		DriverSlug:  "bilal-khan",
		ProfileURL:  "https://example.com/drivers/bilal-khan",
		Position:    2,
		BestTime:    60.0,
		BestTimeStr: "01:00.000",
		Date:        time.Date(2025, time.December, 27, 0, 0, 0, 0, time.UTC),
		Tier:        "C",
		Percentile:  66.67,
		GapToLeader: 1.0,
		Interval:    1.0,
	}
	require.NoError(t, s.UpsertLapRecord(ctx, record))

	// After the old leader drops out this driver leads the track. The
	// re-sync must overwrite every computed field, zero values included.
	promoted := &store.LapRecord{
		TrackID:     1,
		TrackName:   "Apex Autodrome",
		TrackSlug:   "apex-autodrome",
		DriverName:  "Bilal Khan",
		DriverSlug:  "bilal-khan",
		ProfileURL:  "https://example.com/drivers/bilal-khan",
		Position:    1,
		BestTime:    60.0,
		BestTimeStr: "01:00.000",
		Date:        time.Date(2025, time.December, 27, 0, 0, 0, 0, time.UTC),
		Tier:        "B",
		ZScore:      -0.7,
		Percentile:  50.0,
		GapToLeader: 0.0,
		Interval:    0.0,
	}
	require.NoError(t, s.UpsertLapRecord(ctx, promoted))

	records, err := s.ListLapRecords(ctx, "apex-autodrome")
	require.NoError(t, err)
	require.Len(t, records, 1, "upsert must not duplicate the row")

	got := records[0]
	assert.Equal(t, 1, got.Position)
	assert.Equal(t, "B", got.Tier)
	assert.InDelta(t, -0.7, got.ZScore, 1e-9)
	assert.Zero(t, got.GapToLeader, "leader gap must overwrite the stale value")
	assert.Zero(t, got.Interval)
}

func TestStore_ListLapRecordsOrderedByPosition(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, r := range []struct {
		slug string
		pos  int
	}{
		{slug: "usman-tariq", pos: 3},
		{slug: "ammar-hassan", pos: 1},
		{slug: "bilal-khan", pos: 2},
	} {
		record := &store.LapRecord{
			TrackID:     1,
			TrackName:   "Apex Autodrome",
			TrackSlug:   "apex-autodrome",
			DriverName:  r.slug,
			DriverSlug:  r.slug,
			Position:    r.pos,
			BestTime:    58.0 + float64(r.pos),
			BestTimeStr: "00:59.000",
			Tier:        "C",
		}
		require.NoError(t, s.UpsertLapRecord(ctx, record))
	}

	records, err := s.ListLapRecords(ctx, "apex-autodrome")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "ammar-hassan", records[0].DriverSlug)
	assert.Equal(t, "bilal-khan", records[1].DriverSlug)
	assert.Equal(t, "usman-tariq", records[2].DriverSlug)

	other, err := s.ListLapRecords(ctx, "no-such-track")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestStore_UpsertDriverRecordSetSemantics(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entry := &store.DriverRecord{
		DriverSlug:  "ammar-hassan",
		TrackSlug:   "sportzilla-formula-karting",
		TrackID:     1,
		TrackName:   "Sportzilla Formula Karting",
		Position:    1,
		BestTime:    59.0,
		BestTimeStr: "00:59.000",
		Tier:        "S",
		Percentile:  33.33,
	}
	require.NoError(t, s.UpsertDriverRecord(ctx, entry))

	// Same driver and track with an improved time: the entry is replaced,
	// not appended.
	improved := &store.DriverRecord{
		DriverSlug:  "ammar-hassan",
		TrackSlug:   "sportzilla-formula-karting",
		TrackID:     1,
		TrackName:   "Sportzilla Formula Karting",
		Position:    1,
		BestTime:    58.2,
		BestTimeStr: "00:58.200",
		Tier:        "S+",
		Percentile:  33.33,
	}
	require.NoError(t, s.UpsertDriverRecord(ctx, improved))

	// A second track accumulates a second entry.
	apex := &store.DriverRecord{
		DriverSlug:  "ammar-hassan",
		TrackSlug:   "apex-autodrome",
		TrackID:     2,
		TrackName:   "Apex Autodrome",
		Position:    4,
		BestTime:    45.1,
		BestTimeStr: "00:45.100",
		Tier:        "A",
		Percentile:  12.5,
	}
	require.NoError(t, s.UpsertDriverRecord(ctx, apex))

	records, err := s.ListDriverRecords(ctx, "ammar-hassan")
	require.NoError(t, err)
	require.Len(t, records, 2, "one entry per track")

	assert.Equal(t, "apex-autodrome", records[0].TrackSlug)
	assert.Equal(t, "sportzilla-formula-karting", records[1].TrackSlug)
	assert.InDelta(t, 58.2, records[1].BestTime, 1e-9)
	assert.Equal(t, "S+", records[1].Tier)
}

func TestStore_StartUnsupportedDriver(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := store.NewStore(log, &config.DatabaseConfig{
		Driver: "mongodb",
		DSN:    "mongodb://localhost",
	})

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported database driver")
}

func TestStore_StopBeforeStart(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	s := store.NewStore(log, &config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    ":memory:",
	})

	assert.NoError(t, s.Stop())
}
