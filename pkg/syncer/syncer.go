package syncer

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kartingops/laptimeoor/pkg/config"
	"github.com/kartingops/laptimeoor/pkg/laptime"
	"github.com/kartingops/laptimeoor/pkg/leaderboard"
	"github.com/kartingops/laptimeoor/pkg/ranking"
	"github.com/kartingops/laptimeoor/pkg/slug"
	"github.com/kartingops/laptimeoor/pkg/source"
	"github.com/kartingops/laptimeoor/pkg/stats"
	"github.com/kartingops/laptimeoor/pkg/store"
	"github.com/kartingops/laptimeoor/pkg/tier"
)

// Syncer turns one track's leaderboard export into tiered, ranked records
// and upserts them into the store.
type Syncer interface {
	// SyncTrack runs the full pipeline for a single catalog entry. Writes
	// already committed when an error occurs are not rolled back.
	SyncTrack(
		ctx context.Context, track config.TrackConfig,
	) (*TrackResult, error)
}

// TrackResult summarizes one synced track for the run summary.
type TrackResult struct {
	Track        string `json:"track"`
	Slug         string `json:"slug"`
	Drivers      int    `json:"drivers"`
	Records      int    `json:"records"`
	WorldRecord  string `json:"world_record"`
	RecordHolder string `json:"record_holder"`
}

// Compile-time interface check.
var _ Syncer = (*syncer)(nil)

type syncer struct {
	log    logrus.FieldLogger
	cfg    *config.SyncConfig
	store  store.Store
	reader source.Reader
}

// NewSyncer creates a Syncer that reads exports through the given source
// and writes through the given store.
func NewSyncer(
	log logrus.FieldLogger,
	cfg *config.SyncConfig,
	st store.Store,
	reader source.Reader,
) Syncer {
	return &syncer{
		log:    log.WithField("component", "syncer"),
		cfg:    cfg,
		store:  st,
		reader: reader,
	}
}

// lap is one leaderboard row carried through the pipeline, growing its
// normalized and computed fields stage by stage.
type lap struct {
	leaderboard.Row

	Slug    string
	Seconds float64
	Date    time.Time

	ZScore     float64
	Tier       tier.Tier
	Percentile float64
	Gap        ranking.Gap
}

func (s *syncer) SyncTrack(
	ctx context.Context, track config.TrackConfig,
) (*TrackResult, error) {
	trackSlug := track.Slug()
	log := s.log.WithField("track", trackSlug)

	log.WithField("csv_path", track.CSVPath).Info("Syncing track")

	data, err := s.reader.Get(ctx, track.CSVPath)
	if err != nil {
		return nil, fmt.Errorf("fetching leaderboard: %w", err)
	}

	if data == nil {
		return nil, fmt.Errorf("leaderboard file %q not found", track.CSVPath)
	}

	rows, err := leaderboard.Parse(log, data)
	if err != nil {
		return nil, fmt.Errorf("parsing leaderboard: %w", err)
	}

	laps := s.normalize(log, rows)
	if len(laps) == 0 {
		return nil, fmt.Errorf("no valid laps in %q", track.CSVPath)
	}

	log.WithFields(logrus.Fields{
		"rows": len(rows),
		"laps": len(laps),
	}).Info("Leaderboard cleaned")

	statLaps := make([]stats.Lap, 0, len(laps))
	for _, l := range laps {
		statLaps = append(statLaps, stats.Lap{
			Driver:  l.Name,
			Slug:    l.Slug,
			Seconds: l.Seconds,
		})
	}

	trackStats := stats.Compute(statLaps)

	log.WithFields(logrus.Fields{
		"drivers":       trackStats.TotalDrivers,
		"world_record":  laptime.FormatTime(trackStats.WorldRecord),
		"record_holder": trackStats.RecordHolder,
		"mean":          laptime.FormatTime(trackStats.Mean),
		"median":        laptime.FormatTime(trackStats.Median),
		"std_dev":       fmt.Sprintf("%.3fs", trackStats.StdDev),
	}).Info("Track statistics computed")

	// Gap and interval are defined over the time-ordered field.
	sort.SliceStable(laps, func(i, j int) bool {
		return laps[i].Seconds < laps[j].Seconds
	})

	times := make([]float64, len(laps))
	for i, l := range laps {
		times[i] = l.Seconds
	}

	gaps := ranking.Annotate(times)

	distribution := make(map[tier.Tier]int, len(tier.Ladder))

	for i := range laps {
		laps[i].ZScore = tier.ZScore(
			laps[i].Seconds, trackStats.Mean, trackStats.StdDev,
		)
		laps[i].Tier = tier.FromZScore(laps[i].ZScore)
		laps[i].Percentile = tier.Percentile(
			laps[i].Position, trackStats.TotalDrivers,
		)
		laps[i].Gap = gaps[i]

		distribution[laps[i].Tier]++
	}

	for _, tr := range tier.Ladder {
		count := distribution[tr]
		if count == 0 {
			continue
		}

		log.WithFields(logrus.Fields{
			"tier":    string(tr),
			"drivers": count,
			"share": fmt.Sprintf("%.2f%%",
				float64(count)/float64(trackStats.TotalDrivers)*100),
		}).Info("Tier distribution")
	}

	trackModel := &store.Track{
		Slug:        trackSlug,
		Name:        track.Name,
		Location:    track.Location,
		Description: track.Description,
		Stats: store.TrackStats{
			TotalDrivers:     trackStats.TotalDrivers,
			WorldRecord:      trackStats.WorldRecord,
			WorldRecordStr:   laptime.FormatTime(trackStats.WorldRecord),
			RecordHolder:     trackStats.RecordHolder,
			RecordHolderSlug: trackStats.RecordHolderSlug,
			Mean:             trackStats.Mean,
			StdDev:           trackStats.StdDev,
			Median:           trackStats.Median,
			Slowest:          trackStats.Slowest,
			Top1Percent:      trackStats.Top1Percent,
			Top5Percent:      trackStats.Top5Percent,
			Top10Percent:     trackStats.Top10Percent,
			MetaTime:         trackStats.MetaTime,
			LastUpdated:      trackStats.ComputedAt,
		},
	}

	if err := s.store.UpsertTrack(ctx, trackModel); err != nil {
		return nil, err
	}

	var (
		driversProcessed int
		recordsWritten   int
	)

	for _, l := range laps {
		record := &store.LapRecord{
			TrackID:     trackModel.ID,
			TrackName:   track.Name,
			TrackSlug:   trackSlug,
			DriverName:  l.Name,
			DriverSlug:  l.Slug,
			ProfileURL:  l.ProfileURL,
			Position:    l.Position,
			BestTime:    l.Seconds,
			BestTimeStr: l.BestTime,
			Date:        l.Date,
			MaxKmh:      l.MaxKmh,
			MaxG:        l.MaxG,
			Tier:        string(l.Tier),
			ZScore:      l.ZScore,
			Percentile:  l.Percentile,
			GapToLeader: l.Gap.ToLeader,
			Interval:    l.Gap.Interval,
		}

		if err := s.store.UpsertLapRecord(ctx, record); err != nil {
			return nil, err
		}

		recordsWritten++

		driver := &store.Driver{
			Slug:       l.Slug,
			Name:       l.Name,
			ProfileURL: l.ProfileURL,
		}

		if err := s.store.UpsertDriver(ctx, driver); err != nil {
			return nil, err
		}

		entry := &store.DriverRecord{
			DriverSlug:  l.Slug,
			TrackSlug:   trackSlug,
			TrackID:     trackModel.ID,
			TrackName:   track.Name,
			Position:    l.Position,
			BestTime:    l.Seconds,
			BestTimeStr: l.BestTime,
			Date:        l.Date,
			MaxKmh:      l.MaxKmh,
			MaxG:        l.MaxG,
			Tier:        string(l.Tier),
			Percentile:  l.Percentile,
			GapToLeader: l.Gap.ToLeader,
			Interval:    l.Gap.Interval,
		}

		if err := s.store.UpsertDriverRecord(ctx, entry); err != nil {
			return nil, err
		}

		driversProcessed++

		if s.cfg.ProgressEvery > 0 && driversProcessed%s.cfg.ProgressEvery == 0 {
			log.WithFields(logrus.Fields{
				"processed": driversProcessed,
				"total":     len(laps),
			}).Info("Sync progress")
		}
	}

	result := &TrackResult{
		Track:        track.Name,
		Slug:         trackSlug,
		Drivers:      driversProcessed,
		Records:      recordsWritten,
		WorldRecord:  laptime.FormatTime(trackStats.WorldRecord),
		RecordHolder: trackStats.RecordHolder,
	}

	log.WithFields(logrus.Fields{
		"drivers": result.Drivers,
		"records": result.Records,
	}).Info("Track sync complete")

	return result, nil
}

// normalize parses times and dates, derives driver slugs, and drops rows
// whose time is the zero sentinel so they never reach statistics or the
// store.
func (s *syncer) normalize(
	log logrus.FieldLogger, rows []leaderboard.Row,
) []lap {
	laps := make([]lap, 0, len(rows))

	for _, row := range rows {
		seconds := laptime.ParseTime(log, row.BestTime)
		if seconds <= 0 {
			continue
		}

		laps = append(laps, lap{
			Row:     row,
			Slug:    slug.Make(row.Name),
			Seconds: seconds,
			Date:    laptime.ParseDate(log, row.Date),
		})
	}

	return laps
}
