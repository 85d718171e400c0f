package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kartingops/laptimeoor/pkg/config"
	"github.com/kartingops/laptimeoor/pkg/source"
	"github.com/kartingops/laptimeoor/pkg/store"
	"github.com/kartingops/laptimeoor/pkg/syncer"
)

var limitTracks []string

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync the track catalog into the store",
	Long: `Fetch every configured leaderboard export, compute statistics and
tiers, and upsert the results into the store.`,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringSliceVar(&limitTracks, "limit-track", nil,
		"Limit to tracks with these slugs (comma-separated or repeated flag)")
}

func runSync(cmd *cobra.Command, args []string) error {
	// Load configuration.
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	// The config log level applies unless the flag overrode it.
	if !cmd.Flags().Changed("log-level") {
		level, err := logrus.ParseLevel(cfg.Global.LogLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", cfg.Global.LogLevel, err)
		}

		log.SetLevel(level)
	}

	// Setup context with signal handling.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.WithField("signal", sig).Info("Received shutdown signal")
		cancel()
	}()

	// Filter tracks if limits are specified.
	tracks := filterTracks(cfg.Tracks, limitTracks)
	if len(tracks) == 0 {
		return fmt.Errorf("no tracks match the specified filters")
	}

	if len(tracks) != len(cfg.Tracks) {
		log.WithFields(logrus.Fields{
			"total":    len(cfg.Tracks),
			"filtered": len(tracks),
		}).Info("Syncing filtered tracks")
	}

	st := store.NewStore(log, &cfg.Database)
	if err := st.Start(ctx); err != nil {
		return fmt.Errorf("starting store: %w", err)
	}

	defer func() {
		if err := st.Stop(); err != nil {
			log.WithError(err).Warn("Failed to stop store")
		}
	}()

	reader, err := source.New(&cfg.Source)
	if err != nil {
		return fmt.Errorf("creating source reader: %w", err)
	}

	s := syncer.NewSyncer(log, &cfg.Sync, st, reader)

	results := make([]*syncer.TrackResult, 0, len(tracks))

	var failedTracks int

	for _, track := range tracks {
		select {
		case <-ctx.Done():
			log.Info("Sync interrupted")
			return ctx.Err()
		default:
		}

		result, err := s.SyncTrack(ctx, track)
		if err != nil {
			failedTracks++

			log.WithError(err).WithField("track", track.Slug()).
				Error("Track sync failed")

			continue
		}

		results = append(results, result)
	}

	var totalDrivers, totalRecords int
	for _, r := range results {
		totalDrivers += r.Drivers
		totalRecords += r.Records
	}

	log.WithFields(logrus.Fields{
		"tracks":  len(results),
		"failed":  failedTracks,
		"drivers": totalDrivers,
		"records": totalRecords,
	}).Info("Sync complete")

	if cfg.Sync.SummaryFile != "" {
		if err := writeSummary(
			cfg.Sync.SummaryFile, results, totalDrivers, totalRecords,
		); err != nil {
			log.WithError(err).Warn("Failed to write summary file")
		}
	}

	return nil
}

// filterTracks returns the catalog entries whose slug is in limits. An
// empty limits list keeps the whole catalog.
func filterTracks(
	tracks []config.TrackConfig, limits []string,
) []config.TrackConfig {
	if len(limits) == 0 {
		return tracks
	}

	slugSet := make(map[string]struct{}, len(limits))
	for _, s := range limits {
		slugSet[s] = struct{}{}
	}

	filtered := make([]config.TrackConfig, 0, len(tracks))

	for _, track := range tracks {
		if _, ok := slugSet[track.Slug()]; ok {
			filtered = append(filtered, track)
		}
	}

	return filtered
}

// summaryArtifact is the JSON shape written when sync.summary_file is set.
type summaryArtifact struct {
	Tracks       []*syncer.TrackResult `json:"tracks"`
	TotalDrivers int                   `json:"total_drivers"`
	TotalRecords int                   `json:"total_records"`
}

func writeSummary(
	path string, results []*syncer.TrackResult, drivers, records int,
) error {
	artifact := summaryArtifact{
		Tracks:       results,
		TotalDrivers: drivers,
		TotalRecords: records,
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	log.WithField("path", path).Info("Summary written")

	return nil
}
