// Package leaderboard decodes the tabular leaderboard exports produced by
// the scraping pipeline into cleaned rows ready for normalization.
package leaderboard

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Columns every export must carry. Telemetry columns (Max km/h, Max G) are
// value-nullable and may be absent entirely.
var requiredColumns = []string{"Name", "Best Time", "Position", "Date", "Profile URL"}

// Row is one cleaned leaderboard entry. BestTime and Date keep their raw
// text form here; normalization happens downstream.
type Row struct {
	Name       string
	Position   int
	BestTime   string
	Date       string
	ProfileURL string
	MaxKmh     *int
	MaxG       *float64
}

// Parse decodes a leaderboard CSV export into cleaned rows. Header matching
// is case-insensitive, string cells are trimmed, and rows with an empty Name
// or Best Time are dropped. A malformed Position fails the whole file.
func Parse(log logrus.FieldLogger, data []byte) ([]Row, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range requiredColumns {
		if _, ok := columns[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("missing required column %q", name)
		}
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading rows: %w", err)
	}

	rows := make([]Row, 0, len(records))

	for i, record := range records {
		cell := func(name string) string {
			idx, ok := columns[strings.ToLower(name)]
			if !ok || idx >= len(record) {
				return ""
			}

			return strings.TrimSpace(record[idx])
		}

		name := cell("Name")
		bestTime := cell("Best Time")

		if name == "" || bestTime == "" {
			continue
		}

		position, err := parsePosition(cell("Position"))
		if err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i+2, name, err)
		}

		row := Row{
			Name:       name,
			Position:   position,
			BestTime:   bestTime,
			Date:       cell("Date"),
			ProfileURL: cell("Profile URL"),
		}

		if raw := cell("Max km/h"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				kmh := int(v)
				row.MaxKmh = &kmh
			} else {
				log.WithFields(logrus.Fields{
					"driver":  name,
					"max_kmh": raw,
				}).Warn("Ignoring unparseable max speed")
			}
		}

		if raw := cell("Max G"); raw != "" {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				row.MaxG = &v
			} else {
				log.WithFields(logrus.Fields{
					"driver": name,
					"max_g":  raw,
				}).Warn("Ignoring unparseable max lateral G")
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// parsePosition tolerates the float spelling ("12.0") some exports use for
// integer columns.
func parsePosition(raw string) (int, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing position %q: %w", raw, err)
	}

	return int(v), nil
}
