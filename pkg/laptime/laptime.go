package laptime

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Date layouts accepted by ParseDate, tried in order.
var dateLayouts = []string{
	"02.01.2006",
	"2006-01-02",
}

// ParseTime converts a lap-time string to seconds. It accepts "MM:SS.mmm"
// and plain-seconds form ("85.123"). Unparseable input is logged as a
// warning and yields 0, the sentinel that excludes the row from all
// downstream computation.
func ParseTime(log logrus.FieldLogger, text string) float64 {
	text = strings.TrimSpace(text)

	if parts := strings.Split(text, ":"); len(parts) == 2 {
		minutes, err := strconv.Atoi(parts[0])
		if err != nil {
			log.WithField("time", text).Warn("Failed to parse lap time, substituting zero")

			return 0.0
		}

		seconds, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			log.WithField("time", text).Warn("Failed to parse lap time, substituting zero")

			return 0.0
		}

		return float64(minutes)*60 + seconds
	}

	// Anything that is not MM:SS is treated as an already-in-seconds value.
	seconds, err := strconv.ParseFloat(text, 64)
	if err != nil {
		log.WithField("time", text).Warn("Failed to parse lap time, substituting zero")

		return 0.0
	}

	return seconds
}

// FormatTime renders seconds as "MM:SS.mmm" with zero-padded minutes and
// a seconds field of fixed width 6 with exactly 3 decimals. It round-trips
// with ParseTime to millisecond precision for non-negative finite inputs.
func FormatTime(seconds float64) string {
	minutes := int(seconds / 60)
	remaining := seconds - float64(minutes)*60

	return fmt.Sprintf("%02d:%06.3f", minutes, remaining)
}

// ParseDate parses "DD.MM.YYYY" or "YYYY-MM-DD" date strings. Unparseable
// input is logged as a warning and substituted with the current UTC time;
// callers must tolerate this fallback.
func ParseDate(log logrus.FieldLogger, text string) time.Time {
	text = strings.TrimSpace(text)

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
	}

	log.WithField("date", text).Warn("Failed to parse date, substituting current date")

	return time.Now().UTC()
}
