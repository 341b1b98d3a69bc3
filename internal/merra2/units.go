package merra2

import (
	"fmt"
	"strings"
	"time"
)

var epochLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTimeUnits decodes a CF time units attribute such as
// "minutes since 2023-01-01 00:30:00".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	step, epoch, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("time units %q: missing \"since\"", units)
	}

	var unit time.Duration
	switch strings.ToLower(strings.TrimSpace(step)) {
	case "seconds", "second", "s":
		unit = time.Second
	case "minutes", "minute", "min":
		unit = time.Minute
	case "hours", "hour", "h":
		unit = time.Hour
	case "days", "day", "d":
		unit = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("time units %q: unsupported step %q", units, step)
	}

	epoch = strings.TrimSpace(epoch)
	epoch = strings.TrimSuffix(epoch, " UTC")
	epoch = strings.TrimSuffix(epoch, "Z")
	for _, layout := range epochLayouts {
		if t, err := time.Parse(layout, epoch); err == nil {
			return unit, t, nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("time units %q: cannot parse reference date %q", units, epoch)
}

// decodeTimes converts offsets in the given units to timestamps.
func decodeTimes(offsets []float64, units string) ([]time.Time, error) {
	unit, epoch, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	ts := make([]time.Time, len(offsets))
	for i, off := range offsets {
		ts[i] = epoch.Add(time.Duration(off * float64(unit)))
	}
	return ts, nil
}
