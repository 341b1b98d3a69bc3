// Package chirps stacks CHIRPS monthly precipitation GeoTIFFs into a single
// time series. File names are expected to look like
//
//	chirps-v2.0.1981.01.tif.gz
//
// as distributed at https://data.chc.ucsb.edu/products/CHIRPS-2.0/.
package chirps

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// Pattern matches the compressed monthly rasters within a directory.
const Pattern = "chirps-v2.0.*.gz"

// Entry is one monthly raster on disk.
type Entry struct {
	Path string
	Date time.Time
}

// Discover returns the compressed rasters in dir ordered by date.
func Discover(dir string) ([]Entry, error) {
	paths, err := filepath.Glob(filepath.Join(dir, Pattern))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files match %s in %s", Pattern, dir)
	}
	entries := make([]Entry, len(paths))
	for i, p := range paths {
		date, err := parseDate(filepath.Base(p))
		if err != nil {
			return nil, err
		}
		entries[i] = Entry{Path: p, Date: date}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date.Before(entries[j].Date)
	})
	return entries, nil
}

// parseDate takes the year and month from the two dot-separated fields that
// precede the "tif.gz" extension and returns the first day of that month.
func parseDate(name string) (time.Time, error) {
	parts := strings.Split(name, ".")
	if len(parts) < 4 {
		return time.Time{}, fmt.Errorf("%s: cannot find year and month in file name", name)
	}
	ym := parts[len(parts)-4] + "-" + parts[len(parts)-3]
	date, err := time.Parse("2006-01", ym)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", name, err)
	}
	return date, nil
}
