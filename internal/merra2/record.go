package merra2

import "time"

// DefaultVariables are the daily 2 m temperature statistics carried into
// the TOA output.
var DefaultVariables = []string{"T2MMAX", "T2MMEAN", "T2MMIN"}

// Day is a collection of gridded daily statistics for one time step.
type Day struct {
	Time time.Time
	// DOY is the calendar day of year on [1, 366].
	DOY int

	// Fields maps variable names to (lat, lon) values in row-major order.
	// Fill values are replaced by NaN.
	Fields map[string][]float32
}
