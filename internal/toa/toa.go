// Package toa computes top-of-atmosphere (extraterrestrial) solar radiation
// from latitude and day of year using the FAO formula:
//
//	https://www.fao.org/4/X0490E/x0490e07.htm#radiation
package toa

import "math"

const (
	// SolarConstant is Gsc in [MJ m-2 min-1].
	SolarConstant = 0.0820

	// MMPerMJ converts radiation in [MJ m-2 day-1] to the equivalent
	// evaporation in [mm H2O day-1] (inverse latent heat of vaporization).
	MMPerMJ = 0.408

	minutesPerDay = 24 * 60
	daysPerYear   = 365
)

// Radiation returns TOA radiation in [MJ m-2 day-1] for the given latitude
// in degrees and day of year on [1, 366].
//
// The result is NaN where the sunset hour angle is undefined, i.e. where
// -tan(lat)*tan(declination) falls outside [-1, 1] (polar day or night).
func Radiation(latitude float64, doy int) float64 {
	latRad := latitude * (math.Pi / 180)
	earthSunDist := 1 + 0.0033*math.Cos(float64(doy)*((2*math.Pi)/daysPerYear))
	declination := 0.409 * math.Sin(float64(doy)*((2*math.Pi)/daysPerYear)-1.39)

	x := -math.Tan(latRad) * math.Tan(declination)
	if math.Abs(x) > 1 {
		x = math.NaN()
	}
	sunsetHourAngle := math.Acos(x)

	return (minutesPerDay / math.Pi) * SolarConstant * earthSunDist *
		(sunsetHourAngle*math.Sin(latRad)*math.Sin(declination) +
			math.Cos(latRad)*math.Cos(declination)*math.Sin(sunsetHourAngle))
}

// Convert converts radiation in [MJ m-2 day-1] to [mm H2O day-1].
func Convert(mj float64) float64 {
	return mj * MMPerMJ
}

// Value is the result of the kernel for a single cell. OK is false when the
// sunset hour angle is undefined at that cell.
type Value struct {
	MJ float64
	OK bool
}

// Evaluate is Radiation with the undefined case made explicit.
func Evaluate(latitude float64, doy int) Value {
	r := Radiation(latitude, doy)
	if math.IsNaN(r) {
		return Value{}
	}
	return Value{MJ: r, OK: true}
}

// Float returns the value with NaN standing in for an undefined cell.
func (v Value) Float() float64 {
	if !v.OK {
		return math.NaN()
	}
	return v.MJ
}
