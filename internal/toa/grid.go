package toa

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// RadiationInto evaluates Radiation elementwise over lats and doys and
// stores the results in dst. lats and doys must have the same length, or
// one of them must have length 1, in which case it is broadcast against the
// other. dst must have the broadcast length.
func RadiationInto(dst, lats []float64, doys []int) error {
	n, err := broadcastLen(len(lats), len(doys))
	if err != nil {
		return err
	}
	if len(dst) != n {
		return fmt.Errorf("destination has %d cells, want %d", len(dst), n)
	}
	for i := range dst {
		dst[i] = Radiation(lats[i%len(lats)], doys[i%len(doys)])
	}
	return nil
}

func broadcastLen(a, b int) (int, error) {
	switch {
	case a == 0 || b == 0:
		return 0, fmt.Errorf("cannot broadcast empty input (%d latitudes, %d days)", a, b)
	case a == b, b == 1:
		return a, nil
	case a == 1:
		return b, nil
	}
	return 0, fmt.Errorf("cannot broadcast %d latitudes against %d days", a, b)
}

// Field returns TOA radiation in [mm H2O day-1] over a (time, lat, lon)
// grid laid out in row-major order. Latitude is broadcast across longitude
// and time; day of year is broadcast across latitude and longitude. Time
// slices are evaluated by up to workers goroutines.
func Field(lats []float64, nLon int, doys []int, workers int) []float32 {
	nLat := len(lats)
	slice := nLat * nLon
	out := make([]float32, len(doys)*slice)
	if slice == 0 {
		return out
	}
	if workers < 1 {
		workers = 1
	}

	steps := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			for t := range steps {
				fillSlice(out[t*slice:(t+1)*slice], lats, nLon, doys[t])
			}
			wg.Done()
		}()
	}
	for t := range doys {
		steps <- t
	}
	close(steps)
	wg.Wait()
	return out
}

// fillSlice evaluates one time step. The kernel depends on latitude only,
// so each row is computed once and repeated across longitude.
func fillSlice(dst []float32, lats []float64, nLon int, doy int) {
	for i, lat := range lats {
		v := float32(Convert(Radiation(lat, doy)))
		row := dst[i*nLon : (i+1)*nLon]
		for j := range row {
			row[j] = v
		}
	}
}

// Summary describes a radiation field.
type Summary struct {
	Cells     int
	Undefined int
	Min       float64
	Max       float64
	Mean      float64
}

// Summarize computes statistics over the defined cells of values. Min, Max
// and Mean are NaN when no cell is defined.
func Summarize(values []float32) Summary {
	defined := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(float64(v)) {
			defined = append(defined, float64(v))
		}
	}
	s := Summary{Cells: len(values), Undefined: len(values) - len(defined)}
	if len(defined) == 0 {
		s.Min, s.Max, s.Mean = math.NaN(), math.NaN(), math.NaN()
		return s
	}
	s.Min = floats.Min(defined)
	s.Max = floats.Max(defined)
	s.Mean = stat.Mean(defined, nil)
	return s
}

// LogValues returns the summary as slog key/value pairs.
func (s Summary) LogValues() []any {
	return []any{
		"cells", s.Cells,
		"undefined", s.Undefined,
		"min", s.Min,
		"max", s.Max,
		"mean", s.Mean,
	}
}
