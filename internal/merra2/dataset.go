package merra2

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"
)

// Dataset is the concatenation of several granules along time.
type Dataset struct {
	Lat   []float64
	Lon   []float64
	Times []time.Time
	DOY   []int

	// Fields maps variable names to (time, lat, lon) values in row-major
	// order.
	Fields map[string][]float32
	// Units maps variable names to their units attribute.
	Units map[string]string
}

// Glob returns the granules in dir whose names contain year, sorted by name.
func Glob(dir string, year int) ([]string, error) {
	pattern := filepath.Join(dir, fmt.Sprintf("*%d*.nc4", year))
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no granules match %s", pattern)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadAll reads every time step of every granule in paths. All granules must
// share the latitude/longitude grid of the first one. onFile, if not nil, is
// called after each granule has been read.
func ReadAll(paths []string, vars []string, onFile func(path string)) (*Dataset, error) {
	if len(vars) == 0 {
		vars = DefaultVariables
	}
	ds := &Dataset{
		Fields: make(map[string][]float32, len(vars)),
		Units:  make(map[string]string, len(vars)),
	}
	for i, path := range paths {
		if err := ds.append(path, vars, i == 0); err != nil {
			return nil, err
		}
		if onFile != nil {
			onFile(path)
		}
	}
	sort.Stable(byTime{ds})
	return ds, nil
}

func (ds *Dataset) append(path string, vars []string, first bool) error {
	s, err := Open(path, vars...)
	if err != nil {
		return err
	}
	defer s.Close()

	if first {
		ds.Lat, ds.Lon = s.Lat(), s.Lon()
		for _, name := range vars {
			ds.Units[name] = s.Units(name)
		}
	} else if !sameGrid(ds.Lat, s.Lat()) || !sameGrid(ds.Lon, s.Lon()) {
		return fmt.Errorf("%s: grid %dx%d differs from %dx%d of the first granule",
			path, len(s.Lat()), len(s.Lon()), len(ds.Lat), len(ds.Lon))
	}

	for s.Scan() {
		day := s.Day()
		ds.Times = append(ds.Times, day.Time)
		ds.DOY = append(ds.DOY, day.DOY)
		for _, name := range vars {
			ds.Fields[name] = append(ds.Fields[name], day.Fields[name]...)
		}
	}
	return s.Err()
}

func sameGrid(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// SliceLen returns the number of cells in one time step.
func (ds *Dataset) SliceLen() int {
	return len(ds.Lat) * len(ds.Lon)
}

// byTime orders the time steps of a dataset, moving field slices with them.
type byTime struct{ ds *Dataset }

func (b byTime) Len() int { return len(b.ds.Times) }

func (b byTime) Less(i, j int) bool { return b.ds.Times[i].Before(b.ds.Times[j]) }

func (b byTime) Swap(i, j int) {
	ds := b.ds
	ds.Times[i], ds.Times[j] = ds.Times[j], ds.Times[i]
	ds.DOY[i], ds.DOY[j] = ds.DOY[j], ds.DOY[i]
	n := ds.SliceLen()
	for _, f := range ds.Fields {
		a, b := f[i*n:(i+1)*n], f[j*n:(j+1)*n]
		for k := range a {
			a[k], b[k] = b[k], a[k]
		}
	}
}
