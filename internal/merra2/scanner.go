package merra2

import (
	"fmt"
	"math"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// Scanner retrieves daily statistics from a MERRA-2 granule one time step at
// a time.
type Scanner struct {
	nc    api.Group
	path  string
	lat   []float64
	lon   []float64
	ts    []time.Time
	vars  []string
	vgs   []api.VarGetter
	fills []float64
	units map[string]string
	pos   int
	day   *Day
	err   error
}

// Open creates a new scanner over the granule at path. vars names the
// gridded (time, lat, lon) variables to read; DefaultVariables is used when
// none are given.
func Open(path string, vars ...string) (*Scanner, error) {
	if len(vars) == 0 {
		vars = DefaultVariables
	}
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	s := &Scanner{nc: nc, path: path, vars: vars}
	if err := s.init(); err != nil {
		nc.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s *Scanner) init() error {
	var err error
	s.lat, err = coordValues(s.nc, "lat")
	if err != nil {
		return err
	}
	s.lon, err = coordValues(s.nc, "lon")
	if err != nil {
		return err
	}

	tv, err := s.nc.GetVariable("time")
	if err != nil {
		return fmt.Errorf("time: %w", err)
	}
	offsets, err := toFloat64s(tv.Values)
	if err != nil {
		return fmt.Errorf("time: %w", err)
	}
	units, ok := tv.Attributes.Get("units")
	if !ok {
		return fmt.Errorf("time: missing units attribute")
	}
	unitStr, ok := units.(string)
	if !ok {
		return fmt.Errorf("time: units attribute is %T, want string", units)
	}
	if s.ts, err = decodeTimes(offsets, unitStr); err != nil {
		return err
	}

	s.vgs = make([]api.VarGetter, len(s.vars))
	s.fills = make([]float64, len(s.vars))
	s.units = make(map[string]string, len(s.vars))
	for i, name := range s.vars {
		vg, err := s.nc.GetVarGetter(name)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		if dims := vg.Dimensions(); len(dims) != 3 {
			return fmt.Errorf("%s: got dimensions %v, want (time, lat, lon)", name, dims)
		}
		s.vgs[i] = vg
		s.fills[i] = fillValue(vg.Attributes())
		if attrs := vg.Attributes(); attrs != nil {
			if u, ok := attrs.Get("units"); ok {
				s.units[name], _ = u.(string)
			}
		}
	}
	return nil
}

func coordValues(nc api.Group, name string) ([]float64, error) {
	v, err := nc.GetVariable(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	vals, err := toFloat64s(v.Values)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return vals, nil
}

func toFloat64s(values any) ([]float64, error) {
	switch v := values.(type) {
	case []float64:
		return v, nil
	case []float32:
		return convert(v), nil
	case []int32:
		return convert(v), nil
	case []int64:
		return convert(v), nil
	case []int16:
		return convert(v), nil
	}
	return nil, fmt.Errorf("unsupported coordinate type %T", values)
}

func convert[T float32 | int16 | int32 | int64](in []T) []float64 {
	out := make([]float64, len(in))
	for i, v := range in {
		out[i] = float64(v)
	}
	return out
}

// fillValue returns the _FillValue attribute, or NaN when there is none.
func fillValue(attrs api.AttributeMap) float64 {
	if attrs == nil {
		return math.NaN()
	}
	for _, key := range []string{"_FillValue", "missing_value"} {
		v, ok := attrs.Get(key)
		if !ok {
			continue
		}
		switch f := v.(type) {
		case float32:
			return float64(f)
		case float64:
			return f
		case []float32:
			if len(f) > 0 {
				return float64(f[0])
			}
		case []float64:
			if len(f) > 0 {
				return f[0]
			}
		}
	}
	return math.NaN()
}

// Close closes the scanner.
func (s *Scanner) Close() {
	s.nc.Close()
}

// Lat returns the latitude coordinate in degrees.
func (s *Scanner) Lat() []float64 { return s.lat }

// Lon returns the longitude coordinate in degrees.
func (s *Scanner) Lon() []float64 { return s.lon }

// Units returns the units attribute of the named variable, if any.
func (s *Scanner) Units(name string) string { return s.units[name] }

// Times returns the decoded time coordinate.
func (s *Scanner) Times() []time.Time { return s.ts }

// Summary returns the summary information about the granule suitable for
// logging.
func (s *Scanner) Summary() []any {
	return []any{
		"file", s.path,
		"dims", []string{"time", "lat", "lon"},
		"variables", s.vars,
		"timeCnt", len(s.ts),
		"latCnt", len(s.lat),
		"lonCnt", len(s.lon),
	}
}

// Scan reads all variables for the next time step.
func (s *Scanner) Scan() bool {
	if s.err != nil || s.pos >= len(s.ts) {
		return false
	}
	day := &Day{
		Time:   s.ts[s.pos],
		DOY:    s.ts[s.pos].YearDay(),
		Fields: make(map[string][]float32, len(s.vars)),
	}
	for i, name := range s.vars {
		vals, err := s.scan(s.vgs[i], s.fills[i])
		if err != nil {
			s.err = fmt.Errorf("%s: %s at step %d: %w", s.path, name, s.pos, err)
			return false
		}
		day.Fields[name] = vals
	}
	s.day = day
	s.pos++
	return true
}

func (s *Scanner) scan(vg api.VarGetter, fill float64) ([]float32, error) {
	begin := int64(s.pos)
	v, err := vg.GetSlice(begin, begin+1)
	if err != nil {
		return nil, err
	}
	out := make([]float32, 0, len(s.lat)*len(s.lon))
	switch grid := v.(type) {
	case [][][]float32:
		for _, row := range grid[0] {
			out = append(out, row...)
		}
	case [][][]float64:
		for _, row := range grid[0] {
			for _, x := range row {
				out = append(out, float32(x))
			}
		}
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	if len(out) != len(s.lat)*len(s.lon) {
		return nil, fmt.Errorf("got %d values, want %d", len(out), len(s.lat)*len(s.lon))
	}
	if !math.IsNaN(fill) {
		f := float32(fill)
		nan := float32(math.NaN())
		for i, x := range out {
			if x == f {
				out[i] = nan
			}
		}
	}
	return out, nil
}

// Day returns the time step read by the last Scan() operation. The function
// transfers ownership of the day to the caller and subsequent calls without
// a prior invocation of Scan() return nil.
func (s *Scanner) Day() *Day {
	day := s.day
	s.day = nil
	return day
}

// Err returns the first error encountered by Scan.
func (s *Scanner) Err() error {
	return s.err
}
