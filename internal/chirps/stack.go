package chirps

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/rtm0/climprep/internal/ncout"
)

// Stack is a sequence of monthly rasters sharing one grid, ordered by date.
type Stack struct {
	Dates      []time.Time
	X, Y       []float64
	Projection string
	NoData     float64
	HasNoData  bool
	// Data holds one Height x Width slice per date.
	Data []float32
}

// Build decompresses and reads every entry, in order. Entries must already be
// sorted by date, as returned by Discover. onFile, if not nil, is called after
// each entry has been read.
func Build(entries []Entry, tmpDir string, onFile func(Entry)) (*Stack, error) {
	for i := 1; i < len(entries); i++ {
		if !entries[i].Date.After(entries[i-1].Date) {
			return nil, fmt.Errorf("%s: date %s is not after %s", entries[i].Path,
				entries[i].Date.Format("2006-01"), entries[i-1].Date.Format("2006-01"))
		}
	}

	var (
		s     *Stack
		first *Raster
	)
	for _, e := range entries {
		r, err := readCompressed(e.Path, tmpDir)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = r
			s = &Stack{
				X:          r.X(),
				Y:          r.Y(),
				Projection: r.Projection,
				NoData:     r.NoData,
				HasNoData:  r.HasNoData,
				Data:       make([]float32, 0, len(entries)*len(r.Data)),
			}
		} else if !first.sameGrid(r) {
			return nil, fmt.Errorf("%s: %dx%d grid differs from %dx%d of %s",
				e.Path, r.Width, r.Height, first.Width, first.Height, entries[0].Path)
		}
		s.Dates = append(s.Dates, e.Date)
		s.Data = append(s.Data, r.Data...)
		if onFile != nil {
			onFile(e)
		}
	}
	if s == nil {
		return nil, fmt.Errorf("no rasters to stack")
	}
	return s, nil
}

func readCompressed(path, tmpDir string) (*Raster, error) {
	tif, err := Decompress(path, tmpDir)
	if err != nil {
		return nil, err
	}
	defer os.Remove(tif)
	return ReadRaster(tif)
}

// NetCDF lays the stack out as a (time, y, x) precipitation file.
func (s *Stack) NetCDF(deflate int) *ncout.File {
	epoch := s.Dates[0]
	days := make([]int32, len(s.Dates))
	for i, d := range s.Dates {
		days[i] = int32(math.Round(d.Sub(epoch).Hours() / 24))
	}

	precipAttrs := []ncout.Attr{
		{Name: "long_name", Value: "precipitation"},
		{Name: "units", Value: "mm month-1"},
	}
	if s.HasNoData {
		precipAttrs = append(precipAttrs, ncout.Attr{Name: "_FillValue", Value: float32(s.NoData)})
	}

	return &ncout.File{
		Dims: []ncout.Dim{
			{Name: "time", Len: len(s.Dates)},
			{Name: "y", Len: len(s.Y)},
			{Name: "x", Len: len(s.X)},
		},
		Vars: []ncout.Var{
			{Name: "time", Dims: []string{"time"}, Data: days, Attrs: []ncout.Attr{
				{Name: "units", Value: "days since " + epoch.Format("2006-01-02") + " 00:00:00"},
				{Name: "calendar", Value: "proleptic_gregorian"},
			}},
			{Name: "y", Dims: []string{"y"}, Data: s.Y, Attrs: []ncout.Attr{{Name: "units", Value: "degrees_north"}}},
			{Name: "x", Dims: []string{"x"}, Data: s.X, Attrs: []ncout.Attr{{Name: "units", Value: "degrees_east"}}},
			{Name: "precip", Dims: []string{"time", "y", "x"}, Data: s.Data, Attrs: precipAttrs},
		},
		Attrs:   s.globalAttrs(),
		Deflate: deflate,
	}
}

func (s *Stack) globalAttrs() []ncout.Attr {
	attrs := []ncout.Attr{{Name: "source", Value: "CHIRPS-2.0 monthly"}}
	if s.Projection != "" {
		attrs = append(attrs, ncout.Attr{Name: "crs_wkt", Value: s.Projection})
	}
	return attrs
}
