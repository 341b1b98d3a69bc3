package merra2

import (
	"fmt"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/rtm0/climprep/internal/ncout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fill = float32(1e15)

var (
	testLat = []float64{-90, 0, 90}
	testLon = []float64{-180, -90, 0, 90}
)

// writeGranule writes a daily M2SDNXSLV-like granule for date with every
// T2M* cell set to base plus its index within the time step.
func writeGranule(t *testing.T, dir string, date time.Time, base float32, lat []float64) string {
	t.Helper()
	n := len(lat) * len(testLon)
	field := func(offset float32) []float32 {
		v := make([]float32, n)
		for i := range v {
			v[i] = base + offset + float32(i)
		}
		return v
	}
	mean := field(0)
	mean[1] = fill

	attrs := []ncout.Attr{{Name: "units", Value: "K"}, {Name: "_FillValue", Value: fill}}
	path := filepath.Join(dir, fmt.Sprintf("MERRA2_400.statD_2d_slv_Nx.%s.nc4", date.Format("20060102")))
	err := ncout.Write(path, &ncout.File{
		Dims: []ncout.Dim{{Name: "time", Len: 1}, {Name: "lat", Len: len(lat)}, {Name: "lon", Len: len(testLon)}},
		Vars: []ncout.Var{
			{Name: "time", Dims: []string{"time"}, Data: []int32{0},
				Attrs: []ncout.Attr{{Name: "units", Value: "minutes since " + date.Format("2006-01-02") + " 00:00:00"}}},
			{Name: "lat", Dims: []string{"lat"}, Data: lat},
			{Name: "lon", Dims: []string{"lon"}, Data: testLon},
			{Name: "T2MMAX", Dims: []string{"time", "lat", "lon"}, Data: field(10), Attrs: attrs},
			{Name: "T2MMEAN", Dims: []string{"time", "lat", "lon"}, Data: mean, Attrs: attrs},
			{Name: "T2MMIN", Dims: []string{"time", "lat", "lon"}, Data: field(-10), Attrs: attrs},
		},
		Deflate: 1,
	})
	require.NoError(t, err)
	return path
}

func TestScanner(t *testing.T) {
	date := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	path := writeGranule(t, t.TempDir(), date, 250, testLat)

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, testLat, s.Lat())
	assert.Equal(t, testLon, s.Lon())
	assert.Contains(t, s.Summary(), "latCnt")
	assert.Equal(t, "K", s.Units("T2MMAX"))

	require.True(t, s.Scan())
	day := s.Day()
	require.NotNil(t, day)
	assert.Nil(t, s.Day())
	assert.True(t, date.Equal(day.Time))
	assert.Equal(t, 32, day.DOY)
	require.Len(t, day.Fields["T2MMAX"], len(testLat)*len(testLon))
	assert.Equal(t, float32(260), day.Fields["T2MMAX"][0])
	assert.Equal(t, float32(240), day.Fields["T2MMIN"][0])
	assert.True(t, math.IsNaN(float64(day.Fields["T2MMEAN"][1])))

	assert.False(t, s.Scan())
	assert.NoError(t, s.Err())
}

func TestOpen_MissingVariable(t *testing.T) {
	path := writeGranule(t, t.TempDir(), time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 250, testLat)
	_, err := Open(path, "TPRECMAX")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TPRECMAX")
}

func TestOpen_MissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.nc4"))
	assert.Error(t, err)
}
