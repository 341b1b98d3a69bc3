package job

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rtm0/climprep/internal/config"
	"github.com/rtm0/climprep/internal/merra2"
	"github.com/rtm0/climprep/internal/ncout"
	"github.com/rtm0/climprep/internal/observability"
	"github.com/rtm0/climprep/internal/toa"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	gridLat = []float64{-90, -45, 0, 45, 90}
	gridLon = []float64{-180, 0, 90}
)

func writeDailyGranule(t *testing.T, dir string, date time.Time) {
	t.Helper()
	n := len(gridLat) * len(gridLon)
	temp := make([]float32, n)
	for i := range temp {
		temp[i] = 273.15 + float32(i)
	}
	grid := []string{"time", "lat", "lon"}
	attrs := []ncout.Attr{{Name: "units", Value: "K"}, {Name: "_FillValue", Value: float32(1e15)}}
	err := ncout.Write(filepath.Join(dir, fmt.Sprintf("MERRA2_400.statD_2d_slv_Nx.%s.nc4", date.Format("20060102"))), &ncout.File{
		Dims: []ncout.Dim{{Name: "time", Len: 1}, {Name: "lat", Len: len(gridLat)}, {Name: "lon", Len: len(gridLon)}},
		Vars: []ncout.Var{
			{Name: "time", Dims: []string{"time"}, Data: []int32{0},
				Attrs: []ncout.Attr{{Name: "units", Value: "minutes since " + date.Format("2006-01-02") + " 00:00:00"}}},
			{Name: "lat", Dims: []string{"lat"}, Data: gridLat},
			{Name: "lon", Dims: []string{"lon"}, Data: gridLon},
			{Name: "T2MMAX", Dims: grid, Data: temp, Attrs: attrs},
			{Name: "T2MMEAN", Dims: grid, Data: temp, Attrs: attrs},
			{Name: "T2MMIN", Dims: grid, Data: temp, Attrs: attrs},
		},
	})
	require.NoError(t, err)
}

func TestRunTOA(t *testing.T) {
	dir := t.TempDir()
	days := []time.Time{
		time.Date(2023, 6, 22, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 6, 21, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range days {
		writeDailyGranule(t, dir, d)
	}
	out := filepath.Join(t.TempDir(), "nested", "toa.nc")
	metrics := observability.NewMetrics()

	err := RunTOA(&config.TOAConfig{
		Common:    config.Common{LogLevel: "info", LogFormat: "text", Workers: 2},
		DataDir:   dir,
		Year:      2023,
		Output:    out,
		Variables: []string{"T2MMAX", "T2MMEAN", "T2MMIN"},
		Deflate:   5,
	}, slog.Default(), metrics)
	require.NoError(t, err)

	cells := len(days) * len(gridLat) * len(gridLon)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.FilesRead))
	assert.Equal(t, float64(cells), testutil.ToFloat64(metrics.CellsComputed))
	// Both poles are undefined around the June solstice.
	assert.Equal(t, float64(2*2*len(gridLon)), testutil.ToFloat64(metrics.CellsUndefined))
	assert.Greater(t, testutil.ToFloat64(metrics.OutputBytes), 0.0)
	assert.Greater(t, testutil.ToFloat64(metrics.LastSuccess), 0.0)

	nc, err := netcdf.Open(out)
	require.NoError(t, err)
	defer nc.Close()

	tm, err := nc.GetVariable("time")
	require.NoError(t, err)
	assert.Equal(t, []int32{0, 1440}, tm.Values)
	units, _ := tm.Attributes.Get("units")
	assert.Equal(t, "minutes since 2023-06-21 00:00:00", units)

	v, err := nc.GetVariable(ToaVariable)
	require.NoError(t, err)
	assert.Equal(t, []string{"time", "lat", "lon"}, v.Dimensions)
	grid, ok := v.Values.([][][]float32)
	require.True(t, ok, "got %T", v.Values)

	for ti, doy := range []int{172, 173} {
		for li, lat := range gridLat {
			want := float32(toa.Convert(toa.Radiation(lat, doy)))
			for lo := range gridLon {
				got := grid[ti][li][lo]
				if math.IsNaN(float64(want)) {
					assert.True(t, math.IsNaN(float64(got)), "doy %d lat %v", doy, lat)
					continue
				}
				assert.Equal(t, want, got, "doy %d lat %v", doy, lat)
			}
		}
	}

	for _, name := range []string{"T2MMAX", "T2MMEAN", "T2MMIN"} {
		_, err := nc.GetVariable(name)
		assert.NoError(t, err, name)
	}
}

func TestRunTOA_NoGranules(t *testing.T) {
	metrics := observability.NewMetrics()
	err := RunTOA(&config.TOAConfig{
		Common:  config.Common{Workers: 1},
		DataDir: t.TempDir(),
		Year:    2023,
		Output:  filepath.Join(t.TempDir(), "toa.nc"),
	}, slog.Default(), metrics)
	require.Error(t, err)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.LastSuccess))
}

func TestToaFile_NoTimeSteps(t *testing.T) {
	ds := &merra2.Dataset{Lat: gridLat, Lon: gridLon, Fields: map[string][]float32{}}
	out, err := toaFile(ds, merra2.DefaultVariables, nil, 5)
	require.Error(t, err)
	assert.Nil(t, out)
}
