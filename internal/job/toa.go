package job

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"time"

	"github.com/rtm0/climprep/internal/config"
	"github.com/rtm0/climprep/internal/merra2"
	"github.com/rtm0/climprep/internal/ncout"
	"github.com/rtm0/climprep/internal/observability"
	"github.com/rtm0/climprep/internal/progress"
	"github.com/rtm0/climprep/internal/toa"
)

// ToaVariable is the name of the radiation variable in the output file.
const ToaVariable = "toa_radiation"

// RunTOA reads a year of MERRA-2 daily granules, computes TOA radiation in
// [mm H2O day-1] over their grid and writes the requested variables together
// with the radiation field to cfg.Output.
func RunTOA(cfg *config.TOAConfig, logger *slog.Logger, metrics *observability.Metrics) (err error) {
	start := time.Now()
	defer func() { finish(logger, metrics, config.TOA, start, err) }()

	paths, err := merra2.Glob(cfg.DataDir, cfg.Year)
	if err != nil {
		return err
	}
	logger.Info("reading MERRA-2 granules", "dir", cfg.DataDir, "year", cfg.Year, "files", len(paths))

	prog := progress.New(logger, "granules", len(paths), cfg.Progress)
	ds, err := merra2.ReadAll(paths, cfg.Variables, func(path string) {
		metrics.FilesRead.Inc()
		prog.Add(1, filepath.Base(path))
	})
	prog.Done()
	if err != nil {
		return err
	}
	logger.Info("MERRA-2 grid", "timeCnt", len(ds.Times), "latCnt", len(ds.Lat), "lonCnt", len(ds.Lon))
	if len(ds.Times) == 0 {
		return fmt.Errorf("no time steps in %d MERRA-2 granules for %d", len(paths), cfg.Year)
	}

	field := toa.Field(ds.Lat, len(ds.Lon), ds.DOY, cfg.Workers)
	summary := toa.Summarize(field)
	metrics.CellsComputed.Add(float64(summary.Cells))
	metrics.CellsUndefined.Add(float64(summary.Undefined))
	logger.Info("TOA radiation [mm day-1]", summary.LogValues()...)
	if summary.Undefined > 0 {
		logger.Warn("undefined sunset hour angle (polar day or night) written as NaN", "cells", summary.Undefined)
	}

	out, err := toaFile(ds, cfg.Variables, field, cfg.Deflate)
	if err != nil {
		return err
	}
	if err := writeOutput(cfg.Output, out, metrics); err != nil {
		return err
	}
	logger.Info("wrote TOA radiation", "file", cfg.Output)
	return nil
}

// toaFile lays out the (time, lat, lon) output. Time is stored as minutes
// since midnight of the first day.
func toaFile(ds *merra2.Dataset, vars []string, field []float32, deflate int) (*ncout.File, error) {
	if len(ds.Times) == 0 {
		return nil, errors.New("dataset has no time steps")
	}
	epoch := ds.Times[0].Truncate(24 * time.Hour)
	minutes := make([]int32, len(ds.Times))
	for i, t := range ds.Times {
		minutes[i] = int32(t.Sub(epoch) / time.Minute)
	}

	nan := float32(math.NaN())
	grid := []string{"time", "lat", "lon"}
	out := &ncout.File{
		Dims: []ncout.Dim{
			{Name: "time", Len: len(ds.Times)},
			{Name: "lat", Len: len(ds.Lat)},
			{Name: "lon", Len: len(ds.Lon)},
		},
		Vars: []ncout.Var{
			{Name: "time", Dims: []string{"time"}, Data: minutes, Attrs: []ncout.Attr{
				{Name: "units", Value: fmt.Sprintf("minutes since %s", epoch.Format("2006-01-02 15:04:05"))},
				{Name: "calendar", Value: "proleptic_gregorian"},
			}},
			{Name: "lat", Dims: []string{"lat"}, Data: ds.Lat, Attrs: []ncout.Attr{{Name: "units", Value: "degrees_north"}}},
			{Name: "lon", Dims: []string{"lon"}, Data: ds.Lon, Attrs: []ncout.Attr{{Name: "units", Value: "degrees_east"}}},
		},
		Attrs: []ncout.Attr{
			{Name: "source", Value: "MERRA-2 M2SDNXSLV"},
			{Name: "toa_radiation_method", Value: "FAO-56 extraterrestrial radiation, https://www.fao.org/4/X0490E/x0490e07.htm#radiation"},
		},
		Deflate: deflate,
	}
	for _, name := range vars {
		out.Vars = append(out.Vars, ncout.Var{
			Name: name, Dims: grid, Data: ds.Fields[name],
			Attrs: varAttrs(ds.Units[name], nan),
		})
	}
	out.Vars = append(out.Vars, ncout.Var{
		Name: ToaVariable, Dims: grid, Data: field,
		Attrs: []ncout.Attr{
			{Name: "long_name", Value: "top-of-atmosphere radiation"},
			{Name: "units", Value: "mm day-1"},
			{Name: "_FillValue", Value: nan},
		},
	})
	return out, nil
}

func varAttrs(units string, fill float32) []ncout.Attr {
	if units == "" {
		return []ncout.Attr{{Name: "_FillValue", Value: fill}}
	}
	return []ncout.Attr{{Name: "units", Value: units}, {Name: "_FillValue", Value: fill}}
}
