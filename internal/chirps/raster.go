package chirps

import (
	"fmt"

	"github.com/lukeroth/gdal"
)

// Raster is the first band of a GeoTIFF.
type Raster struct {
	Width, Height int
	// GeoTransform maps pixel/line to projected coordinates, in GDAL order.
	GeoTransform [6]float64
	Projection   string
	NoData       float64
	HasNoData    bool
	// Data holds Height rows of Width pixels.
	Data []float32
}

// ReadRaster reads band 1 of the raster at path.
func ReadRaster(path string) (*Raster, error) {
	ds, err := gdal.Open(path, gdal.ReadOnly)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer ds.Close()

	if ds.RasterCount() < 1 {
		return nil, fmt.Errorf("%s: no raster bands", path)
	}
	r := &Raster{
		Width:        ds.RasterXSize(),
		Height:       ds.RasterYSize(),
		GeoTransform: ds.GeoTransform(),
		Projection:   ds.Projection(),
	}
	if r.GeoTransform[2] != 0 || r.GeoTransform[4] != 0 {
		return nil, fmt.Errorf("%s: rotated rasters are not supported", path)
	}
	band := ds.RasterBand(1)
	r.NoData, r.HasNoData = band.NoDataValue()
	r.Data = make([]float32, r.Width*r.Height)
	if err := band.IO(gdal.Read, 0, 0, r.Width, r.Height, r.Data, r.Width, r.Height, 0, 0); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return r, nil
}

// X returns the pixel centre coordinates along a row.
func (r *Raster) X() []float64 {
	x := make([]float64, r.Width)
	for j := range x {
		x[j] = r.GeoTransform[0] + (float64(j)+0.5)*r.GeoTransform[1]
	}
	return x
}

// Y returns the pixel centre coordinates down a column.
func (r *Raster) Y() []float64 {
	y := make([]float64, r.Height)
	for i := range y {
		y[i] = r.GeoTransform[3] + (float64(i)+0.5)*r.GeoTransform[5]
	}
	return y
}

func (r *Raster) sameGrid(o *Raster) bool {
	return r.Width == o.Width && r.Height == o.Height && r.GeoTransform == o.GeoTransform
}
