// Package ncout writes compressed netCDF-4 files.
package ncout

import (
	"fmt"

	"github.com/fhs/go-netcdf/netcdf"
)

// Dim is a named dimension.
type Dim struct {
	Name string
	Len  int
}

// Attr is a variable or global attribute. Value must be a string, float32,
// float64 or int32.
type Attr struct {
	Name  string
	Value any
}

// Var is a variable to be written. Data must be a []float32, []float64 or
// []int32 holding the values in row-major order of Dims.
type Var struct {
	Name  string
	Dims  []string
	Attrs []Attr
	Data  any
}

// File describes the complete contents of an output file.
type File struct {
	Dims  []Dim
	Vars  []Var
	Attrs []Attr
	// Deflate is the zlib level applied to every variable; 0 disables
	// compression.
	Deflate int
}

// Write creates path, replacing any existing file, and writes f to it.
func Write(path string, f *File) (err error) {
	if f.Deflate < 0 || f.Deflate > 9 {
		return fmt.Errorf("deflate level %d out of range [0, 9]", f.Deflate)
	}
	ds, err := netcdf.CreateFile(path, netcdf.CLOBBER|netcdf.NETCDF4)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := ds.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()

	dims := make(map[string]netcdf.Dim, len(f.Dims))
	sizes := make(map[string]int, len(f.Dims))
	for _, d := range f.Dims {
		nd, err := ds.AddDim(d.Name, uint64(d.Len))
		if err != nil {
			return fmt.Errorf("add dimension %q: %w", d.Name, err)
		}
		dims[d.Name] = nd
		sizes[d.Name] = d.Len
	}

	for _, a := range f.Attrs {
		if err := writeAttr(ds.Attr(a.Name), a.Value); err != nil {
			return fmt.Errorf("global attribute %q: %w", a.Name, err)
		}
	}

	vars := make([]netcdf.Var, len(f.Vars))
	for i, v := range f.Vars {
		if vars[i], err = defineVar(ds, v, dims, sizes, f.Deflate); err != nil {
			return fmt.Errorf("define %q: %w", v.Name, err)
		}
	}
	if err := ds.EndDef(); err != nil {
		return fmt.Errorf("end define mode: %w", err)
	}

	for i, v := range f.Vars {
		if err := writeData(vars[i], v.Data); err != nil {
			return fmt.Errorf("write %q: %w", v.Name, err)
		}
	}
	return nil
}

func defineVar(ds netcdf.Dataset, v Var, dims map[string]netcdf.Dim, sizes map[string]int, deflate int) (netcdf.Var, error) {
	vdims := make([]netcdf.Dim, len(v.Dims))
	want := 1
	for i, name := range v.Dims {
		d, ok := dims[name]
		if !ok {
			return netcdf.Var{}, fmt.Errorf("unknown dimension %q", name)
		}
		vdims[i] = d
		want *= sizes[name]
	}

	var (
		typ netcdf.Type
		got int
	)
	switch data := v.Data.(type) {
	case []float32:
		typ, got = netcdf.FLOAT, len(data)
	case []float64:
		typ, got = netcdf.DOUBLE, len(data)
	case []int32:
		typ, got = netcdf.INT, len(data)
	default:
		return netcdf.Var{}, fmt.Errorf("unsupported data type %T", v.Data)
	}
	if got != want {
		return netcdf.Var{}, fmt.Errorf("has %d values, dimensions %v need %d", got, v.Dims, want)
	}

	nv, err := ds.AddVar(v.Name, typ, vdims)
	if err != nil {
		return netcdf.Var{}, err
	}
	if deflate > 0 {
		if err := nv.SetCompression(true, true, deflate); err != nil {
			return netcdf.Var{}, fmt.Errorf("set compression: %w", err)
		}
	}
	for _, a := range v.Attrs {
		if err := writeAttr(nv.Attr(a.Name), a.Value); err != nil {
			return netcdf.Var{}, fmt.Errorf("attribute %q: %w", a.Name, err)
		}
	}
	return nv, nil
}

func writeAttr(a netcdf.Attr, value any) error {
	switch v := value.(type) {
	case string:
		return a.WriteBytes([]byte(v))
	case float32:
		return a.WriteFloat32s([]float32{v})
	case float64:
		return a.WriteFloat64s([]float64{v})
	case int32:
		return a.WriteInt32s([]int32{v})
	}
	return fmt.Errorf("unsupported attribute type %T", value)
}

func writeData(v netcdf.Var, data any) error {
	switch d := data.(type) {
	case []float32:
		return v.WriteFloat32s(d)
	case []float64:
		return v.WriteFloat64s(d)
	case []int32:
		return v.WriteInt32s(d)
	}
	return fmt.Errorf("unsupported data type %T", data)
}
