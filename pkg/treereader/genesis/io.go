package genesis

import (
	"gonum.org/v1/hdf5"

	"github.com/darrencroton/mimic/pkg/treereader"
)

// groupNames lists the top-level object names in an HDF5 file, the
// snapshot group candidates scanSchema filters by name pattern.
func groupNames(f *hdf5.File) ([]string, error) {
	n, err := f.NumObjects()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, n)
	for i := uint(0); i < n; i++ {
		name, err := f.ObjectNameByIndex(i)
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// readInt32Dataset reads a whole 1-D int32 dataset into memory; used for
// HalosPerTree, which is small (one entry per tree in the snapshot).
func readInt32Dataset(g *hdf5.Group, name string) ([]int32, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, err
	}
	count := int64(1)
	for _, d := range dims {
		count *= int64(d)
	}

	out := make([]int32, count)
	if err := ds.Read(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// readFloat32Subset reads rows [start, start+n) of a 1-D float32
// dataset.
func readFloat32Subset(g *hdf5.Group, name string, start, n int64) ([]float32, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	fileSpace := ds.Space()
	if err := fileSpace.SelectHyperslab([]uint{uint(start)}, nil, []uint{uint(n)}, nil); err != nil {
		return nil, err
	}
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{uint(n)}, nil)
	if err != nil {
		return nil, err
	}
	defer memSpace.Close()

	out := make([]float32, n)
	if err := ds.ReadSubset(&out, memSpace, fileSpace); err != nil {
		return nil, err
	}
	return out, nil
}

// readInt32Subset reads rows [start, start+n) of a 1-D int32 dataset.
// This reader assumes the common int32 layout for SnapNum and the
// tree-topology indices; a dump that stores them as int64 is not re-read
// with readInt64Subset.
func readInt32Subset(g *hdf5.Group, name string, start, n int64) ([]int32, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	fileSpace := ds.Space()
	if err := fileSpace.SelectHyperslab([]uint{uint(start)}, nil, []uint{uint(n)}, nil); err != nil {
		return nil, err
	}
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{uint(n)}, nil)
	if err != nil {
		return nil, err
	}
	defer memSpace.Close()

	out := make([]int32, n)
	if err := ds.ReadSubset(&out, memSpace, fileSpace); err != nil {
		return nil, err
	}
	return out, nil
}

// readInt64Subset reads rows [start, start+n) of a 1-D int64 dataset,
// used for MostBoundID.
func readInt64Subset(g *hdf5.Group, name string, start, n int64) ([]int64, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	fileSpace := ds.Space()
	if err := fileSpace.SelectHyperslab([]uint{uint(start)}, nil, []uint{uint(n)}, nil); err != nil {
		return nil, err
	}
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{uint(n)}, nil)
	if err != nil {
		return nil, err
	}
	defer memSpace.Close()

	out := make([]int64, n)
	if err := ds.ReadSubset(&out, memSpace, fileSpace); err != nil {
		return nil, err
	}
	return out, nil
}

// readVec3Subset reads rows [start, start+n) of a dataset shaped (N,3)
// and repacks it as [3]float32 per row.
func readVec3Subset(g *hdf5.Group, name string, start, n int64) ([][3]float32, error) {
	ds, err := g.OpenDataset(name)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	fileSpace := ds.Space()
	if err := fileSpace.SelectHyperslab([]uint{uint(start), 0}, nil, []uint{uint(n), 3}, nil); err != nil {
		return nil, err
	}
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{uint(n), 3}, nil)
	if err != nil {
		return nil, err
	}
	defer memSpace.Close()

	flat := make([]float32, n*3)
	if err := ds.ReadSubset(&flat, memSpace, fileSpace); err != nil {
		return nil, err
	}

	out := make([][3]float32, n)
	for i := range out {
		out[i] = [3]float32{flat[i*3], flat[i*3+1], flat[i*3+2]}
	}
	return out, nil
}

// mergeScalarField reads one scalar field's subset and assigns it into
// the matching RawHalo field across out.
func mergeScalarField(g *hdf5.Group, field string, start, n int64, out []treereader.RawHalo) error {
	switch field {
	case "Len":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].Len = v[i]
		}
	case "Mvir":
		v, err := readFloat32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].Mvir = v[i]
		}
	case "Rvir":
		v, err := readFloat32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].Rvir = v[i]
		}
	case "Vvir":
		v, err := readFloat32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].Vvir = v[i]
		}
	case "Vmax":
		v, err := readFloat32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].Vmax = v[i]
		}
	case "VelDisp":
		v, err := readFloat32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].VelDisp = v[i]
		}
	case "MostBoundID":
		v, err := readInt64Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].MostBoundID = v[i]
		}
	case "SnapNum":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].SnapNum = v[i]
		}
	case "Descendant":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].Descendant = v[i]
		}
	case "FirstProgenitor":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].FirstProgenitor = v[i]
		}
	case "NextProgenitor":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].NextProgenitor = v[i]
		}
	case "FirstHaloInFOFgroup":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].FirstHaloInFOFgroup = v[i]
		}
	case "NextHaloInFOFgroup":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].NextHaloInFOFgroup = v[i]
		}
	case "FileNr":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].FileNr = v[i]
		}
	case "SubhaloIndex":
		v, err := readInt32Subset(g, field, start, n)
		if err != nil {
			return err
		}
		for i := range out {
			out[i].SubhaloIndex = v[i]
		}
	}
	return nil
}
