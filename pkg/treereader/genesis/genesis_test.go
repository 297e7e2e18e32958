package genesis

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/hdf5"
)

// writeFixture builds a minimal one-snapshot Genesis HDF5 file: group
// "Snap063" holding a single tree of two halos, every RawHalo field
// dataset this reader merges.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trees.hdf5")

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	require.NoError(t, err)
	defer f.Close()

	group, err := f.CreateGroup("Snap063")
	require.NoError(t, err)
	defer group.Close()

	writeInt32Dataset(t, group, "HalosPerTree", []int32{2})
	writeInt32Dataset(t, group, "Len", []int32{1000, 400})
	writeFloat32Dataset(t, group, "Mvir", []float32{1.0, 0.4})
	writeFloat32Dataset(t, group, "Rvir", []float32{0.1, 0.07})
	writeFloat32Dataset(t, group, "Vvir", []float32{100, 75})
	writeFloat32Dataset(t, group, "Vmax", []float32{120, 90})
	writeFloat32Dataset(t, group, "VelDisp", []float32{90, 60})
	writeInt64Dataset(t, group, "MostBoundID", []int64{42, 7})
	writeInt32Dataset(t, group, "SnapNum", []int32{63, 63})
	writeInt32Dataset(t, group, "Descendant", []int32{-1, -1})
	writeInt32Dataset(t, group, "FirstProgenitor", []int32{-1, -1})
	writeInt32Dataset(t, group, "NextProgenitor", []int32{-1, -1})
	writeInt32Dataset(t, group, "FirstHaloInFOFgroup", []int32{0, 0})
	writeInt32Dataset(t, group, "NextHaloInFOFgroup", []int32{1, -1})
	writeInt32Dataset(t, group, "FileNr", []int32{0, 0})
	writeInt32Dataset(t, group, "SubhaloIndex", []int32{0, 1})
	writeVec3Dataset(t, group, "Pos", [][3]float32{{1, 2, 3}, {4, 5, 6}})
	writeVec3Dataset(t, group, "Vel", [][3]float32{{10, 20, 30}, {40, 50, 60}})
	writeVec3Dataset(t, group, "Spin", [][3]float32{{0, 0, 1}, {0, 1, 0}})

	return path
}

func writeInt32Dataset(t *testing.T, g *hdf5.Group, name string, data []int32) {
	t.Helper()
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(data))}, nil)
	require.NoError(t, err)
	defer space.Close()
	dtype, err := hdf5.NewDatatypeFromValue(int32(0))
	require.NoError(t, err)
	ds, err := g.CreateDataset(name, dtype, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(&data))
}

func writeInt64Dataset(t *testing.T, g *hdf5.Group, name string, data []int64) {
	t.Helper()
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(data))}, nil)
	require.NoError(t, err)
	defer space.Close()
	dtype, err := hdf5.NewDatatypeFromValue(int64(0))
	require.NoError(t, err)
	ds, err := g.CreateDataset(name, dtype, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(&data))
}

func writeFloat32Dataset(t *testing.T, g *hdf5.Group, name string, data []float32) {
	t.Helper()
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(data))}, nil)
	require.NoError(t, err)
	defer space.Close()
	dtype, err := hdf5.NewDatatypeFromValue(float32(0))
	require.NoError(t, err)
	ds, err := g.CreateDataset(name, dtype, space)
	require.NoError(t, err)
	defer ds.Close()
	require.NoError(t, ds.Write(&data))
}

func writeVec3Dataset(t *testing.T, g *hdf5.Group, name string, data [][3]float32) {
	t.Helper()
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(data)), 3}, nil)
	require.NoError(t, err)
	defer space.Close()
	dtype, err := hdf5.NewDatatypeFromValue(float32(0))
	require.NoError(t, err)
	ds, err := g.CreateDataset(name, dtype, space)
	require.NoError(t, err)
	defer ds.Close()
	flat := make([]float32, 0, len(data)*3)
	for _, v := range data {
		flat = append(flat, v[0], v[1], v[2])
	}
	require.NoError(t, ds.Write(&flat))
}

func TestOpenScansSchema(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 1, r.NTrees())
	assert.Equal(t, 2, r.HaloCount(0))
}

func TestLoadTreeRoundTripsFields(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	halos, err := r.LoadTree(0)
	require.NoError(t, err)
	require.Len(t, halos, 2)

	assert.Equal(t, int32(1000), halos[0].Len)
	assert.Equal(t, float32(1.0), halos[0].Mvir)
	assert.Equal(t, float32(0.1), halos[0].Rvir)
	assert.Equal(t, float32(100), halos[0].Vvir)
	assert.Equal(t, int64(42), halos[0].MostBoundID)
	assert.Equal(t, int32(63), halos[0].SnapNum)
	assert.Equal(t, int32(1), halos[0].NextHaloInFOFgroup)
	assert.Equal(t, [3]float32{1, 2, 3}, halos[0].Pos)
	assert.Equal(t, [3]float32{10, 20, 30}, halos[0].Vel)
	assert.Equal(t, [3]float32{0, 0, 1}, halos[0].Spin)

	assert.Equal(t, int64(7), halos[1].MostBoundID)
	assert.Equal(t, int32(-1), halos[1].NextHaloInFOFgroup)
	assert.Equal(t, [3]float32{4, 5, 6}, halos[1].Pos)
}

func TestTotHalosPerSnapCountsTreeHalos(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	tot := r.TotHalosPerSnap()
	require.Len(t, tot, 64)
	assert.Equal(t, 2, tot[63])

	perTree := r.InputHalosPerSnap()
	assert.Equal(t, 2, perTree[63][0])
}

func TestLoadTreeRejectsOutOfRangeIndex(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.LoadTree(5)
	require.Error(t, err)
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "does-not-exist.hdf5"))
	require.Error(t, err)
}
