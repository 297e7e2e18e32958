package lhalo

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture builds a minimal two-tree LHalo binary file: tree 0 has a
// single halo at snapshot 63, tree 1 has two halos at snapshots 62/63.
func writeFixture(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "trees_063.0")

	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, int32(2))) // Ntrees
	require.NoError(t, binary.Write(buf, binary.LittleEndian, int32(3))) // totNHalos
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []int32{1, 2}))

	tree0 := []wireHalo{
		{
			Descendant: -1, FirstProgenitor: -1, NextProgenitor: -1,
			FirstHaloInFOFgroup: 0, NextHaloInFOFgroup: -1,
			Len: 1000, Mvir: 1.0, Rvir: 0.1, Vvir: 100, Vmax: 120, VelDisp: 90,
			MostBoundID: 42, SnapNum: 63, FileNr: 0, SubhaloIndex: 0,
		},
	}
	tree1 := []wireHalo{
		{
			Descendant: -1, FirstProgenitor: 1, NextProgenitor: -1,
			FirstHaloInFOFgroup: 0, NextHaloInFOFgroup: -1,
			Len: 500, Mvir: 0.5, Rvir: 0.08, Vvir: 80, Vmax: 95, VelDisp: 70,
			MostBoundID: 1, SnapNum: 62, FileNr: 0, SubhaloIndex: 0,
		},
		{
			Descendant: 0, FirstProgenitor: -1, NextProgenitor: -1,
			FirstHaloInFOFgroup: 1, NextHaloInFOFgroup: -1,
			Len: 400, Mvir: 0.4, Rvir: 0.07, Vvir: 75, Vmax: 90, VelDisp: 60,
			MostBoundID: 2, SnapNum: 63, FileNr: 0, SubhaloIndex: 0,
		},
	}
	require.NoError(t, binary.Write(buf, binary.LittleEndian, tree0))
	require.NoError(t, binary.Write(buf, binary.LittleEndian, tree1))

	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
	return path
}

func TestOpenReadsHeaderAndTreeOffsets(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, 2, r.NTrees())
	assert.Equal(t, 1, r.HaloCount(0))
	assert.Equal(t, 2, r.HaloCount(1))
}

func TestLoadTreeDecodesFields(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	halos, err := r.LoadTree(0)
	require.NoError(t, err)
	require.Len(t, halos, 1)
	assert.Equal(t, float32(1.0), halos[0].Mvir)
	assert.Equal(t, int32(1000), halos[0].Len)
	assert.Equal(t, int64(42), halos[0].MostBoundID)
	assert.Equal(t, int32(63), halos[0].SnapNum)

	halos1, err := r.LoadTree(1)
	require.NoError(t, err)
	require.Len(t, halos1, 2)
	assert.Equal(t, int32(1), halos1[0].FirstProgenitor)
	assert.Equal(t, int32(0), halos1[1].Descendant)
}

func TestTotHalosPerSnapAggregatesAcrossTrees(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	tot := r.TotHalosPerSnap()
	require.Len(t, tot, 64)
	assert.Equal(t, 1, tot[62])
	assert.Equal(t, 2, tot[63])

	perTree := r.InputHalosPerSnap()
	assert.Equal(t, 0, perTree[62][0])
	assert.Equal(t, 1, perTree[62][1])
	assert.Equal(t, 1, perTree[63][0])
	assert.Equal(t, 1, perTree[63][1])
}

func TestLoadTreeRejectsOutOfRangeIndex(t *testing.T) {
	path := writeFixture(t)
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.LoadTree(5)
	require.Error(t, err)
}

func TestOpenRejectsTruncatedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "truncated.0")
	require.NoError(t, os.WriteFile(path, []byte{1, 2, 3}, 0644))

	_, err := Open(path)
	require.Error(t, err)
}

func TestOpenRejectsMismatchedTotalCount(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad_total.0")

	buf := new(bytes.Buffer)
	require.NoError(t, binary.Write(buf, binary.LittleEndian, int32(1)))
	require.NoError(t, binary.Write(buf, binary.LittleEndian, int32(99))) // lies about total
	require.NoError(t, binary.Write(buf, binary.LittleEndian, []int32{1}))
	require.NoError(t, binary.Write(buf, binary.LittleEndian, wireHalo{SnapNum: 0}))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	_, err := Open(path)
	require.Error(t, err)
}
