package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocFreeAccounting(t *testing.T) {
	a := New()

	b1, err := a.Alloc(100, CategoryHalos)
	require.NoError(t, err)
	b2, err := a.Alloc(50, CategoryTrees)
	require.NoError(t, err)

	reports := a.ReportByCategory()
	assert.Equal(t, int64(100), reports[CategoryHalos].Current)
	assert.Equal(t, int64(50), reports[CategoryTrees].Current)
	assert.Equal(t, int64(150), a.TotalPeak())

	require.NoError(t, a.Free(b1))
	reports = a.ReportByCategory()
	assert.Equal(t, int64(0), reports[CategoryHalos].Current)
	assert.Equal(t, int64(100), reports[CategoryHalos].Peak, "peak survives the free")

	require.NoError(t, a.Free(b2))
	assert.Empty(t, a.CheckLeaks())
}

func TestDoubleFreeIsCorruption(t *testing.T) {
	a := New()
	b, err := a.Alloc(10, CategoryIO)
	require.NoError(t, err)

	require.NoError(t, a.Free(b))
	err = a.Free(b)
	require.Error(t, err)
}

func TestReallocPreservesPrefixAndAccounts(t *testing.T) {
	a := New()
	b, err := a.Alloc(4, CategoryUtility)
	require.NoError(t, err)
	copy(b.Data, []byte{1, 2, 3, 4})

	grown, err := a.Realloc(b, 8, CategoryUtility)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 0, 0, 0, 0}, grown.Data)

	reports := a.ReportByCategory()
	assert.Equal(t, int64(8), reports[CategoryUtility].Current)

	// the old handle is now invalid
	err = a.Free(b)
	require.Error(t, err)
}

func TestCheckLeaksReportsOutstandingBytes(t *testing.T) {
	a := New()
	_, err := a.Alloc(16, CategoryHalos)
	require.NoError(t, err)

	leaks := a.CheckLeaks()
	require.Len(t, leaks, 1)
	assert.Equal(t, CategoryHalos, leaks[0].Category)
	assert.Equal(t, int64(16), leaks[0].Bytes)
}

func TestNegativeSizeRejected(t *testing.T) {
	a := New()
	_, err := a.Alloc(-1, CategoryHalos)
	require.Error(t, err)
}
