package output

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darrencroton/mimic/pkg/schema"
)

func TestComputeOrderingRanksWithinSnapshot(t *testing.T) {
	processed := []*schema.Halo{
		{SnapNum: 0},
		{SnapNum: 1},
		{SnapNum: 0},
		{SnapNum: 1},
	}

	ord := ComputeOrdering(processed, []int{0, 1})

	assert.Equal(t, int32(0), ord.GalOrder[0])
	assert.Equal(t, int32(0), ord.GalOrder[1])
	assert.Equal(t, int32(1), ord.GalOrder[2], "second snap-0 entry ranks after the first")
	assert.Equal(t, int32(1), ord.GalOrder[3], "second snap-1 entry ranks after the first")
	assert.Equal(t, 2, ord.GalCount[0])
	assert.Equal(t, 2, ord.GalCount[1])
}

func TestComputeOrderingMarksNonOutputSnapshotsUnranked(t *testing.T) {
	processed := []*schema.Halo{
		{SnapNum: 5}, // not a configured output snapshot
		{SnapNum: 0},
	}

	ord := ComputeOrdering(processed, []int{0})

	assert.Equal(t, int32(-1), ord.GalOrder[0])
	assert.Equal(t, int32(0), ord.GalOrder[1])
	assert.Equal(t, 1, ord.GalCount[0])
}

func TestRewriteMergePointersTranslatesProcessedIndexToOutputRank(t *testing.T) {
	// processed[0] and processed[2] share snapshot 0; processed[2] merges
	// into processed[0] (absolute processed index 0), which must become
	// output rank 0 once rewritten, not the raw index.
	processed := []*schema.Halo{
		{SnapNum: 0},
		{SnapNum: 0},
		{SnapNum: 0, MergeIntoID: 0},
		{SnapNum: 0, MergeIntoID: -1},
	}

	ord := ComputeOrdering(processed, []int{0})
	RewriteMergePointers(processed, ord)

	assert.Equal(t, int32(0), processed[2].MergeIntoID)
	assert.Equal(t, int32(-1), processed[3].MergeIntoID, "a halo that never merges keeps its -1 sentinel untouched")
}
