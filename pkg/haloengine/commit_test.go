package haloengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darrencroton/mimic/pkg/schema"
	"github.com/darrencroton/mimic/pkg/treereader"
)

func TestCommitHaloPropertiesAppendsActiveHalosInOrder(t *testing.T) {
	raw := make([]treereader.RawHalo, 2)
	e := newTestEngine(t, raw)
	e.ngal = 2
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 1, Type: 0}}))
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 2, Type: 1}}))

	require.NoError(t, e.commitHaloProperties(0))

	require.Len(t, e.processed.entries, 2)
	assert.Equal(t, e.raw[0].SnapNum, e.processed.entries[0].Halo.SnapNum)
	assert.EqualValues(t, 2, e.aux[0].NHalos)
	assert.EqualValues(t, 0, e.aux[0].FirstHalo)
}

func TestCommitHaloPropertiesRewritesMergeTargetAndOmitsMergedEntry(t *testing.T) {
	raw := make([]treereader.RawHalo, 1)
	e := newTestEngine(t, raw)

	survivor := WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 10, Type: 0, MergeIntoID: -1}}
	require.NoError(t, e.appendWorking(survivor))
	e.ngal = 1
	require.NoError(t, e.commitHaloProperties(0))
	require.Len(t, e.processed.entries, 1)

	// Second FOF-group build at the same raw halo's descendant snapshot:
	// a merged satellite pointing back at the survivor's lineage id.
	e.workspace.reset()
	merging := WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 10, Type: 1, MergeStatus: 1, MergeIntoID: 0}}
	require.NoError(t, e.appendWorking(merging))
	e.ngal = 1

	require.NoError(t, e.commitHaloProperties(0))

	require.Len(t, e.processed.entries, 1, "a merged entry is not appended, only rewrites its target")
	target := e.processed.entries[0].Halo
	assert.EqualValues(t, 1, target.MergeStatus)
	assert.EqualValues(t, 1, target.MergeIntoID, "buildBase (1, the one already-processed entry) plus workspace-local 0 minus zero offset")
	assert.Equal(t, e.raw[0].SnapNum, target.MergeIntoSnapNum)
}

func TestCommitHaloPropertiesComputesOffsetFromEarlierMergedEntries(t *testing.T) {
	raw := make([]treereader.RawHalo, 1)
	e := newTestEngine(t, raw)

	// Seed three already-processed lineages: the central (1) and two
	// satellites (2, 3) that will each merge away in the next group build.
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 1, Type: 0}}))
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 2, Type: 1}}))
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 3, Type: 1}}))
	e.ngal = 3
	require.NoError(t, e.commitHaloProperties(0))
	require.Len(t, e.processed.entries, 3)
	e.workspace.reset()

	// Next group build at the descendant snapshot: the central stays
	// active, and both satellites merge. Satellite A's target id (0) is
	// smaller than satellite B's (5), so B's offset counts A's earlier
	// merge and shifts its rewritten MergeIntoID down by one.
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 1, Type: 0}}))
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 2, Type: 1, MergeStatus: 1, MergeIntoID: 0}}))
	require.NoError(t, e.appendWorking(WorkingHalo{Halo: &schema.Halo{HaloNr: 0, UniqueHaloID: 3, Type: 1, MergeStatus: 1, MergeIntoID: 5}}))
	e.ngal = 3

	require.NoError(t, e.commitHaloProperties(0))

	require.Len(t, e.processed.entries, 4, "the central is appended fresh; both merges rewrite existing entries instead of appending")
	aTarget := e.processed.entries[1].Halo
	bTarget := e.processed.entries[2].Halo
	assert.EqualValues(t, 3, aTarget.MergeIntoID, "buildBase (3) plus workspace-local 0 minus zero offset")
	assert.EqualValues(t, 7, bTarget.MergeIntoID, "buildBase (3) plus workspace-local 5 minus A's earlier, smaller-id merge offset of one")
}
