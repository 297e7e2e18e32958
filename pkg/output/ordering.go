// Package output implements the output writer (spec.md §4.6): the shared
// output-ordering routine both codecs use before they serialise a tree,
// and the two codecs themselves (packed binary, HDF5).
package output

import (
	"github.com/darrencroton/mimic/pkg/haloengine"
	"github.com/darrencroton/mimic/pkg/schema"
)

// Writer is the per-input-file codec interface both BinaryWriter and
// HDF5Writer implement, so cmd/mimic's driver can select one by
// config.Output.Format without branching anywhere else.
type Writer interface {
	WriteTree(treeIdx int, halos []haloengine.WorkingHalo) error
	Close() error
}

// Ordering is the per-tree output-ordering state both codecs compute
// before writing: the halo count each configured output snapshot
// contributes, and the position every processed entry occupies within
// its own snapshot's output stream.
type Ordering struct {
	GalCount map[int]int
	GalOrder []int32
}

// ComputeOrdering walks processed once, in commit order, and assigns each
// entry its OutputGalOrder: the rank it holds among processed entries
// sharing its snapshot, restricted to the configured output snapshots. An
// entry whose own snapshot is not in outputSnaps gets -1 — it is never
// itself written, so it can never be a valid mergeIntoID target either.
func ComputeOrdering(processed []*schema.Halo, outputSnaps []int) Ordering {
	isOutput := make(map[int32]bool, len(outputSnaps))
	for _, s := range outputSnaps {
		isOutput[int32(s)] = true
	}

	count := make(map[int]int, len(outputSnaps))
	order := make([]int32, len(processed))
	for i, h := range processed {
		if !isOutput[h.SnapNum] {
			order[i] = -1
			continue
		}
		snap := int(h.SnapNum)
		order[i] = int32(count[snap])
		count[snap]++
	}
	return Ordering{GalCount: count, GalOrder: order}
}

// RewriteMergePointers is spec.md §4.6's sole merge-pointer adjustment:
// every entry with a live mergeIntoID (set as an absolute processed-array
// index by pkg/haloengine's commit step) is repointed to its target's
// position within its own snapshot's output stream. Call once per tree,
// after ComputeOrdering and before either codec serialises a record —
// both codecs share this routine so the rewrite can never drift between
// them.
func RewriteMergePointers(processed []*schema.Halo, ord Ordering) {
	for _, h := range processed {
		if h.MergeIntoID >= 0 {
			h.MergeIntoID = ord.GalOrder[h.MergeIntoID]
		}
	}
}
