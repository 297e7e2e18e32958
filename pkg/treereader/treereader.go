// Package treereader defines the RawHalo record and the Reader interface
// shared by the LHalo binary and Genesis HDF5 tree-file formats (spec.md
// §3.1, §4.2). Concrete readers live in the lhalo and genesis
// subpackages; this package only declares the contract. The
// format-by-config-type dispatch lives in pkg/haloengine, which already
// imports both subpackages, so picking between them here would be an
// import cycle.
package treereader

import (
	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// RawHalo is the immutable per-halo record loaded from a tree file
// (spec.md §3.1's RawHalo). Index fields are −1 when absent.
type RawHalo struct {
	Pos     [3]float32
	Vel     [3]float32
	Spin    [3]float32
	Len     int32
	Mvir    float32
	Rvir    float32
	Vvir    float32
	Vmax    float32
	VelDisp float32

	MostBoundID int64
	SnapNum     int32

	Descendant           int32
	FirstProgenitor      int32
	NextProgenitor       int32
	FirstHaloInFOFgroup  int32
	NextHaloInFOFgroup   int32

	FileNr       int32
	SubhaloIndex int32
}

// IsFOFHead reports whether rawIndex is the head of its own FOF ring, the
// condition spec.md §4.4's virial_mass checks.
func (h *RawHalo) IsFOFHead(rawIndex int32) bool {
	return h.FirstHaloInFOFgroup == rawIndex
}

// Reader is the per-file read API both tree formats implement (spec.md
// §4.2): open is format-specific (see lhalo.Open / genesis.Open), the
// rest is shared.
type Reader interface {
	// NTrees is the number of trees stored in the file.
	NTrees() int
	// HaloCount is the number of raw halos in tree treeIdx.
	HaloCount(treeIdx int) int
	// LoadTree returns the raw halos of tree treeIdx, indexed exactly as
	// the tree's topology fields (Descendant, FirstProgenitor, ...)
	// expect.
	LoadTree(treeIdx int) ([]RawHalo, error)
	// TotHalosPerSnap is the total raw halo count per snapshot across
	// every tree in the file, needed by the output writer to size its
	// per-snapshot accounting before any tree is processed.
	TotHalosPerSnap() []int
	// InputHalosPerSnap is the per-snapshot, per-tree raw halo count:
	// InputHalosPerSnap()[snap][tree].
	InputHalosPerSnap() [][]int
	// Close releases the underlying file handle. Safe to call more than
	// once.
	Close() error
}

// ErrUnsupportedTreeType is a Config-kind error for a tree type neither
// subpackage implements. Nothing in this module returns it:
// haloengine.OpenReader reports an unknown tree type with its own
// Config-kind error naming input.tree_type.
var ErrUnsupportedTreeType = mimicerr.Wrap(mimicerr.Config, "", "unsupported tree type")
