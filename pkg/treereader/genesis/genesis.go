// Package genesis reads the Genesis LHaloTree HDF5 format (spec.md §4.2):
// one group per snapshot, a per-snapshot dataset enumerating halos per
// tree, and per-field datasets merged into RawHalo records on demand.
package genesis

import (
	"fmt"
	"sort"

	"gonum.org/v1/hdf5"

	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/treereader"
)

// scalarFields lists the dataset name within a snapshot group for each
// scalar RawHalo field this reader merges.
var scalarFields = []string{
	"Len", "Mvir", "Rvir", "Vvir", "Vmax", "VelDisp",
	"MostBoundID", "SnapNum",
	"Descendant", "FirstProgenitor", "NextProgenitor",
	"FirstHaloInFOFgroup", "NextHaloInFOFgroup",
	"FileNr", "SubhaloIndex",
}

const (
	posDataset  = "Pos"
	velDataset  = "Vel"
	spinDataset = "Spin"
)

type snapGroup struct {
	name          string
	snapNum       int
	halosPerTree  []int32
	treeOffset    []int64 // first global row index of tree i in this snapshot
	totalHalos    int64
}

// Reader implements treereader.Reader for a Genesis HDF5 file. Trees are
// addressed by a single flat index across all snapshots' tree lists, in
// ascending snapshot order, matching the order a caller would enumerate
// forests in.
type Reader struct {
	path string
	file *hdf5.File

	snaps     []snapGroup
	treeToSnap []int  // tree index -> snaps[] index
	treeLocal  []int  // tree index -> local tree index within its snapshot

	totPerSnap     []int
	perTreePerSnap [][]int
}

var _ treereader.Reader = (*Reader)(nil)

// Open opens a Genesis HDF5 file and lazily scans its schema: it reads
// every snapshot group's halos-per-tree dataset (cheap) but defers
// reading any per-halo field dataset until LoadTree is called.
func Open(path string) (*Reader, error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, mimicerr.New(mimicerr.IO, path, err)
	}

	r := &Reader{path: path, file: f}
	if err := r.scanSchema(); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) scanSchema() error {
	names, err := groupNames(r.file)
	if err != nil {
		return mimicerr.Wrap(mimicerr.Format, r.path, "listing snapshot groups: %v", err)
	}
	sort.Strings(names)

	var globalTree int
	for _, name := range names {
		snapNum, ok := parseSnapName(name)
		if !ok {
			continue
		}
		g, err := r.file.OpenGroup(name)
		if err != nil {
			return mimicerr.Wrap(mimicerr.Format, r.path, "opening group %s: %v", name, err)
		}
		halosPerTree, err := readInt32Dataset(g, "HalosPerTree")
		g.Close()
		if err != nil {
			return mimicerr.Wrap(mimicerr.Format, r.path, "reading HalosPerTree in %s: %v", name, err)
		}

		sg := snapGroup{name: name, snapNum: snapNum, halosPerTree: halosPerTree}
		sg.treeOffset = make([]int64, len(halosPerTree))
		var offset int64
		for i, n := range halosPerTree {
			sg.treeOffset[i] = offset
			offset += int64(n)
		}
		sg.totalHalos = offset
		r.snaps = append(r.snaps, sg)

		for localIdx := range halosPerTree {
			r.treeToSnap = append(r.treeToSnap, len(r.snaps)-1)
			r.treeLocal = append(r.treeLocal, localIdx)
			globalTree++
		}
	}

	r.buildSnapCounts()
	return nil
}

func (r *Reader) buildSnapCounts() {
	maxSnap := -1
	for _, sg := range r.snaps {
		if sg.snapNum > maxSnap {
			maxSnap = sg.snapNum
		}
	}
	n := maxSnap + 1
	if n < 0 {
		n = 0
	}
	r.totPerSnap = make([]int, n)
	r.perTreePerSnap = make([][]int, n)
	for i := range r.perTreePerSnap {
		r.perTreePerSnap[i] = make([]int, r.NTrees())
	}

	treeBase := 0
	for sgIdx, sg := range r.snaps {
		total := 0
		for _, c := range sg.halosPerTree {
			total += int(c)
		}
		r.totPerSnap[sg.snapNum] = total
		for local, c := range sg.halosPerTree {
			r.perTreePerSnap[sg.snapNum][treeBase+local] = int(c)
		}
		treeBase += len(sg.halosPerTree)
		_ = sgIdx
	}
}

func (r *Reader) NTrees() int { return len(r.treeToSnap) }

func (r *Reader) HaloCount(treeIdx int) int {
	if treeIdx < 0 || treeIdx >= len(r.treeToSnap) {
		return 0
	}
	sg := r.snaps[r.treeToSnap[treeIdx]]
	return int(sg.halosPerTree[r.treeLocal[treeIdx]])
}

// LoadTree reads every RawHalo field dataset for tree treeIdx's row
// range within its snapshot group and merges them into RawHalo records.
func (r *Reader) LoadTree(treeIdx int) ([]treereader.RawHalo, error) {
	if treeIdx < 0 || treeIdx >= len(r.treeToSnap) {
		return nil, mimicerr.Wrap(mimicerr.Invariant, r.path, "tree index %d out of range [0,%d)", treeIdx, len(r.treeToSnap))
	}
	sg := r.snaps[r.treeToSnap[treeIdx]]
	local := r.treeLocal[treeIdx]
	start := sg.treeOffset[local]
	n := int64(sg.halosPerTree[local])

	g, err := r.file.OpenGroup(sg.name)
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.Format, r.path, "opening group %s: %v", sg.name, err)
	}
	defer g.Close()

	out := make([]treereader.RawHalo, n)

	pos, err := readVec3Subset(g, posDataset, start, n)
	if err != nil {
		return nil, err
	}
	vel, err := readVec3Subset(g, velDataset, start, n)
	if err != nil {
		return nil, err
	}
	spin, err := readVec3Subset(g, spinDataset, start, n)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].Pos = pos[i]
		out[i].Vel = vel[i]
		out[i].Spin = spin[i]
	}

	for _, field := range scalarFields {
		if err := mergeScalarField(g, field, start, n, out); err != nil {
			return nil, mimicerr.Wrap(mimicerr.Format, r.path, "reading %s in %s: %v", field, sg.name, err)
		}
	}

	return out, nil
}

func (r *Reader) TotHalosPerSnap() []int     { return r.totPerSnap }
func (r *Reader) InputHalosPerSnap() [][]int { return r.perTreePerSnap }

func (r *Reader) Close() error {
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func parseSnapName(name string) (int, bool) {
	var n int
	if _, err := fmt.Sscanf(name, "Snap%d", &n); err != nil {
		return 0, false
	}
	return n, true
}
