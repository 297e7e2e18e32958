// Package lhalo reads the LHalo binary tree-file format (spec.md §4.2):
// a little-endian packed header followed by every tree's raw halos back
// to back.
package lhalo

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/treereader"
)

// wireHalo is the on-disk LHaloTree record, byte-for-byte, in the host
// little-endian layout the format is packed in.
type wireHalo struct {
	Descendant          int32
	FirstProgenitor     int32
	NextProgenitor      int32
	FirstHaloInFOFgroup int32
	NextHaloInFOFgroup  int32

	Len int32

	Mvir, Vmax, VelDisp float32
	Vvir, Rvir          float32

	Pos, Vel, Spin [3]float32

	MostBoundID int64
	SnapNum     int32

	FileNr       int32
	SubhaloIndex int32
}

// Reader implements treereader.Reader for an LHalo binary file.
type Reader struct {
	f            *os.File
	ntrees       int
	totNHalos    int
	halosPerTree []int32
	treeOffsets  []int64 // byte offset of tree i's first record

	totPerSnap   []int
	perTreePerSnap [][]int // [snap][tree]
}

var _ treereader.Reader = (*Reader)(nil)

const wireHaloSize = 4*5 + 4 + 4*3 + 4*2 + 4*3*3 + 8 + 4 + 4 + 4

// Open reads the header of an LHalo binary file, detecting the legacy
// (unversioned) layout by reading the leading i32 as Ntrees directly
// (spec.md §4.2: there is only ever the legacy layout described here, no
// separate versioned variant has been observed in the wild for this
// format, so detection degenerates to "the header IS the Ntrees field").
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mimicerr.New(mimicerr.IO, path, err)
	}

	r := &Reader{f: f}
	if err := r.readHeader(path); err != nil {
		f.Close()
		return nil, err
	}
	if err := r.scanSnapCounts(path); err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

func (r *Reader) readHeader(path string) error {
	var ntrees, totNHalos int32
	if err := binary.Read(r.f, binary.LittleEndian, &ntrees); err != nil {
		return mimicerr.Wrap(mimicerr.Format, path, "reading Ntrees: %v", err)
	}
	if err := binary.Read(r.f, binary.LittleEndian, &totNHalos); err != nil {
		return mimicerr.Wrap(mimicerr.Format, path, "reading totNHalos: %v", err)
	}
	if ntrees < 0 || totNHalos < 0 {
		return mimicerr.Wrap(mimicerr.Format, path, "negative header count (Ntrees=%d totNHalos=%d)", ntrees, totNHalos)
	}

	r.ntrees = int(ntrees)
	r.totNHalos = int(totNHalos)
	r.halosPerTree = make([]int32, ntrees)
	if err := binary.Read(r.f, binary.LittleEndian, r.halosPerTree); err != nil {
		return mimicerr.Wrap(mimicerr.Format, path, "reading per-tree halo counts: %v", err)
	}

	headerEnd, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return mimicerr.New(mimicerr.IO, path, err)
	}

	r.treeOffsets = make([]int64, r.ntrees)
	offset := headerEnd
	var sum int32
	for i, n := range r.halosPerTree {
		r.treeOffsets[i] = offset
		offset += int64(n) * wireHaloSize
		sum += n
	}
	if sum != totNHalos {
		return mimicerr.Wrap(mimicerr.Format, path, "per-tree halo counts sum to %d, header says totNHalos=%d", sum, totNHalos)
	}
	return nil
}

func (r *Reader) NTrees() int { return r.ntrees }

func (r *Reader) HaloCount(treeIdx int) int {
	if treeIdx < 0 || treeIdx >= r.ntrees {
		return 0
	}
	return int(r.halosPerTree[treeIdx])
}

// LoadTree reads tree treeIdx's raw halos from their fixed offset.
func (r *Reader) LoadTree(treeIdx int) ([]treereader.RawHalo, error) {
	if treeIdx < 0 || treeIdx >= r.ntrees {
		return nil, mimicerr.Wrap(mimicerr.Invariant, r.f.Name(), "tree index %d out of range [0,%d)", treeIdx, r.ntrees)
	}
	n := int(r.halosPerTree[treeIdx])
	wire := make([]wireHalo, n)

	if _, err := r.f.Seek(r.treeOffsets[treeIdx], io.SeekStart); err != nil {
		return nil, mimicerr.New(mimicerr.IO, r.f.Name(), err)
	}
	if err := binary.Read(r.f, binary.LittleEndian, wire); err != nil {
		return nil, mimicerr.Wrap(mimicerr.Format, r.f.Name(), "reading tree %d: %v", treeIdx, err)
	}

	out := make([]treereader.RawHalo, n)
	for i, w := range wire {
		out[i] = treereader.RawHalo{
			Pos:                 w.Pos,
			Vel:                 w.Vel,
			Spin:                w.Spin,
			Len:                 w.Len,
			Mvir:                w.Mvir,
			Rvir:                w.Rvir,
			Vvir:                w.Vvir,
			Vmax:                w.Vmax,
			VelDisp:             w.VelDisp,
			MostBoundID:         w.MostBoundID,
			SnapNum:             w.SnapNum,
			Descendant:          w.Descendant,
			FirstProgenitor:     w.FirstProgenitor,
			NextProgenitor:      w.NextProgenitor,
			FirstHaloInFOFgroup: w.FirstHaloInFOFgroup,
			NextHaloInFOFgroup:  w.NextHaloInFOFgroup,
			FileNr:              w.FileNr,
			SubhaloIndex:        w.SubhaloIndex,
		}
	}
	return out, nil
}

// scanSnapCounts walks every tree once at Open time to build the per-
// snapshot totals the output writer needs up front (spec.md §4.2). This
// costs one extra linear pass over the file but avoids the writer having
// to re-derive the counts from a second full read later.
func (r *Reader) scanSnapCounts(path string) error {
	var maxSnap int32 = -1
	trees := make([][]int32, r.ntrees) // per tree: SnapNum of each halo
	for t := 0; t < r.ntrees; t++ {
		halos, err := r.LoadTree(t)
		if err != nil {
			return err
		}
		snaps := make([]int32, len(halos))
		for i, h := range halos {
			snaps[i] = h.SnapNum
			if h.SnapNum > maxSnap {
				maxSnap = h.SnapNum
			}
		}
		trees[t] = snaps
	}

	nSnap := int(maxSnap) + 1
	if nSnap < 0 {
		nSnap = 0
	}
	r.totPerSnap = make([]int, nSnap)
	r.perTreePerSnap = make([][]int, nSnap)
	for s := range r.perTreePerSnap {
		r.perTreePerSnap[s] = make([]int, r.ntrees)
	}
	for t, snaps := range trees {
		for _, s := range snaps {
			if s < 0 {
				continue
			}
			r.totPerSnap[s]++
			r.perTreePerSnap[s][t]++
		}
	}
	return nil
}

func (r *Reader) TotHalosPerSnap() []int { return r.totPerSnap }

func (r *Reader) InputHalosPerSnap() [][]int { return r.perTreePerSnap }

func (r *Reader) Close() error {
	if r.f == nil {
		return nil
	}
	err := r.f.Close()
	r.f = nil
	return err
}
