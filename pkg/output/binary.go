package output

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/cosmology"
	"github.com/darrencroton/mimic/pkg/haloengine"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/schema"
)

// BinaryWriter is the packed-binary codec of spec.md §4.6: one file per
// configured output snapshot, named "<base>_z<redshift>_<filenr>", holding
// a header (Ntrees, TotNHalosThisSnap, HalosPerTree[Ntrees]) followed by
// every tree's OutputHalo records in workspace-commit order. Grounded on
// pkg/treereader/lhalo/lhalo.go's encoding/binary little-endian record style,
// mirrored here for writing instead of reading.
type BinaryWriter struct {
	cfg    *config.Config
	snaps  *cosmology.SnapTable
	fileNr int
	ntrees int

	files map[int]*binarySnapFile
}

type binarySnapFile struct {
	f            *os.File
	path         string
	halosPerTree []int32
	totHalos     int32
}

// NewBinaryWriter returns a writer for one input tree file's worth of
// output, across every configured output snapshot. ntrees is the input
// file's tree count (treereader.Reader.NTrees()), needed up front to size
// each snapshot file's HalosPerTree array before any tree is written.
func NewBinaryWriter(cfg *config.Config, snaps *cosmology.SnapTable, fileNr, ntrees int) *BinaryWriter {
	return &BinaryWriter{
		cfg:    cfg,
		snaps:  snaps,
		fileNr: fileNr,
		ntrees: ntrees,
		files:  make(map[int]*binarySnapFile),
	}
}

// fileFor returns the already-open file for output snapshot snap,
// creating it (and writing a zeroed placeholder header, patched in at
// Close) on first use.
func (w *BinaryWriter) fileFor(snap int) (*binarySnapFile, error) {
	if sf, ok := w.files[snap]; ok {
		return sf, nil
	}

	name := fmt.Sprintf("%s_z%.3f_%d", w.cfg.Output.FileBaseName, w.snaps.ZZ[snap], w.fileNr)
	path, err := buildPath(w.cfg.Output.Directory, name)
	if err != nil {
		return nil, err
	}
	if !w.cfg.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, mimicerr.Wrap(mimicerr.IO, path, "output file exists and --skip is set")
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, mimicerr.New(mimicerr.IO, path, err)
	}

	sf := &binarySnapFile{f: f, path: path, halosPerTree: make([]int32, w.ntrees)}
	if err := writeBinaryHeader(f, int32(w.ntrees), 0, sf.halosPerTree); err != nil {
		f.Close()
		return nil, err
	}
	w.files[snap] = sf
	return sf, nil
}

func writeBinaryHeader(f *os.File, ntrees, totHalos int32, halosPerTree []int32) error {
	if err := binary.Write(f, binary.LittleEndian, ntrees); err != nil {
		return mimicerr.New(mimicerr.IO, f.Name(), err)
	}
	if err := binary.Write(f, binary.LittleEndian, totHalos); err != nil {
		return mimicerr.New(mimicerr.IO, f.Name(), err)
	}
	if err := binary.Write(f, binary.LittleEndian, halosPerTree); err != nil {
		return mimicerr.New(mimicerr.IO, f.Name(), err)
	}
	return nil
}

// WriteTree computes and applies the shared output ordering, then appends
// treeIdx's output-eligible records to every configured output snapshot's
// file, filtered to that snapshot and in workspace-commit order.
func (w *BinaryWriter) WriteTree(treeIdx int, halos []haloengine.WorkingHalo) error {
	raws := make([]*schema.Halo, len(halos))
	for i := range halos {
		raws[i] = halos[i].Halo
	}
	ord := ComputeOrdering(raws, w.cfg.Output.SnapshotList)
	RewriteMergePointers(raws, ord)

	for _, snap := range w.cfg.Output.SnapshotList {
		sf, err := w.fileFor(snap)
		if err != nil {
			return err
		}
		var n int32
		for _, wh := range halos {
			if int(wh.Halo.SnapNum) != snap {
				continue
			}
			rec := schema.ToOutputHalo(wh.Halo, wh.Galaxy)
			if err := binary.Write(sf.f, binary.LittleEndian, rec); err != nil {
				return mimicerr.Wrap(mimicerr.IO, sf.path, "writing tree %d record: %v", treeIdx, err)
			}
			n++
		}
		if treeIdx < 0 || treeIdx >= len(sf.halosPerTree) {
			return mimicerr.Wrap(mimicerr.Invariant, sf.path, "tree index %d out of range [0,%d)", treeIdx, len(sf.halosPerTree))
		}
		sf.halosPerTree[treeIdx] += n
		sf.totHalos += n
	}
	return nil
}

// Close patches every open snapshot file's header with its final counts
// and closes the handle. Each file is opened once and held across every
// tree of the input file, per spec.md §4.6.
func (w *BinaryWriter) Close() error {
	var firstErr error
	for _, sf := range w.files {
		if _, err := sf.f.Seek(0, io.SeekStart); err != nil {
			if firstErr == nil {
				firstErr = mimicerr.New(mimicerr.IO, sf.path, err)
			}
			continue
		}
		if err := writeBinaryHeader(sf.f, int32(w.ntrees), sf.totHalos, sf.halosPerTree); err != nil {
			if firstErr == nil {
				firstErr = err
			}
		}
		if err := sf.f.Close(); err != nil && firstErr == nil {
			firstErr = mimicerr.New(mimicerr.IO, sf.path, err)
		}
	}
	return firstErr
}

var _ Writer = (*BinaryWriter)(nil)
