package output

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"gonum.org/v1/hdf5"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/cosmology"
	"github.com/darrencroton/mimic/pkg/haloengine"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/schema"
)

// hdf5ChunkRecords is the per-chunk record count for the Galaxies dataset
// (spec.md §4.6: "chunk size on the order of 10^3 records ... keep chunk
// payload in the 10kB-1MB band"). OutputRecordSize is on the order of a
// few hundred bytes, so 1024 records lands comfortably in that band.
const hdf5ChunkRecords = 1024

// HDF5Writer is the HDF5 codec of spec.md §4.6: one file per input tree
// file ("<base>_<filenr:03>.hdf5"), with one group per configured output
// snapshot holding a chunked compound-type "Galaxies" dataset and a
// companion "TreeHalosPerSnap" dataset, plus run-metadata attributes.
// Grounded on pkg/treereader/genesis/io.go's dataspace/hyperslab style,
// used here for writing instead of reading.
type HDF5Writer struct {
	cfg     *config.Config
	snaps   *cosmology.SnapTable
	fileNr  int
	ntrees  int
	runID   uuid.UUID
	version string

	file   *hdf5.File
	path   string
	dtype  *hdf5.Datatype
	groups map[int]*hdf5SnapGroup
}

type hdf5SnapGroup struct {
	group        *hdf5.Group
	dataset      *hdf5.Dataset
	halosPerTree []int32
	count        int64
}

// NewHDF5Writer creates "<base>_<filenr:03>.hdf5" and opens it for the
// lifetime of one input tree file's worth of output. runID/version are
// stamped as run-metadata attributes on every snapshot group.
func NewHDF5Writer(cfg *config.Config, snaps *cosmology.SnapTable, fileNr, ntrees int, runID uuid.UUID, version string) (*HDF5Writer, error) {
	name := fmt.Sprintf("%s_%03d.hdf5", cfg.Output.FileBaseName, fileNr)
	path, err := buildPath(cfg.Output.Directory, name)
	if err != nil {
		return nil, err
	}
	if !cfg.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return nil, mimicerr.Wrap(mimicerr.IO, path, "output file exists and --skip is set")
		}
	}

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.IO, path, "creating HDF5 file: %v", err)
	}

	dtype, err := hdf5.NewDatatypeFromValue(schema.OutputHalo{})
	if err != nil {
		f.Close()
		return nil, mimicerr.Wrap(mimicerr.Format, path, "building Galaxies compound type: %v", err)
	}

	return &HDF5Writer{
		cfg: cfg, snaps: snaps, fileNr: fileNr, ntrees: ntrees, runID: runID, version: version,
		file: f, path: path, dtype: dtype,
		groups: make(map[int]*hdf5SnapGroup),
	}, nil
}

func (w *HDF5Writer) groupFor(snap int) (*hdf5SnapGroup, error) {
	if g, ok := w.groups[snap]; ok {
		return g, nil
	}

	name := fmt.Sprintf("Snap%03d", snap)
	group, err := w.file.CreateGroup(name)
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.IO, w.path, "creating group %s: %v", name, err)
	}

	space, err := hdf5.CreateSimpleDataspace([]uint{0}, []uint{hdf5.COUNT_UNLIMITED})
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.IO, w.path, "creating %s dataspace: %v", name, err)
	}
	defer space.Close()

	plist, err := hdf5.NewPropList(hdf5.P_DATASET_CREATE)
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.IO, w.path, "creating %s chunk proplist: %v", name, err)
	}
	if err := plist.SetChunk([]uint{hdf5ChunkRecords}); err != nil {
		return nil, mimicerr.Wrap(mimicerr.IO, w.path, "setting %s chunk size: %v", name, err)
	}

	dataset, err := group.CreateDatasetWith("Galaxies", w.dtype, space, plist)
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.IO, w.path, "creating %s/Galaxies: %v", name, err)
	}

	if err := writeRunMetadataAttrs(group, w.cfg, w.runID, w.version); err != nil {
		return nil, err
	}

	g := &hdf5SnapGroup{group: group, dataset: dataset, halosPerTree: make([]int32, w.ntrees)}
	w.groups[snap] = g
	return g, nil
}

func writeRunMetadataAttrs(group *hdf5.Group, cfg *config.Config, runID uuid.UUID, version string) error {
	attrs := map[string]interface{}{
		"BoxSize":       cfg.Simulation.BoxSize,
		"OmegaMatter":   cfg.Simulation.Cosmology.OmegaMatter,
		"OmegaLambda":   cfg.Simulation.Cosmology.OmegaLambda,
		"HubbleH":       cfg.Simulation.Cosmology.HubbleH,
		"LengthInCM":    cfg.Units.LengthInCM,
		"MassInG":       cfg.Units.MassInG,
		"VelocityInCMS": cfg.Units.VelocityInCMS,
		"RunID":         runID.String(),
		"Version":       version,
	}
	for name, v := range attrs {
		if err := writeScalarAttr(group, name, v); err != nil {
			return err
		}
	}
	return nil
}

// writeScalarAttr writes a single scalar attribute of whatever concrete
// type v holds (float64 or string, the only kinds run metadata uses).
func writeScalarAttr(group *hdf5.Group, name string, v interface{}) error {
	space, err := hdf5.CreateSimpleDataspace([]uint{1}, nil)
	if err != nil {
		return mimicerr.Wrap(mimicerr.IO, "", "attribute %s dataspace: %v", name, err)
	}
	defer space.Close()

	var dtype *hdf5.Datatype
	switch v.(type) {
	case string:
		dtype, err = hdf5.NewDatatypeFromValue("")
	default:
		dtype, err = hdf5.NewDatatypeFromValue(float64(0))
	}
	if err != nil {
		return mimicerr.Wrap(mimicerr.IO, "", "attribute %s datatype: %v", name, err)
	}

	attr, err := group.CreateAttribute(name, dtype, space)
	if err != nil {
		return mimicerr.Wrap(mimicerr.IO, "", "creating attribute %s: %v", name, err)
	}
	defer attr.Close()

	if err := attr.Write(v, dtype); err != nil {
		return mimicerr.Wrap(mimicerr.IO, "", "writing attribute %s: %v", name, err)
	}
	return nil
}

// WriteTree computes and applies the shared output ordering, then appends
// treeIdx's output-eligible records to every configured output
// snapshot's Galaxies dataset.
func (w *HDF5Writer) WriteTree(treeIdx int, halos []haloengine.WorkingHalo) error {
	raws := make([]*schema.Halo, len(halos))
	for i := range halos {
		raws[i] = halos[i].Halo
	}
	ord := ComputeOrdering(raws, w.cfg.Output.SnapshotList)
	RewriteMergePointers(raws, ord)

	for _, snap := range w.cfg.Output.SnapshotList {
		g, err := w.groupFor(snap)
		if err != nil {
			return err
		}

		var rows []schema.OutputHalo
		for _, wh := range halos {
			if int(wh.Halo.SnapNum) != snap {
				continue
			}
			rows = append(rows, schema.ToOutputHalo(wh.Halo, wh.Galaxy))
		}
		if len(rows) == 0 {
			continue
		}
		if err := appendRows(g, rows); err != nil {
			return mimicerr.Wrap(mimicerr.IO, w.path, "appending tree %d to Snap%03d/Galaxies: %v", treeIdx, snap, err)
		}
		if treeIdx < 0 || treeIdx >= len(g.halosPerTree) {
			return mimicerr.Wrap(mimicerr.Invariant, w.path, "tree index %d out of range [0,%d)", treeIdx, len(g.halosPerTree))
		}
		g.halosPerTree[treeIdx] += int32(len(rows))
	}
	return nil
}

// appendRows extends a group's Galaxies dataset by len(rows) and writes
// them into the newly opened tail, the streaming-extend pattern an
// unlimited-max chunked dataset requires.
func appendRows(g *hdf5SnapGroup, rows []schema.OutputHalo) error {
	start := g.count
	n := int64(len(rows))
	if err := g.dataset.Resize([]uint{uint(start + n)}); err != nil {
		return err
	}

	fileSpace := g.dataset.Space()
	defer fileSpace.Close()
	if err := fileSpace.SelectHyperslab([]uint{uint(start)}, nil, []uint{uint(n)}, nil); err != nil {
		return err
	}
	memSpace, err := hdf5.CreateSimpleDataspace([]uint{uint(n)}, nil)
	if err != nil {
		return err
	}
	defer memSpace.Close()

	if err := g.dataset.WriteSubset(&rows, memSpace, fileSpace); err != nil {
		return err
	}
	g.count += n
	return nil
}

// Path returns the file path this writer owns, for BuildMasterFile to
// link against once every input file's writer has closed.
func (w *HDF5Writer) Path() string { return w.path }

// Close writes each group's TreeHalosPerSnap companion dataset and
// Ntrees/TotHalosPerSnap attributes, then closes every handle and the
// file itself.
func (w *HDF5Writer) Close() error {
	var firstErr error
	for snap, g := range w.groups {
		if err := writeTreeHalosPerSnap(g); err != nil && firstErr == nil {
			firstErr = mimicerr.Wrap(mimicerr.IO, w.path, "writing Snap%03d/TreeHalosPerSnap: %v", snap, err)
		}
		if err := writeScalarAttr(g.group, "Ntrees", float64(w.ntrees)); err != nil && firstErr == nil {
			firstErr = err
		}
		if err := writeScalarAttr(g.group, "TotHalosPerSnap", float64(g.count)); err != nil && firstErr == nil {
			firstErr = err
		}
		g.dataset.Close()
		g.group.Close()
	}
	w.dtype.Close()
	if err := w.file.Close(); err != nil && firstErr == nil {
		firstErr = mimicerr.New(mimicerr.IO, w.path, err)
	}
	return firstErr
}

func writeTreeHalosPerSnap(g *hdf5SnapGroup) error {
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(g.halosPerTree))}, nil)
	if err != nil {
		return err
	}
	defer space.Close()

	dtype, err := hdf5.NewDatatypeFromValue(int32(0))
	if err != nil {
		return err
	}

	dataset, err := g.group.CreateDataset("TreeHalosPerSnap", dtype, space)
	if err != nil {
		return err
	}
	defer dataset.Close()

	return dataset.Write(&g.halosPerTree)
}

var _ Writer = (*HDF5Writer)(nil)
