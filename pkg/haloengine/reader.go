package haloengine

import (
	"fmt"
	"path/filepath"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/treereader"
	"github.com/darrencroton/mimic/pkg/treereader/genesis"
	"github.com/darrencroton/mimic/pkg/treereader/lhalo"
)

// TreeFilePath builds the per-file input path from the config's
// simulation_dir/tree_name and a file number, following the
// "<tree_name>.<filenr>" convention the LHaloTree lineage of tools has
// used since Millennium (e.g. "trees_063.7"); Genesis HDF5 files carry
// the same stem with an ".hdf5" suffix.
func TreeFilePath(cfg *config.Config, fileNr int) string {
	name := fmt.Sprintf("%s.%d", cfg.Input.TreeName, fileNr)
	if cfg.Input.TreeType == config.TreeGenesisLHaloHDF5 {
		name += ".hdf5"
	}
	return filepath.Join(cfg.Input.SimulationDir, name)
}

// OpenReader dispatches to lhalo.Open or genesis.Open by cfg.Input.TreeType
// (spec.md §4.2). The treereader package doc reserves this dispatch for
// this package, since picking between the two subpackages
// from treereader itself would be an import cycle.
func OpenReader(cfg *config.Config, path string) (treereader.Reader, error) {
	switch cfg.Input.TreeType {
	case config.TreeLHaloBinary:
		return lhalo.Open(path)
	case config.TreeGenesisLHaloHDF5:
		return genesis.Open(path)
	default:
		return nil, mimicerr.Wrap(mimicerr.Config, "input.tree_type", "unknown tree type %q", cfg.Input.TreeType)
	}
}
