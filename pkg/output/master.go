package output

import (
	"fmt"

	"gonum.org/v1/hdf5"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// BuildMasterFile produces the run's master HDF5 file (spec.md §4.6:
// "After all files are written, a master file with external links into
// the per-file groups is produced"). perFilePaths are the paths every
// per-input-file HDF5Writer's Path reported, in file-number order.
func BuildMasterFile(cfg *config.Config, perFilePaths []string, outputSnaps []int) error {
	name := cfg.Output.FileBaseName + ".hdf5"
	path, err := buildPath(cfg.Output.Directory, name)
	if err != nil {
		return err
	}

	master, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return mimicerr.Wrap(mimicerr.IO, path, "creating master file: %v", err)
	}
	defer master.Close()

	for _, snap := range outputSnaps {
		groupName := fmt.Sprintf("Snap%03d", snap)
		group, err := master.CreateGroup(groupName)
		if err != nil {
			return mimicerr.Wrap(mimicerr.IO, path, "creating master group %s: %v", groupName, err)
		}
		for fileNr, target := range perFilePaths {
			linkName := fmt.Sprintf("File%d", fileNr)
			if err := group.LinkExternal(target, groupName, linkName); err != nil {
				group.Close()
				return mimicerr.Wrap(mimicerr.IO, path, "linking %s -> %s/%s: %v", linkName, target, groupName, err)
			}
		}
		group.Close()
	}
	return nil
}
