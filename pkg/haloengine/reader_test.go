package haloengine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/darrencroton/mimic/pkg/config"
)

func TestTreeFilePathAppendsHDF5SuffixOnlyForGenesis(t *testing.T) {
	cfg := &config.Config{Input: config.Input{SimulationDir: "/sim", TreeName: "trees_063"}}

	cfg.Input.TreeType = config.TreeLHaloBinary
	assert.Equal(t, "/sim/trees_063.7", TreeFilePath(cfg, 7))

	cfg.Input.TreeType = config.TreeGenesisLHaloHDF5
	assert.Equal(t, "/sim/trees_063.7.hdf5", TreeFilePath(cfg, 7))
}

func TestOpenReaderRejectsUnknownTreeType(t *testing.T) {
	cfg := &config.Config{Input: config.Input{TreeType: "unknown"}}
	_, err := OpenReader(cfg, "/does/not/matter")
	assert.Error(t, err)
}
