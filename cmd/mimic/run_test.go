package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/cosmology"
	"github.com/darrencroton/mimic/pkg/modules"
	"github.com/darrencroton/mimic/pkg/output"
)

func TestRegisterBuiltinModulesRegistersEverySampleModule(t *testing.T) {
	modules.Reset()
	t.Cleanup(modules.Reset)

	require.NoError(t, registerBuiltinModules())
	assert.ElementsMatch(t, []string{"infall", "massgrowth", "cooling"}, modules.Registered())
}

func TestNewOutputWriterSelectsBinaryWriter(t *testing.T) {
	cfg := &config.Config{
		Output: config.Output{
			Directory:    t.TempDir(),
			FileBaseName: "mimic",
			Format:       config.FormatBinary,
			SnapshotList: []int{0},
		},
		Overwrite: true,
	}
	snaps := cosmology.BuildSnapTable([]float64{1.0}, 0.1, 0.3, 0.7)

	w, hdf5Path, err := newOutputWriter(cfg, snaps, 0, 1, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, hdf5Path)
	_, isBinary := w.(*output.BinaryWriter)
	assert.True(t, isBinary)
}

func TestNewOutputWriterRejectsUnknownFormat(t *testing.T) {
	cfg := &config.Config{Output: config.Output{Format: "zarr"}}
	_, _, err := newOutputWriter(cfg, nil, 0, 0, uuid.New())
	assert.Error(t, err)
}

func TestErrIsCPULimitOnlyMatchesTheSentinel(t *testing.T) {
	assert.True(t, errIsCPULimit(errCPULimitExceeded))
	assert.False(t, errIsCPULimit(assert.AnError))
}
