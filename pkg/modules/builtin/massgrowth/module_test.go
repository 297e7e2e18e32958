package massgrowth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darrencroton/mimic/pkg/schema"
)

func TestProcessHalosComputesDeltaForStampedSatellite(t *testing.T) {
	h := schema.NewHalo(schema.FromInputTree{}, schema.FromVirial{Mvir: 5})
	h.Type = 1
	h.InfallSnap = 3
	h.InfallMvir = 2

	m := New()
	require.NoError(t, m.ProcessHalos(nil, []*schema.Halo{h}, nil))

	assert.Equal(t, float32(3), h.DeltaMvir)
}

func TestProcessHalosLeavesCentralAndUnstampedAlone(t *testing.T) {
	central := schema.NewHalo(schema.FromInputTree{}, schema.FromVirial{Mvir: 5})
	central.Type = 0

	unstamped := schema.NewHalo(schema.FromInputTree{}, schema.FromVirial{Mvir: 5})
	unstamped.Type = 1
	unstamped.InfallSnap = -1

	m := New()
	require.NoError(t, m.ProcessHalos(nil, []*schema.Halo{central, unstamped}, nil))

	assert.Equal(t, float32(0), central.DeltaMvir)
	assert.Equal(t, float32(0), unstamped.DeltaMvir)
}

func TestRequiresInfallMvir(t *testing.T) {
	m := New()
	assert.Equal(t, []string{"InfallMvir"}, m.Requires())
	assert.Equal(t, []string{"DeltaMvir"}, m.Provides())
}
