package cosmology

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flatLCDM() Cosmology {
	return Cosmology{OmegaMatter: 0.25, OmegaLambda: 0.75, HubbleH: 0.73}
}

func TestDeriveUnitsProducesPositiveQuantities(t *testing.T) {
	u := Units{LengthInCM: 3.085678e24, MassInG: 1.989e43, VelocityInCMS: 1e5}
	units := DeriveUnits(u, flatLCDM())
	assert.Greater(t, units.UnitTimeInS, 0.0)
	assert.Greater(t, units.GCode, 0.0)
	assert.Greater(t, units.HubbleCode, 0.0)
	assert.Greater(t, units.RhoCrit, 0.0)
}

func TestTimeToPresentMonotonicInRedshift(t *testing.T) {
	hubbleCode := 0.1
	t0 := TimeToPresent(0, hubbleCode, 0.25, 0.75)
	t1 := TimeToPresent(1, hubbleCode, 0.25, 0.75)
	t2 := TimeToPresent(5, hubbleCode, 0.25, 0.75)

	assert.Equal(t, 0.0, t0, "look-back time at z=0 is zero")
	assert.Greater(t, t1, t0)
	assert.Greater(t, t2, t1, "higher redshift is further in the past")
}

func TestBuildSnapTableBootstrapSlotPrecedesFirstRealAge(t *testing.T) {
	aa := []float64{0.3, 0.5, 1.0}
	table := BuildSnapTable(aa, 0.1, 0.25, 0.75)

	require.Equal(t, 3, table.Len())
	assert.InDelta(t, 1.0/0.3-1.0, table.ZZ[0], 1e-12)
	assert.InDelta(t, 0.0, table.ZZ[2], 1e-12, "a=1 is redshift zero")

	assert.Greater(t, table.AgeAt(-1), table.AgeAt(0), "bootstrap slot predates the earliest real snapshot")
	assert.Greater(t, table.AgeAt(0), table.AgeAt(1))
	assert.Greater(t, table.AgeAt(1), table.AgeAt(2))
}

func TestVirialMassPrefersOwnMvirWhenFOFHead(t *testing.T) {
	assert.Equal(t, 5.0, VirialMass(5.0, 100, true, 0.01))
	assert.Equal(t, 1.0, VirialMass(-1, 100, true, 0.01), "negative Mvir falls back to particle estimate")
	assert.Equal(t, 1.0, VirialMass(5.0, 100, false, 0.01), "non-head falls back to particle estimate")
}

func TestVirialRadiusPositiveForPositiveMass(t *testing.T) {
	units := DeriveUnits(Units{LengthInCM: 3.085678e24, MassInG: 1.989e43, VelocityInCMS: 1e5}, flatLCDM())
	r := VirialRadius(10.0, 0.0, units, flatLCDM())
	assert.Greater(t, r, 0.0)
}

func TestVirialVelocityZeroWhenRadiusNonPositive(t *testing.T) {
	units := DeriveUnits(Units{LengthInCM: 3.085678e24, MassInG: 1.989e43, VelocityInCMS: 1e5}, flatLCDM())
	assert.Equal(t, 0.0, VirialVelocity(10.0, 0, units))
	assert.Equal(t, 0.0, VirialVelocity(10.0, -1, units))
	assert.Greater(t, VirialVelocity(10.0, 1.0, units), 0.0)
}

func TestReadSnapListParsesWhitespaceSeparatedFloats(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/snaplist.txt"
	content := "0.1 0.2\n0.5\n1.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := ReadSnapList(path, 0.1, 0.25, 0.75)
	require.NoError(t, err)
	require.Equal(t, 4, table.Len())
	assert.InDelta(t, 0.1, table.AA[0], 1e-12)
	assert.InDelta(t, 1.0, table.AA[3], 1e-12)
}

func TestReadSnapListRejectsMissingFile(t *testing.T) {
	_, err := ReadSnapList("/nonexistent/snaplist.txt", 0.1, 0.25, 0.75)
	require.Error(t, err)
}

func TestReadSnapListRejectsNonNumericToken(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.txt"
	require.NoError(t, os.WriteFile(path, []byte("0.1 notanumber\n"), 0644))

	_, err := ReadSnapList(path, 0.1, 0.25, 0.75)
	require.Error(t, err)
}

func TestCriticalDensityIncreasesWithRedshift(t *testing.T) {
	units := DeriveUnits(Units{LengthInCM: 3.085678e24, MassInG: 1.989e43, VelocityInCMS: 1e5}, flatLCDM())
	c := flatLCDM()
	rho0 := CriticalDensity(0, units, c)
	rho1 := CriticalDensity(2, units, c)
	assert.True(t, math.IsInf(rho1, 0) || rho1 > rho0, "higher redshift implies denser universe for matter domination")
}
