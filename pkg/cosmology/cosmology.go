// Package cosmology is the support code for the halo engine (spec.md
// §4.4): the snapshot scale-factor/redshift/age table, the look-back-time
// integral it is built from, code-unit derivation, and the virial helpers
// the engine calls while constructing a fresh working halo.
package cosmology

import (
	"bufio"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/integrate/quad"

	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// InitialRedshift bootstraps the one-slot prefix Age entry (spec.md
// §4.4's Age[-1]): a redshift high enough that every tree's earliest
// progenitor postdates it.
const InitialRedshift = 1000.0

// cgs physical constants, the same values every gravitational N-body
// postprocessing code of this lineage derives code units from.
const (
	gravityCGS = 6.672e-8      // cm^3 g^-1 s^-2
	hubbleCGS  = 3.2407789e-18 // (100 km/s/Mpc) in 1/s, per h
)

// Units is the subset of pkg/config.Units cosmology needs, kept separate
// so this package does not import pkg/config.
type Units struct {
	LengthInCM    float64
	MassInG       float64
	VelocityInCMS float64
}

// Cosmology is the subset of pkg/config.Cosmology cosmology needs.
type Cosmology struct {
	OmegaMatter float64
	OmegaLambda float64
	HubbleH     float64
}

// CodeUnits holds the derived quantities from spec.md §4.4's unit
// derivation, computed once per run.
type CodeUnits struct {
	UnitTimeInS float64
	GCode       float64
	HubbleCode  float64
	RhoCrit     float64
}

// DeriveUnits populates UnitTime_in_s, G_code, Hubble_code, and RhoCrit
// from the raw simulation units and cosmology.
func DeriveUnits(u Units, c Cosmology) CodeUnits {
	unitTime := u.LengthInCM / u.VelocityInCMS
	gCode := gravityCGS * unitTime * unitTime * u.MassInG / (u.LengthInCM * u.LengthInCM * u.LengthInCM)
	hubbleCode := hubbleCGS * c.HubbleH * unitTime
	rhoCrit := 3.0 * hubbleCode * hubbleCode / (8.0 * math.Pi * gCode)
	return CodeUnits{
		UnitTimeInS: unitTime,
		GCode:       gCode,
		HubbleCode:  hubbleCode,
		RhoCrit:     rhoCrit,
	}
}

// SnapTable is the per-snapshot scale-factor/redshift/age table (spec.md
// §4.4): AA/ZZ indexed 0..len-1, and Age indexed with an extra leading
// bootstrap slot accessed via AgeAt(-1).
type SnapTable struct {
	AA  []float64
	ZZ  []float64
	age []float64 // age[0] is the Age[-1] bootstrap slot; age[i+1] is Age[i]
}

// AgeAt returns Age[i], i ranging from -1 (the bootstrap slot) to
// len(AA)-1. This is the "explicit base-pointer and offset view" spec.md
// §4.4 allows in place of a raw incremented/decremented pointer: the
// underlying slice is never split, so there is exactly one buffer to
// free (in Go, to let the garbage collector reclaim) on every path.
func (t *SnapTable) AgeAt(i int) float64 {
	return t.age[i+1]
}

// Len reports the number of real (non-bootstrap) snapshots.
func (t *SnapTable) Len() int { return len(t.AA) }

// ReadSnapList loads whitespace-separated scale factors from path and
// derives ZZ/Age via BuildSnapTable (spec.md §4.4's read_snap_list).
func ReadSnapList(path string, hubbleCode float64, omegaM, omegaL float64) (*SnapTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, mimicerr.New(mimicerr.IO, path, err)
	}
	defer f.Close()

	var aa []float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		for _, tok := range strings.Fields(scanner.Text()) {
			v, err := strconv.ParseFloat(tok, 64)
			if err != nil {
				return nil, mimicerr.Wrap(mimicerr.Format, path, "bad scale factor %q: %v", tok, err)
			}
			aa = append(aa, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, mimicerr.New(mimicerr.IO, path, err)
	}
	if len(aa) == 0 {
		return nil, mimicerr.Wrap(mimicerr.Format, path, "snapshot list is empty")
	}

	return BuildSnapTable(aa, hubbleCode, omegaM, omegaL), nil
}

// BuildSnapTable derives ZZ[i] = 1/AA[i] - 1 and Age[i] = TimeToPresent
// for every entry, plus the Age[-1] bootstrap slot at InitialRedshift.
func BuildSnapTable(aa []float64, hubbleCode, omegaM, omegaL float64) *SnapTable {
	t := &SnapTable{
		AA:  append([]float64(nil), aa...),
		ZZ:  make([]float64, len(aa)),
		age: make([]float64, len(aa)+1),
	}
	t.age[0] = TimeToPresent(InitialRedshift, hubbleCode, omegaM, omegaL)
	for i, a := range aa {
		t.ZZ[i] = 1.0/a - 1.0
		t.age[i+1] = TimeToPresent(t.ZZ[i], hubbleCode, omegaM, omegaL)
	}
	return t
}

// TimeToPresent integrates the look-back time from redshift z to z=0 in
// code time units (spec.md §4.4): adaptive quadrature of
// 1 / [a^2 sqrt(Om/a + (1-Om-Ol) + Ol*a^2)] from 1/(1+z) to 1, scaled by
// 1/H. The node count of gonum's Gauss-Legendre Fixed rule starts at 64
// and doubles until two successive estimates agree to 1e-8 relative, or
// until 4096 nodes, whichever comes first.
func TimeToPresent(z, hubbleCode, omegaM, omegaL float64) float64 {
	const relTol = 1e-8
	const maxNodes = 4096
	omegaK := 1.0 - omegaM - omegaL
	integrand := func(a float64) float64 {
		return 1.0 / (a * a * math.Sqrt(omegaM/a+omegaK+omegaL*a*a))
	}
	lower := 1.0 / (1.0 + z)
	n := 64
	result := quad.Fixed(integrand, lower, 1.0, n, nil, 0)
	for n < maxNodes {
		n *= 2
		next := quad.Fixed(integrand, lower, 1.0, n, nil, 0)
		converged := math.Abs(next-result) <= relTol*math.Abs(next)
		result = next
		if converged {
			break
		}
	}
	return result / hubbleCode
}

// VirialMass is virial_mass(r): the raw halo's own Mvir when it is a
// FOF-group head with a non-negative Mvir, else an estimate from its
// particle count.
func VirialMass(mvir float64, length int32, isFOFHead bool, particleMass float64) float64 {
	if isFOFHead && mvir >= 0 {
		return mvir
	}
	return float64(length) * particleMass
}

// CriticalDensity is rho_crit(z): 3 H^2(z) / (8 pi G).
func CriticalDensity(z float64, units CodeUnits, c Cosmology) float64 {
	hz2 := hubbleSquaredAtZ(z, units.HubbleCode, c)
	return 3.0 * hz2 / (8.0 * math.Pi * units.GCode)
}

func hubbleSquaredAtZ(z, hubbleCode float64, c Cosmology) float64 {
	onePlusZ := 1.0 + z
	return hubbleCode * hubbleCode * (c.OmegaMatter*onePlusZ*onePlusZ*onePlusZ +
		(1.0-c.OmegaMatter-c.OmegaLambda)*onePlusZ*onePlusZ +
		c.OmegaLambda)
}

// VirialRadius is virial_radius(r): cbrt(3 Mvir / (4 pi 200 rho_crit(z))).
func VirialRadius(mvir, z float64, units CodeUnits, c Cosmology) float64 {
	rhoCrit := CriticalDensity(z, units, c)
	return math.Cbrt(3.0 * mvir / (4.0 * math.Pi * 200.0 * rhoCrit))
}

// VirialVelocity is virial_velocity(r): sqrt(G_code * Mvir / Rvir), 0 if
// Rvir <= 0.
func VirialVelocity(mvir, rvir float64, units CodeUnits) float64 {
	if rvir <= 0 {
		return 0
	}
	return math.Sqrt(units.GCode * mvir / rvir)
}
