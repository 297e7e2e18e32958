package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewHaloAppliesDefaultRules(t *testing.T) {
	h := NewHalo(FromInputTree{
		Pos:         [3]float32{1, 2, 3},
		SnapNum:     5,
		MostBoundID: 42,
	}, FromVirial{Mvir: 10, Rvir: 0.5, Vvir: 100})

	assert.Equal(t, [3]float32{1, 2, 3}, h.Pos)
	assert.Equal(t, int32(5), h.SnapNum)
	assert.Equal(t, int64(42), h.MostBoundID)
	assert.Equal(t, float32(10), h.Mvir)

	assert.Equal(t, int32(0), h.Type, "fresh halo defaults to central")
	assert.Equal(t, int32(-1), h.InfallSnap)
	assert.Equal(t, int32(-1), h.MergeIntoID)
	assert.Equal(t, int32(-1), h.MergeIntoSnapNum)
	assert.Equal(t, MergTimeSentinel, h.MergTime)
	assert.Equal(t, float32(0), h.CentralMvir, "no progenitor to copy from")
}

func TestNewGalaxyIsZeroValued(t *testing.T) {
	g := NewGalaxy()
	assert.Equal(t, Galaxy{}, *g)
}

func TestCloneIsIndependentCopy(t *testing.T) {
	h := NewHalo(FromInputTree{}, FromVirial{})
	h2 := h.Clone()
	h2.Mvir = 99
	assert.NotEqual(t, h.Mvir, h2.Mvir)

	g := NewGalaxy()
	g.StellarMass = 1
	g2 := g.Clone()
	g2.StellarMass = 2
	assert.Equal(t, float32(1), g.StellarMass)
	assert.Equal(t, float32(2), g2.StellarMass)

	var nilGalaxy *Galaxy
	assert.Nil(t, nilGalaxy.Clone())
}

func TestToOutputHaloProjectsBothRecords(t *testing.T) {
	h := NewHalo(FromInputTree{SnapNum: 3}, FromVirial{Mvir: 7})
	g := NewGalaxy()
	g.StellarMass = 2.5

	o := ToOutputHalo(h, g)
	assert.Equal(t, float32(7), o.Mvir)
	assert.Equal(t, int32(3), o.SnapNum)
	assert.Equal(t, float32(2.5), o.StellarMass)
}

func TestToOutputHaloToleratesNilGalaxy(t *testing.T) {
	h := NewHalo(FromInputTree{}, FromVirial{})
	o := ToOutputHalo(h, nil)
	assert.Equal(t, float32(0), o.StellarMass)
}

func TestOutputRecordSizeMatchesFieldSum(t *testing.T) {
	var want int64
	for _, f := range OutputFields() {
		want += int64(f.Type.ByteSize())
	}
	assert.Equal(t, want, OutputRecordSize())
	assert.Greater(t, OutputRecordSize(), int64(0))
}
