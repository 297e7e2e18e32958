package haloengine

import (
	"github.com/darrencroton/mimic/pkg/alloc"
	"github.com/darrencroton/mimic/pkg/cosmology"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/schema"
)

// joinProgenitorHalos is join_progenitor_halos(fofHead), spec.md §4.3.3:
// builds working halos for every member of the FOF ring rooted at
// fofHead from their progenitors' committed output, falling back to
// init_halo for a ringless central, then sets e.ngal to the new
// workspace length and assigns CentralHalo over the whole ring.
func (e *Engine) joinProgenitorHalos(fofHead int32) error {
	e.workspace.reset()
	e.ngal = 0
	start := 0

	member := fofHead
	for member != -1 {
		if err := e.joinRingMember(fofHead, member); err != nil {
			return err
		}
		member = e.raw[member].NextHaloInFOFgroup
	}

	if err := e.setHaloCentrals(start, e.ngal); err != nil {
		return err
	}
	return nil
}

// joinRingMember handles one FOF-ring member r: copying every progenitor's
// committed halos onto the workspace (§4.3.3 steps 1-2), or seeding a
// fresh central via init_halo when r is the FOF head and has no occupied
// progenitor (step 3).
func (e *Engine) joinRingMember(fofHead, r int32) error {
	selected := e.findMostMassiveOccupiedProgenitor(r)

	contributed := false
	p := e.raw[r].FirstProgenitor
	for p != -1 {
		aux := e.aux[p]
		for i := int32(0); i < aux.NHalos; i++ {
			src := e.processed.entries[aux.FirstHalo+i]
			if err := e.copyProgenitorHalo(fofHead, r, p, selected, src); err != nil {
				return err
			}
			contributed = true
		}
		p = e.raw[p].NextProgenitor
	}

	if !contributed && r == fofHead {
		w := e.initHalo(r)
		if err := e.appendWorking(w); err != nil {
			return err
		}
	}
	return nil
}

// copyProgenitorHalo appends a deep copy of src (a committed halo of
// progenitor p) to the workspace as a progenitor-halo of ring member r,
// applying the Type/Mvir transition rules of spec.md §4.3.3 step 2.
func (e *Engine) copyProgenitorHalo(fofHead, r, p, selected int32, src WorkingHalo) error {
	clonedHalo := src.Halo.Clone()
	clonedHalo.HaloNr = r
	clonedHalo.DT = e.snaps.AgeAt(int(e.raw[p].SnapNum)) - e.snaps.AgeAt(int(e.raw[r].SnapNum))
	cloned := WorkingHalo{Halo: clonedHalo, Galaxy: src.Galaxy.Clone()}

	if (clonedHalo.Type == 0 || clonedHalo.Type == 1) && clonedHalo.MergeStatus != 0 {
		cloned.Galaxy = nil
		clonedHalo.Type = 3
		return e.appendWorking(cloned)
	}

	prevMvir, prevVvir, prevVmax := clonedHalo.Mvir, clonedHalo.Vvir, clonedHalo.Vmax

	if p == selected {
		rawR := &e.raw[r]
		clonedHalo.MostBoundID = rawR.MostBoundID
		clonedHalo.Pos = rawR.Pos
		clonedHalo.Vel = rawR.Vel
		clonedHalo.Len = rawR.Len
		clonedHalo.Vmax = rawR.Vmax

		virNew := cosmology.VirialMass(float64(rawR.Mvir), rawR.Len, rawR.IsFOFHead(r), e.particleMass)
		clonedHalo.DeltaMvir = float32(virNew) - prevMvir
		if virNew > float64(prevMvir) {
			z := e.snaps.ZZ[rawR.SnapNum]
			rvir := cosmology.VirialRadius(virNew, z, e.units, e.cosmo)
			vvir := cosmology.VirialVelocity(virNew, rvir, e.units)
			clonedHalo.Rvir = float32(rvir)
			clonedHalo.Vvir = float32(vvir)
		}
		clonedHalo.Mvir = float32(virNew)

		if r == fofHead {
			clonedHalo.MergeStatus = 0
			clonedHalo.MergeIntoID = -1
			clonedHalo.MergTime = schema.MergTimeSentinel
			clonedHalo.Type = 0
		} else {
			clonedHalo.MergeStatus = 0
			clonedHalo.MergeIntoID = -1
			wasCentral := clonedHalo.Type == 0
			clonedHalo.Type = 1
			if wasCentral {
				clonedHalo.InfallMvir = prevMvir
				clonedHalo.InfallVvir = prevVvir
				clonedHalo.InfallVmax = prevVmax
				clonedHalo.InfallSnap = e.raw[r].SnapNum
			}
		}
	} else {
		wasCentral := clonedHalo.Type == 0
		clonedHalo.DeltaMvir = -prevMvir
		clonedHalo.Mvir = 0
		if wasCentral {
			clonedHalo.InfallMvir = prevMvir
			clonedHalo.InfallVvir = prevVvir
			clonedHalo.InfallVmax = prevVmax
			clonedHalo.InfallSnap = e.raw[r].SnapNum
		}
		clonedHalo.MergTime = 0
		clonedHalo.Type = 2
	}

	return e.appendWorking(cloned)
}

// findMostMassiveOccupiedProgenitor is find_most_massive_progenitor(r),
// spec.md §4.3.3 step 1: the highest-Len progenitor that produced at
// least one working halo, or -1 if none did. The spec also describes
// tracking the highest-Len progenitor regardless of occupancy, but
// nothing downstream of join_progenitor_halos consumes that value, so it
// is not computed here.
func (e *Engine) findMostMassiveOccupiedProgenitor(r int32) int32 {
	best := int32(-1)
	bestLen := int32(-1)
	p := e.raw[r].FirstProgenitor
	for p != -1 {
		if e.aux[p].NHalos > 0 && e.raw[p].Len > bestLen {
			bestLen = e.raw[p].Len
			best = p
		}
		p = e.raw[p].NextProgenitor
	}
	return best
}

// initHalo is init_halo(r), spec.md §4.3.3 step 3: a brand-new working
// halo for a raw halo with no occupied progenitor, seeded from the raw
// halo and the virial helpers (§4.4). It mints a fresh unique halo id,
// the one case where copy_progenitor_halos's Clone does not carry one
// over from an existing lineage.
func (e *Engine) initHalo(r int32) WorkingHalo {
	rawR := &e.raw[r]
	virMvir := cosmology.VirialMass(float64(rawR.Mvir), rawR.Len, rawR.IsFOFHead(r), e.particleMass)
	z := e.snaps.ZZ[rawR.SnapNum]
	rvir := cosmology.VirialRadius(virMvir, z, e.units, e.cosmo)
	vvir := cosmology.VirialVelocity(virMvir, rvir, e.units)

	h := schema.NewHalo(schema.FromInputTree{
		Pos:         rawR.Pos,
		Vel:         rawR.Vel,
		Spin:        rawR.Spin,
		Len:         rawR.Len,
		Vmax:        rawR.Vmax,
		VelDisp:     rawR.VelDisp,
		SnapNum:     rawR.SnapNum,
		MostBoundID: rawR.MostBoundID,
	}, schema.FromVirial{
		Mvir: float32(virMvir),
		Rvir: float32(rvir),
		Vvir: float32(vvir),
	})
	h.HaloNr = r
	h.UniqueHaloID = e.nextUniqueHaloID
	e.nextUniqueHaloID++
	return WorkingHalo{Halo: h, Galaxy: schema.NewGalaxy()}
}

// setHaloCentrals is set_halo_centrals, spec.md §4.3.3 step 4: over the
// newly appended span [start, end), the unique Type 0-or-1 entry's
// workspace index becomes every entry's CentralHalo.
func (e *Engine) setHaloCentrals(start, end int) error {
	central := -1
	for i := start; i < end; i++ {
		t := e.workspace.entries[i].Halo.Type
		if t == 0 || t == 1 {
			if central != -1 {
				return mimicerr.Wrap(mimicerr.Invariant, "", "two centrals in FOF group build (workspace indices %d and %d)", central, i)
			}
			central = i
		}
	}
	if central == -1 {
		return mimicerr.Wrap(mimicerr.Invariant, "", "no central in FOF group build (workspace span [%d,%d))", start, end)
	}
	for i := start; i < end; i++ {
		e.workspace.entries[i].Halo.CentralHalo = int32(central)
	}
	return nil
}

// verifyCentralHaloInvariant is the §4.3.4 pre-pipeline check, run once
// per FOF-group build immediately after join_progenitor_halos and before
// the module pipeline executes: workspace[0]'s CentralHalo must resolve
// to a Type-0 entry whose HaloNr is the FOF head.
func (e *Engine) verifyCentralHaloInvariant(fofHead int32) error {
	central := e.workspace.entries[0].Halo.CentralHalo
	c := e.workspace.entries[central].Halo
	if c.Type != 0 || c.HaloNr != fofHead {
		return mimicerr.Wrap(mimicerr.Invariant, "",
			"central halo check failed: workspace[0].CentralHalo=%d has Type=%d HaloNr=%d, want Type=0 HaloNr=%d (FOF head)",
			central, c.Type, c.HaloNr, fofHead)
	}
	return nil
}

// appendWorking grows the workspace if needed and appends w, tracking
// e.ngal as the new workspace length (spec.md §4.3.1's growth contract).
func (e *Engine) appendWorking(w WorkingHalo) error {
	if err := e.workspace.append(e.alloc, alloc.CategoryHalos, w); err != nil {
		return err
	}
	e.ngal = len(e.workspace.entries)
	return nil
}
