package haloengine

import (
	"github.com/darrencroton/mimic/pkg/alloc"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/schema"
)

// WorkingHalo pairs a working Halo with its owned Galaxy. Galaxy ownership
// is exclusive (spec.md §3.1): a WorkingHalo's Galaxy pointer is never
// shared with another WorkingHalo, only deep-copied via Clone.
type WorkingHalo struct {
	Halo   *schema.Halo
	Galaxy *schema.Galaxy
}

// haloSlice extracts the Halo pointers the module registry operates on
// (pkg/modules.System.Execute takes []*schema.Halo, paired positionally
// with galaxySlice's []*schema.Galaxy).
func haloSlice(ws []WorkingHalo) []*schema.Halo {
	out := make([]*schema.Halo, len(ws))
	for i := range ws {
		out[i] = ws[i].Halo
	}
	return out
}

// galaxySlice extracts the Galaxy pointers for the module pipeline,
// positionally parallel to haloSlice's output: galaxySlice(ws)[i] is the
// Galaxy owned by haloSlice(ws)[i] (spec.md §3.1's "the record written
// and read by modules"). An entry is nil for a working halo that has not
// yet had one allocated.
func galaxySlice(ws []WorkingHalo) []*schema.Galaxy {
	out := make([]*schema.Galaxy, len(ws))
	for i := range ws {
		out[i] = ws[i].Galaxy
	}
	return out
}

// recordSize is the notional per-entry byte size the engine reports to
// the allocator for workspace/processed growth (spec.md §4.1's categorised
// accounting). Go's garbage collector owns the real WorkingHalo backing
// store; this constant exists so growth still produces HALOS-category
// alloc/free pairs an operator's leak report can see, per §3.4's tree
// lifecycle ("the workspace array and a ProcessedHalos array grow").
const recordSize = 256

const (
	workspaceInitialCap = 16
	workspaceGrowFactor = 2
	workspaceMinStep    = 16
	workspaceHardCap    = 1 << 20
)

// arena is the growth bookkeeping shared by the workspace and the
// per-tree processed store: a plain Go slice for the real data plus an
// alloc.Block tracking its notional byte footprint, grown geometrically
// with a minimum step and a hard cap (spec.md §4.3.1).
type arena struct {
	entries []WorkingHalo
	cap     int
	block   *alloc.Block
}

func newArena(a *alloc.Allocator, category alloc.Category) (*arena, error) {
	block, err := a.Alloc(int64(workspaceInitialCap*recordSize), category)
	if err != nil {
		return nil, err
	}
	return &arena{
		entries: make([]WorkingHalo, 0, workspaceInitialCap),
		cap:     workspaceInitialCap,
		block:   block,
	}, nil
}

// ensure grows the arena so index is a valid append target, per §4.3.1's
// "after growth the new capacity strictly exceeds the index about to be
// written" assertion.
func (ar *arena) ensure(a *alloc.Allocator, category alloc.Category, index int) error {
	if index < ar.cap {
		return nil
	}
	newCap := ar.cap
	for newCap <= index {
		step := newCap * (workspaceGrowFactor - 1)
		if step < workspaceMinStep {
			step = workspaceMinStep
		}
		newCap += step
	}
	if newCap > workspaceHardCap {
		return mimicerr.Wrap(mimicerr.Limit, string(category),
			"workspace growth would exceed hard cap %d (requested index %d)", workspaceHardCap, index)
	}
	newBlock, err := a.Realloc(ar.block, int64(newCap*recordSize), category)
	if err != nil {
		return err
	}
	ar.block = newBlock
	grown := make([]WorkingHalo, len(ar.entries), newCap)
	copy(grown, ar.entries)
	ar.entries = grown
	ar.cap = newCap
	if ar.cap <= index {
		return mimicerr.Wrap(mimicerr.Invariant, string(category), "workspace growth did not exceed requested index")
	}
	return nil
}

func (ar *arena) append(a *alloc.Allocator, category alloc.Category, w WorkingHalo) error {
	if err := ar.ensure(a, category, len(ar.entries)); err != nil {
		return err
	}
	ar.entries = append(ar.entries, w)
	return nil
}

func (ar *arena) reset() {
	ar.entries = ar.entries[:0]
}

func (ar *arena) free(a *alloc.Allocator) error {
	if ar.block == nil {
		return nil
	}
	err := a.Free(ar.block)
	ar.block = nil
	return err
}
