// Package haloengine implements the halo engine (spec.md §4.3), the
// hardest of the core subsystems: depth-first tree construction, building
// working halos per FOF group from their progenitors, driving the module
// pipeline over the resulting workspace, and committing the result to a
// per-tree output store.
//
// Grounded on pkg/vdisk/build.go's build-then-release function family
// for its top-level driver shape, and on pkg/virtualizers/manager.go's
// ordered-teardown idiom for freeing per-tree state on every exit path.
package haloengine

import (
	"github.com/darrencroton/mimic/pkg/alloc"
	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/cosmology"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/modules"
	"github.com/darrencroton/mimic/pkg/treereader"
)

// HaloAux is the per-raw-halo scratch state carried through one tree walk
// (spec.md §3.1's HaloAux).
type HaloAux struct {
	DoneFlag  int32
	HaloFlag  int32 // 0 unseen, 1 progenitors walked, 2 built
	NHalos    int32
	FirstHalo int32
}

// Engine builds working halos for one process's slice of tree files. One
// Engine is reused across every tree of every file the process owns; its
// unique-halo-id counter runs for the lifetime of the Engine, matching
// spec.md §3.1's "unique within-file halo id" (a process owns a
// contiguous file range, so within-process is within-file here).
type Engine struct {
	alloc        *alloc.Allocator
	pipeline     *modules.System
	cosmo        cosmology.Cosmology
	units        cosmology.CodeUnits
	snaps        *cosmology.SnapTable
	particleMass float64
	maxTreeDepth int32
	cfg          *config.Config

	workspace *arena
	processed *arena
	ngal      int

	raw []treereader.RawHalo
	aux []HaloAux

	nextUniqueHaloID int64
}

// New builds an Engine ready to process trees. cosmo/units/snaps are the
// run's derived cosmology (pkg/cosmology); pipeline is the already
// init_system'd module registry (pkg/modules).
func New(a *alloc.Allocator, pipeline *modules.System, cosmo cosmology.Cosmology, units cosmology.CodeUnits, snaps *cosmology.SnapTable, particleMass float64, maxTreeDepth int32) (*Engine, error) {
	return &Engine{
		alloc:            a,
		pipeline:         pipeline,
		cosmo:            cosmo,
		units:            units,
		snaps:            snaps,
		particleMass:     particleMass,
		maxTreeDepth:     maxTreeDepth,
		nextUniqueHaloID: 1,
	}, nil
}

// ProcessTree builds every FOF group of one tree's raw halos and returns
// its processed (output-eligible) halos in commit order (spec.md §4.3.2's
// top-level loop over build_halo_tree). Both the workspace and the
// processed store are allocated fresh for this tree and must be released
// via FreeTree once the caller (the output writer) is done with the
// returned slice, per §3.4: "Tree: allocated at the start of a tree
// iteration, freed after output. Within a tree, the workspace array and a
// ProcessedHalos array grow." The CPU-limit watch is polled at the file
// boundary, not per tree, so ProcessTree takes no context.
func (e *Engine) ProcessTree(cfg *config.Config, raw []treereader.RawHalo) ([]WorkingHalo, error) {
	workspace, err := newArena(e.alloc, alloc.CategoryHalos)
	if err != nil {
		return nil, err
	}
	processed, err := newArena(e.alloc, alloc.CategoryHalos)
	if err != nil {
		_ = workspace.free(e.alloc)
		return nil, err
	}
	e.raw = raw
	e.aux = make([]HaloAux, len(raw))
	e.workspace = workspace
	e.processed = processed
	e.ngal = 0
	e.cfg = cfg

	for i := range raw {
		if e.aux[i].DoneFlag != 0 {
			continue
		}
		if err := e.buildHaloTree(int32(i), 0); err != nil {
			return nil, err
		}
	}

	return e.processed.entries, nil
}

// FreeTree releases the notional byte accounting for the workspace and
// processed store of the tree just built (spec.md §3.4: "Tree ... freed
// after output"). Call after the output writer is done with the slice
// ProcessTree returned.
func (e *Engine) FreeTree() error {
	var firstErr error
	if e.workspace != nil {
		if err := e.workspace.free(e.alloc); err != nil && firstErr == nil {
			firstErr = err
		}
		e.workspace = nil
	}
	if e.processed != nil {
		if err := e.processed.free(e.alloc); err != nil && firstErr == nil {
			firstErr = err
		}
		e.processed = nil
	}
	e.raw = nil
	e.aux = nil
	return firstErr
}

// buildHaloTree is build_halo_tree(raw_index, depth), spec.md §4.3.2.
func (e *Engine) buildHaloTree(rawIndex int32, depth int32) error {
	e.aux[rawIndex].DoneFlag = 1
	if depth > e.maxTreeDepth {
		return mimicerr.Wrap(mimicerr.Limit, "", "tree depth %d exceeds max_tree_depth %d at raw halo %d", depth, e.maxTreeDepth, rawIndex)
	}

	if err := e.recurseProgenitors(rawIndex, depth+1); err != nil {
		return err
	}

	fofHead := e.raw[rawIndex].FirstHaloInFOFgroup
	if e.aux[fofHead].HaloFlag == 0 {
		member := fofHead
		for member != -1 {
			if err := e.recurseProgenitors(member, depth+1); err != nil {
				return err
			}
			member = e.raw[member].NextHaloInFOFgroup
		}
		e.aux[fofHead].HaloFlag = 1
	}

	if e.aux[fofHead].HaloFlag == 1 {
		if err := e.joinProgenitorHalos(fofHead); err != nil {
			return err
		}
		if err := e.verifyCentralHaloInvariant(fofHead); err != nil {
			return err
		}
		if e.pipeline != nil {
			span := e.workspace.entries[:e.ngal]
			if err := e.pipeline.Execute(e.cfg, int(fofHead), haloSlice(span), galaxySlice(span)); err != nil {
				return err
			}
		}
		if err := e.commitHaloProperties(fofHead); err != nil {
			return err
		}
		e.aux[fofHead].HaloFlag = 2
	}
	return nil
}

// recurseProgenitors walks rawIndex's FirstProgenitor/NextProgenitor list,
// recursing into every progenitor not yet visited.
func (e *Engine) recurseProgenitors(rawIndex int32, depth int32) error {
	p := e.raw[rawIndex].FirstProgenitor
	for p != -1 {
		if e.aux[p].DoneFlag == 0 {
			if err := e.buildHaloTree(p, depth); err != nil {
				return err
			}
		}
		p = e.raw[p].NextProgenitor
	}
	return nil
}
