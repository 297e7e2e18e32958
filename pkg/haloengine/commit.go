package haloengine

import (
	"github.com/darrencroton/mimic/pkg/alloc"
	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// commitHaloProperties is commit_halo_properties(fofHead), spec.md
// §4.3.5: walks workspace[0..ngal) in order, appending output-eligible
// entries to processed and rewriting the merge back-pointer of any entry
// that has already merged into one of them. It is the sole updater of
// merger pointers in already-committed output.
func (e *Engine) commitHaloProperties(fofHead int32) error {
	// buildBase anchors mergeIntoID rewrites to an absolute index into the
	// tree's processed store: a mergeIntoID set by a module is workspace-
	// local (the same convention as CentralHalo), and offset only
	// compacts away this build's own skipped (merged) entries, so the
	// base must be added back for the output-ordering rewrite of spec.md
	// §4.6 ("mergeIntoID <- OutputGalOrder[mergeIntoID]") to resolve
	// against the right entry once the whole tree is committed.
	buildBase := int32(len(e.processed.entries))
	currentHaloNr := int32(-1)
	for i := 0; i < e.ngal; i++ {
		w := e.workspace.entries[i]
		h := w.Halo

		if h.HaloNr != currentHaloNr {
			e.aux[h.HaloNr].FirstHalo = int32(len(e.processed.entries))
			e.aux[h.HaloNr].NHalos = 0
			currentHaloNr = h.HaloNr
		}

		offset := int32(0)
		for j := 0; j < i; j++ {
			prior := e.workspace.entries[j].Halo
			if prior.MergeStatus > 0 && prior.MergeIntoID < h.MergeIntoID {
				offset++
			}
		}

		if h.MergeStatus > 0 {
			target, err := e.findProcessedByUniqueID(h.UniqueHaloID, int(e.aux[h.HaloNr].FirstHalo))
			if err != nil {
				return err
			}
			target.Halo.MergeStatus = h.MergeStatus
			target.Halo.MergeIntoID = buildBase + h.MergeIntoID - offset
			target.Halo.MergeIntoSnapNum = e.raw[h.HaloNr].SnapNum
			continue
		}

		h.SnapNum = e.raw[h.HaloNr].SnapNum
		if err := e.processed.append(e.alloc, alloc.CategoryHalos, w); err != nil {
			return err
		}
		e.aux[h.HaloNr].NHalos++
	}
	return nil
}

// findProcessedByUniqueID scans processed backwards from just before
// beforeIndex for the entry sharing h's unique halo id, the lineage the
// merging halo is rejoining (spec.md §4.3.5).
func (e *Engine) findProcessedByUniqueID(id int64, beforeIndex int) (*WorkingHalo, error) {
	for i := beforeIndex - 1; i >= 0; i-- {
		if e.processed.entries[i].Halo.UniqueHaloID == id {
			return &e.processed.entries[i], nil
		}
	}
	return nil, mimicerr.Wrap(mimicerr.Invariant, "", "commit_halo_properties: no processed entry with unique halo id %d", id)
}
