// Package infall is a sample physics module demonstrating the provides
// side of spec.md §4.5's requires/provides contract. Its own physics (the
// choice of what counts as "infall") is explicitly out of scope per
// spec.md §1; it exists to exercise the module pipeline end to end, in
// the one-package-per-backend layout of pkg/virtualizers/{qemu,
// virtualbox,...}.
package infall

import (
	"github.com/darrencroton/mimic/pkg/modules"
	"github.com/darrencroton/mimic/pkg/schema"
)

// ModuleName is the name this module registers and the enabled-list
// entry that selects it.
const ModuleName = "infall"

// Module stamps InfallMvir/InfallVvir/InfallVmax/InfallSnap the first
// snapshot a halo is no longer its own FOF-group central, then leaves
// them untouched on every later call (spec.md's
// copy-from-parent-by-default fields, first set by a module rather than
// by the engine itself).
type Module struct{}

// New returns a fresh infall module instance.
func New() *Module { return &Module{} }

func (m *Module) Name() string       { return ModuleName }
func (m *Module) Requires() []string { return nil }
func (m *Module) Provides() []string {
	return []string{"InfallMvir", "InfallVvir", "InfallVmax", "InfallSnap"}
}

func (m *Module) Init() error    { return nil }
func (m *Module) Cleanup() error { return nil }

// ProcessHalos stamps the infall snapshot for any satellite (Type != 0)
// that has not already been stamped (InfallSnap == -1). It does not
// touch the galaxy half of the workspace.
func (m *Module) ProcessHalos(ctx *modules.Context, halos []*schema.Halo, galaxies []*schema.Galaxy) error {
	for _, h := range halos {
		if h.Type == 0 || h.InfallSnap != -1 {
			continue
		}
		h.InfallMvir = h.Mvir
		h.InfallVvir = h.Vvir
		h.InfallVmax = h.Vmax
		h.InfallSnap = h.SnapNum
	}
	return nil
}
