// Package massgrowth is a sample physics module demonstrating the
// requires side of spec.md §4.5's requires/provides contract: it
// consumes InfallMvir (provided by pkg/modules/builtin/infall) so the
// registry's dependency ordering has something real to order. Its own
// physics is explicitly out of scope per spec.md §1.
package massgrowth

import (
	"github.com/darrencroton/mimic/pkg/modules"
	"github.com/darrencroton/mimic/pkg/schema"
)

// ModuleName is the name this module registers and the enabled-list
// entry that selects it.
const ModuleName = "massgrowth"

// Module fills DeltaMvir with the growth in virial mass since infall
// (Mvir - InfallMvir, an absolute difference), for satellites that have an
// infall stamp; centrals and unstamped satellites keep whatever DeltaMvir
// they already carry.
type Module struct{}

// New returns a fresh massgrowth module instance.
func New() *Module { return &Module{} }

func (m *Module) Name() string       { return ModuleName }
func (m *Module) Requires() []string { return []string{"InfallMvir"} }
func (m *Module) Provides() []string { return []string{"DeltaMvir"} }

func (m *Module) Init() error    { return nil }
func (m *Module) Cleanup() error { return nil }

// ProcessHalos sets DeltaMvir = Mvir - InfallMvir for every satellite
// with a recorded infall mass. It does not touch the galaxy half of the
// workspace.
func (m *Module) ProcessHalos(ctx *modules.Context, halos []*schema.Halo, galaxies []*schema.Galaxy) error {
	for _, h := range halos {
		if h.Type == 0 || h.InfallSnap == -1 {
			continue
		}
		h.DeltaMvir = h.Mvir - h.InfallMvir
	}
	return nil
}
