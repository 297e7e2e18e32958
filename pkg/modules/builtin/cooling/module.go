// Package cooling is a sample physics module demonstrating the galaxy
// half of the workspace: unlike pkg/modules/builtin/infall and
// pkg/modules/builtin/massgrowth, which only read and write Halo fields,
// this module reads and writes Galaxy fields (spec.md §3.1's "the record
// written and read by modules"). Its own physics is explicitly out of
// scope per spec.md §1; it exists to exercise the pipeline end to end.
package cooling

import (
	"github.com/darrencroton/mimic/pkg/modules"
	"github.com/darrencroton/mimic/pkg/schema"
)

// ModuleName is the name this module registers and the enabled-list
// entry that selects it.
const ModuleName = "cooling"

// Module seeds a galaxy's HotGas reservoir from its halo's virial mass
// the first time the galaxy has none, then drains a fixed fraction of
// HotGas into ColdGas and stamps Cooling with the amount moved.
type Module struct{}

// New returns a fresh cooling module instance.
func New() *Module { return &Module{} }

func (m *Module) Name() string       { return ModuleName }
func (m *Module) Requires() []string { return nil }
func (m *Module) Provides() []string {
	return []string{"HotGas", "ColdGas", "Cooling"}
}

func (m *Module) Init() error    { return nil }
func (m *Module) Cleanup() error { return nil }

// coolingFraction is the share of HotGas moved to ColdGas per call. Real
// deployments would read this from modules.GetDouble(cfg, ModuleName,
// "efficiency", ...); it is a literal here because this module's
// physics is explicitly out of scope.
const coolingFraction = 0.05

// ProcessHalos runs only on central halos (Type == 0): satellites and
// orphans carry their galaxy's gas reservoirs forward unchanged, per
// spec.md's copy-from-parent default. galaxies[i] is nil only for an
// entry whose working halo predates galaxy allocation, which init_halo
// no longer leaves unallocated; ProcessHalos still guards against it so
// a future producer of nil galaxies cannot panic the pipeline.
func (m *Module) ProcessHalos(ctx *modules.Context, halos []*schema.Halo, galaxies []*schema.Galaxy) error {
	for i, h := range halos {
		g := galaxies[i]
		if g == nil || h.Type != 0 {
			continue
		}
		if g.HotGas == 0 && g.ColdGas == 0 {
			g.HotGas = h.Mvir
		}
		moved := g.HotGas * coolingFraction
		g.HotGas -= moved
		g.ColdGas += moved
		g.Cooling = moved
	}
	return nil
}
