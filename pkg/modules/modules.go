// Package modules is the physics-module registry (spec.md §4.5): a
// module declares a name plus the property sets it requires and
// provides, registers itself before init, and the registry runs
// init/process_halos/cleanup over the enabled list in the given order,
// rejecting that order if it violates the requires/provides dependency
// graph rather than silently reordering it.
//
// Shaped on pkg/virtualizers/virtualizer.go's package-level
// registeredVirtualizers map and Register function, and on
// pkg/virtualizers/manager.go's ordered teardown loop in Close.
package modules

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/armon/circbuf"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/schema"
)

// maxRegisteredModules caps the registry, per spec.md §4.5's "exceeding a
// fixed module cap is fatal".
const maxRegisteredModules = 256

// diagnosticTailBytes bounds how much of a failing module's log output is
// retained for the failure report, mirroring
// pkg/virtualizers/logging's bounded serial-output retention.
const diagnosticTailBytes = 4096

// Context is passed to every module's ProcessHalos call: the raw halo
// index the current FOF group is being built around, the config, and a
// bounded diagnostic buffer the module may write to.
type Context struct {
	MainRawHaloIndex int
	Config           *config.Config
	Diagnostics      *circbuf.Buffer
}

// Module is the interface every physics module implements (spec.md
// §4.5's init/process_halos/cleanup triple, plus the static metadata).
type Module interface {
	Name() string
	Requires() []string
	Provides() []string

	Init() error
	ProcessHalos(ctx *Context, halos []*schema.Halo, galaxies []*schema.Galaxy) error
	Cleanup() error
}

var registered = make(map[string]Module)

// Register adds a module to the registry. Call before InitSystem.
// Duplicate names and exceeding the module cap are fatal per spec.md
// §4.5.
func Register(m Module) error {
	if m == nil {
		return mimicerr.Wrap(mimicerr.Module, "", "nil module callable")
	}
	name := m.Name()
	if name == "" {
		return mimicerr.Wrap(mimicerr.Module, "", "module has empty name")
	}
	if _, exists := registered[name]; exists {
		return mimicerr.Wrap(mimicerr.Module, name, "module %q already registered", name)
	}
	if len(registered) >= maxRegisteredModules {
		return mimicerr.Wrap(mimicerr.Module, name, "module cap of %d exceeded", maxRegisteredModules)
	}
	registered[name] = m
	return nil
}

// Registered returns the names currently registered, for error messages
// and diagnostics.
func Registered() []string {
	names := make([]string, 0, len(registered))
	for n := range registered {
		names = append(names, n)
	}
	return names
}

// Reset clears the registry. Exists for test isolation between cases
// that register different module sets; the running engine never calls
// it mid-run.
func Reset() {
	registered = make(map[string]Module)
}

// System is an initialised, ordered module pipeline, ready for Execute.
type System struct {
	pipeline []Module
}

// InitSystem resolves enabledNames against the registry, validates that
// this order already satisfies the requires/provides dependency graph
// (rejecting violations and cycles rather than reordering), and calls
// each module's Init in the given order. An empty list is valid
// ("physics-free mode").
func InitSystem(enabledNames []string) (*System, error) {
	mods := make([]Module, 0, len(enabledNames))
	for _, name := range enabledNames {
		m, ok := registered[name]
		if !ok {
			return nil, mimicerr.Wrap(mimicerr.Module, name,
				"module %q is not registered (available: %v)", name, Registered())
		}
		mods = append(mods, m)
	}

	if err := validateDependencyOrder(mods, enabledNames); err != nil {
		return nil, err
	}

	for _, m := range mods {
		if err := m.Init(); err != nil {
			return nil, mimicerr.Wrap(mimicerr.Module, m.Name(), "init: %v", err)
		}
	}

	return &System{pipeline: mods}, nil
}

// validateDependencyOrder checks the enabled list's own order against the
// requires/provides dependency graph rather than reordering it: spec.md
// §4.5 builds the pipeline "in the given order," and §8 scenario 6
// requires enabling a consumer before its provider to be rejected at
// init, not silently reordered. mods is already in enabledOrder (InitSystem
// builds it by walking enabledOrder), so this only needs to confirm that
// order already places every provider before its consumers, and to reject
// a dependency cycle (which can never be satisfied by any linear order).
func validateDependencyOrder(mods []Module, enabledOrder []string) error {
	if len(mods) == 0 {
		return nil
	}

	position := make(map[string]int, len(mods))
	for i, name := range enabledOrder {
		position[name] = i
	}

	providerOf := make(map[string]string)
	for _, m := range mods {
		for _, p := range m.Provides() {
			providerOf[p] = m.Name()
		}
	}

	g := simple.NewDirectedGraph()
	nodeOf := make(map[string]graph.Node, len(mods))
	for _, m := range mods {
		n := g.NewNode()
		g.AddNode(n)
		nodeOf[m.Name()] = n
	}
	for _, m := range mods {
		for _, req := range m.Requires() {
			providerName, ok := providerOf[req]
			if !ok || providerName == m.Name() {
				continue // required property provided outside the pipeline (e.g. schema default); not this registry's concern
			}
			g.SetEdge(g.NewEdge(nodeOf[providerName], nodeOf[m.Name()]))
		}
	}
	if _, err := topo.Sort(g); err != nil {
		return mimicerr.Wrap(mimicerr.Module, "", "module dependency cycle: %v", err)
	}

	for _, m := range mods {
		for _, req := range m.Requires() {
			providerName, ok := providerOf[req]
			if !ok || providerName == m.Name() {
				continue
			}
			if position[providerName] > position[m.Name()] {
				return mimicerr.Wrap(mimicerr.Module, m.Name(),
					"requires %q, provided by %q, which is enabled after it; the enabled order is authoritative, so %q must precede %q",
					req, providerName, providerName, m.Name())
			}
		}
	}

	return nil
}

// Execute runs ProcessHalos for every module in pipeline order against
// the working halos of the FOF group rooted at mainRawHaloIndex, with
// galaxies positionally parallel to halos (spec.md §3.1/§4.5: the Galaxy
// is "the record written and read by modules"). A module failure
// captures the last diagnosticTailBytes of its diagnostics buffer in the
// returned error.
func (s *System) Execute(cfg *config.Config, mainRawHaloIndex int, halos []*schema.Halo, galaxies []*schema.Galaxy) error {
	for _, m := range s.pipeline {
		buf, err := circbuf.NewBuffer(diagnosticTailBytes)
		if err != nil {
			return mimicerr.Wrap(mimicerr.Module, m.Name(), "allocating diagnostics buffer: %v", err)
		}
		ctx := &Context{MainRawHaloIndex: mainRawHaloIndex, Config: cfg, Diagnostics: buf}
		if err := m.ProcessHalos(ctx, halos, galaxies); err != nil {
			return mimicerr.Wrap(mimicerr.Module, m.Name(), "process_halos: %v\n--- diagnostics tail ---\n%s", err, buf.Bytes())
		}
	}
	return nil
}

// Cleanup calls Cleanup on every module in reverse pipeline order,
// collecting the first failure but still calling every module (spec.md
// §4.5's cleanup_system: "calls cleanup in reverse order, collecting
// first failure").
func (s *System) Cleanup() error {
	var first error
	for i := len(s.pipeline) - 1; i >= 0; i-- {
		m := s.pipeline[i]
		if err := m.Cleanup(); err != nil {
			wrapped := mimicerr.Wrap(mimicerr.Module, m.Name(), "cleanup: %v", err)
			if first == nil {
				first = wrapped
			}
		}
	}
	return first
}

// GetString is get(module, param) (spec.md §4.5): modules call this with
// their own Name() to read their own parameters.
func GetString(cfg *config.Config, module, param, defaultVal string) string {
	return cfg.ModuleParam(module, param, defaultVal)
}

// GetDouble is get_double(module, param): reject malformed numeric
// strings rather than silently returning zero (spec.md §4.5).
func GetDouble(cfg *config.Config, module, param string, defaultVal float64) (float64, error) {
	raw := cfg.ModuleParam(module, param, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, mimicerr.Wrap(mimicerr.Config, fmt.Sprintf("%s.%s", module, param), "not a valid float: %v", err)
	}
	return v, nil
}

// GetInt is get_int(module, param).
func GetInt(cfg *config.Config, module, param string, defaultVal int64) (int64, error) {
	raw := cfg.ModuleParam(module, param, "")
	if raw == "" {
		return defaultVal, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, mimicerr.Wrap(mimicerr.Config, fmt.Sprintf("%s.%s", module, param), "not a valid int: %v", err)
	}
	return v, nil
}
