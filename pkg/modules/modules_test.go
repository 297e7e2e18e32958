package modules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/schema"
)

type fakeModule struct {
	name          string
	requires      []string
	provides      []string
	initErr       error
	processErr    error
	cleanupErr    error
	initCalled    bool
	cleanupCalled bool
	cleanupOrder  *[]string
}

func (f *fakeModule) Name() string       { return f.name }
func (f *fakeModule) Requires() []string { return f.requires }
func (f *fakeModule) Provides() []string { return f.provides }
func (f *fakeModule) Init() error        { f.initCalled = true; return f.initErr }
func (f *fakeModule) ProcessHalos(ctx *Context, halos []*schema.Halo, galaxies []*schema.Galaxy) error {
	return f.processErr
}
func (f *fakeModule) Cleanup() error {
	f.cleanupCalled = true
	if f.cleanupOrder != nil {
		*f.cleanupOrder = append(*f.cleanupOrder, f.name)
	}
	return f.cleanupErr
}

func resetRegistry(t *testing.T) {
	t.Helper()
	Reset()
	t.Cleanup(Reset)
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	resetRegistry(t)
	require.NoError(t, Register(&fakeModule{name: "cooling"}))
	err := Register(&fakeModule{name: "cooling"})
	require.Error(t, err)
}

func TestRegisterRejectsNilModule(t *testing.T) {
	resetRegistry(t)
	err := Register(nil)
	require.Error(t, err)
}

func TestInitSystemAcceptsEnabledOrderSatisfyingDependency(t *testing.T) {
	resetRegistry(t)
	producer := &fakeModule{name: "infall", provides: []string{"InfallMvir"}}
	consumer := &fakeModule{name: "cooling", requires: []string{"InfallMvir"}}
	require.NoError(t, Register(consumer))
	require.NoError(t, Register(producer))

	sys, err := InitSystem([]string{"infall", "cooling"})
	require.NoError(t, err)
	require.Len(t, sys.pipeline, 2)
	assert.Equal(t, "infall", sys.pipeline[0].Name(), "pipeline order is the enabled order verbatim")
	assert.Equal(t, "cooling", sys.pipeline[1].Name())
	assert.True(t, producer.initCalled)
	assert.True(t, consumer.initCalled)
}

func TestInitSystemRejectsEnabledOrderViolatingDependency(t *testing.T) {
	resetRegistry(t)
	producer := &fakeModule{name: "infall", provides: []string{"InfallMvir"}}
	consumer := &fakeModule{name: "cooling", requires: []string{"InfallMvir"}}
	require.NoError(t, Register(consumer))
	require.NoError(t, Register(producer))

	_, err := InitSystem([]string{"cooling", "infall"})
	require.Error(t, err, "enabling the consumer before its provider must be rejected, not silently reordered")
	assert.False(t, producer.initCalled)
	assert.False(t, consumer.initCalled)
}

func TestInitSystemPreservesEnabledOrderWithNoDependency(t *testing.T) {
	resetRegistry(t)
	a := &fakeModule{name: "a"}
	b := &fakeModule{name: "b"}
	require.NoError(t, Register(a))
	require.NoError(t, Register(b))

	sys, err := InitSystem([]string{"b", "a"})
	require.NoError(t, err)
	assert.Equal(t, "b", sys.pipeline[0].Name())
	assert.Equal(t, "a", sys.pipeline[1].Name())
}

func TestInitSystemRejectsUnresolvedName(t *testing.T) {
	resetRegistry(t)
	_, err := InitSystem([]string{"nonexistent"})
	require.Error(t, err)
}

func TestInitSystemRejectsCycle(t *testing.T) {
	resetRegistry(t)
	a := &fakeModule{name: "a", requires: []string{"y"}, provides: []string{"x"}}
	b := &fakeModule{name: "b", requires: []string{"x"}, provides: []string{"y"}}
	require.NoError(t, Register(a))
	require.NoError(t, Register(b))

	_, err := InitSystem([]string{"a", "b"})
	require.Error(t, err)
}

func TestInitSystemEmptyListIsPhysicsFreeMode(t *testing.T) {
	resetRegistry(t)
	sys, err := InitSystem(nil)
	require.NoError(t, err)
	assert.Empty(t, sys.pipeline)
}

func TestExecuteReportsModuleFailureWithDiagnostics(t *testing.T) {
	resetRegistry(t)
	failing := &fakeModule{name: "broken", processErr: assertError("boom")}
	require.NoError(t, Register(failing))
	sys, err := InitSystem([]string{"broken"})
	require.NoError(t, err)

	err = sys.Execute(&config.Config{}, 0, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestCleanupRunsInReverseOrderAndCollectsFirstError(t *testing.T) {
	resetRegistry(t)
	var order []string
	a := &fakeModule{name: "a", cleanupErr: assertError("a failed"), cleanupOrder: &order}
	b := &fakeModule{name: "b", cleanupOrder: &order}
	require.NoError(t, Register(a))
	require.NoError(t, Register(b))
	sys, err := InitSystem([]string{"a", "b"})
	require.NoError(t, err)

	cleanupErr := sys.Cleanup()
	require.Error(t, cleanupErr)
	assert.True(t, a.cleanupCalled)
	assert.True(t, b.cleanupCalled)
	assert.Equal(t, []string{"b", "a"}, order)
}

func TestGetDoubleRejectsMalformedValue(t *testing.T) {
	cfg := &config.Config{
		Modules: config.Modules{
			Parameters: map[string]map[string]string{
				"cooling": {"efficiency": "not-a-number"},
			},
		},
	}
	_, err := GetDouble(cfg, "cooling", "efficiency", 1.0)
	require.Error(t, err)
}

func TestGetIntUsesDefaultWhenUnset(t *testing.T) {
	cfg := &config.Config{}
	v, err := GetInt(cfg, "cooling", "iterations", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), v)
}

type assertError string

func (e assertError) Error() string { return string(e) }
