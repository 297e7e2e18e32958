// Package config parses and validates the mimic parameter file (spec.md
// §6.2): a single, read-after-startup record consumed by every other
// component. Parsing follows the teacher's pkg/vcfg shape (tagged struct,
// defaults merged in, then validated) but the wire format here is YAML,
// per spec.md, rather than the teacher's TOML.
package config

import (
	"fmt"
	"io/ioutil"
	"sort"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/imdario/mergo"
	"gopkg.in/yaml.v2"

	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// OutputFormat selects the output codec (spec.md §6.2, §4.6).
type OutputFormat string

const (
	FormatBinary OutputFormat = "binary"
	FormatHDF5   OutputFormat = "hdf5"
)

// TreeType selects the tree-file reader (spec.md §4.2, §6.2).
type TreeType string

const (
	TreeLHaloBinary       TreeType = "lhalo_binary"
	TreeGenesisLHaloHDF5  TreeType = "genesis_lhalo_hdf5"
)

// Output carries output.* keys.
type Output struct {
	Directory     string       `yaml:"directory"`
	FileBaseName  string       `yaml:"file_base_name"`
	Format        OutputFormat `yaml:"format"`
	SnapshotCount int          `yaml:"snapshot_count"`
	SnapshotList  []int        `yaml:"snapshot_list"`
}

// Input carries input.* keys.
type Input struct {
	TreeName         string   `yaml:"tree_name"`
	TreeType         TreeType `yaml:"tree_type"`
	FirstFile        int      `yaml:"first_file"`
	LastFile         int      `yaml:"last_file"`
	SimulationDir    string   `yaml:"simulation_dir"`
	SnapshotListFile string   `yaml:"snapshot_list_file"`
	LastSnapshot     int      `yaml:"last_snapshot"`
	MaxTreeDepth     int      `yaml:"max_tree_depth"`
}

// Cosmology carries simulation.cosmology.* keys.
type Cosmology struct {
	OmegaMatter float64 `yaml:"omega_matter"`
	OmegaLambda float64 `yaml:"omega_lambda"`
	HubbleH     float64 `yaml:"hubble_h"`
}

// Simulation carries simulation.* keys.
type Simulation struct {
	Cosmology    Cosmology `yaml:"cosmology"`
	BoxSize      float64   `yaml:"box_size"`
	ParticleMass float64   `yaml:"particle_mass"`
}

// Units carries units.* keys.
type Units struct {
	LengthInCM    float64 `yaml:"length_in_cm"`
	MassInG       float64 `yaml:"mass_in_g"`
	VelocityInCMS float64 `yaml:"velocity_in_cm_per_s"`
}

// Modules carries modules.* keys: the enabled list (execution order is the
// list order, per spec.md §4.5) and the flat (module, param, value) table.
type Modules struct {
	Enabled    []string                     `yaml:"enabled"`
	Parameters map[string]map[string]string `yaml:"parameters"`
}

// Config is the parsed, defaulted, validated parameter file. It is read
// once at startup and never mutated afterward; every other component takes
// a *Config by read-only reference.
type Config struct {
	Output     Output     `yaml:"output"`
	Input      Input      `yaml:"input"`
	Simulation Simulation `yaml:"simulation"`
	Units      Units      `yaml:"units"`
	Modules    Modules    `yaml:"modules"`

	// Overwrite, when false, causes the driver to leave existing output
	// files intact (the CLI's --skip flag, spec.md §6.1). It is not a YAML
	// key: the parameter file has no opinion on this, only the invocation
	// does.
	Overwrite bool `yaml:"-"`

	// sourcePath is the resolved path this Config was parsed from, kept
	// for the run-metadata copy (spec.md §6.6).
	sourcePath string
}

// SourcePath returns the resolved path the config was loaded from.
func (c *Config) SourcePath() string { return c.sourcePath }

// Defaults returns the built-in defaults merged into every loaded Config
// before validation, mirroring pkg/vcfg/defaults.go's WithDefaults.
func Defaults() Config {
	return Config{
		Input: Input{
			MaxTreeDepth: 2048,
		},
		Output: Output{
			Format: FormatBinary,
		},
		Overwrite: true,
	}
}

// requiredKeys returns the names of every spec.md §6.2 required key left
// unset in c, so Load can report every missing key at once, not just the
// first.
func requiredKeys(c *Config) []string {
	var missing []string
	if c.Output.Directory == "" {
		missing = append(missing, "output.directory")
	}
	if c.Output.FileBaseName == "" {
		missing = append(missing, "output.file_base_name")
	}
	if c.Input.SimulationDir == "" {
		missing = append(missing, "input.simulation_dir")
	}
	if c.Input.TreeName == "" {
		missing = append(missing, "input.tree_name")
	}
	if c.Input.SnapshotListFile == "" {
		missing = append(missing, "input.snapshot_list_file")
	}
	if c.Input.LastSnapshot == 0 {
		missing = append(missing, "input.last_snapshot")
	}
	if c.Simulation.BoxSize == 0 {
		missing = append(missing, "simulation.box_size")
	}
	if c.Simulation.Cosmology.HubbleH == 0 {
		missing = append(missing, "simulation.cosmology.hubble_h")
	}
	sort.Strings(missing)
	return missing
}

// Load reads, defaults, and validates the parameter file at path. Tilde
// paths are expanded via go-homedir before the file is opened, matching
// cmd/vorteil/main.go's own handling of user-supplied paths.
func Load(path string) (*Config, error) {
	resolved, err := homedir.Expand(path)
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.Config, path, "expanding path: %w", err)
	}

	raw, err := ioutil.ReadFile(resolved)
	if err != nil {
		return nil, mimicerr.Wrap(mimicerr.IO, resolved, "reading parameter file: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, mimicerr.Wrap(mimicerr.Config, resolved, "parsing YAML: %w", err)
	}

	// yaml.Unmarshal above already populated cfg over the zero value of a
	// fresh struct it allocates internally for slices/maps; merge defaults
	// back in for any scalar left unset by the file, without clobbering
	// what the file did set.
	defaults := Defaults()
	if err := mergo.Merge(&cfg, defaults); err != nil {
		return nil, mimicerr.Wrap(mimicerr.Config, resolved, "applying defaults: %w", err)
	}

	if cfg.Input.SimulationDir != "" {
		expanded, err := homedir.Expand(cfg.Input.SimulationDir)
		if err != nil {
			return nil, mimicerr.Wrap(mimicerr.Config, "input.simulation_dir", "expanding path: %w", err)
		}
		cfg.Input.SimulationDir = expanded
	}
	if cfg.Input.SnapshotListFile != "" {
		expanded, err := homedir.Expand(cfg.Input.SnapshotListFile)
		if err != nil {
			return nil, mimicerr.Wrap(mimicerr.Config, "input.snapshot_list_file", "expanding path: %w", err)
		}
		cfg.Input.SnapshotListFile = expanded
	}
	if cfg.Output.Directory != "" {
		expanded, err := homedir.Expand(cfg.Output.Directory)
		if err != nil {
			return nil, mimicerr.Wrap(mimicerr.Config, "output.directory", "expanding path: %w", err)
		}
		cfg.Output.Directory = expanded
	}

	if missing := requiredKeys(&cfg); len(missing) > 0 {
		return nil, mimicerr.Wrap(mimicerr.Config, resolved,
			"missing required keys: %s", strings.Join(missing, ", "))
	}

	if cfg.Output.Format != FormatBinary && cfg.Output.Format != FormatHDF5 {
		return nil, mimicerr.Wrap(mimicerr.Config, "output.format",
			"unknown output format %q", cfg.Output.Format)
	}
	if cfg.Input.TreeType != TreeLHaloBinary && cfg.Input.TreeType != TreeGenesisLHaloHDF5 {
		return nil, mimicerr.Wrap(mimicerr.Config, "input.tree_type",
			"unknown tree type %q", cfg.Input.TreeType)
	}
	if cfg.Input.FirstFile > cfg.Input.LastFile {
		return nil, mimicerr.Wrap(mimicerr.Config, "input.first_file",
			"first_file %d is greater than last_file %d", cfg.Input.FirstFile, cfg.Input.LastFile)
	}

	cfg.sourcePath = resolved
	return &cfg, nil
}

// ModuleParam returns the string value of (module, param), or defaultVal
// if unset, mirroring spec.md §4.5's get(module, param).
func (c *Config) ModuleParam(module, param, defaultVal string) string {
	if perModule, ok := c.Modules.Parameters[module]; ok {
		if v, ok := perModule[param]; ok {
			return v
		}
	}
	return defaultVal
}

// String renders the config for diagnostics without exposing anything
// sensitive (there is nothing credential-shaped in this record, but the
// explicit allowlist keeps future fields from leaking by accident).
func (c *Config) String() string {
	return fmt.Sprintf("Config{input=%s output=%s modules=%v}",
		c.Input.SimulationDir, c.Output.Directory, c.Modules.Enabled)
}
