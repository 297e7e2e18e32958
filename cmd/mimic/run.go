package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/darrencroton/mimic/pkg/alloc"
	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/cosmology"
	"github.com/darrencroton/mimic/pkg/haloengine"
	"github.com/darrencroton/mimic/pkg/mimicerr"
	"github.com/darrencroton/mimic/pkg/modules"
	"github.com/darrencroton/mimic/pkg/modules/builtin/cooling"
	"github.com/darrencroton/mimic/pkg/modules/builtin/infall"
	"github.com/darrencroton/mimic/pkg/modules/builtin/massgrowth"
	"github.com/darrencroton/mimic/pkg/output"
	"github.com/darrencroton/mimic/pkg/runmeta"
	"github.com/darrencroton/mimic/pkg/treereader"
)

// registerBuiltinModules adds every module this binary links in to the
// registry, so cfg.Modules.Enabled can select any of them by name. Real
// deployments link whatever module set they need; this binary links the
// three sample modules pkg/modules/builtin ships (spec.md §1's "specific
// physics modules are treated as plug-ins ... their internal equations
// are not part of this specification" — these exist to exercise the
// pipeline, not to model real physics). cooling is the one that touches
// the galaxy half of the workspace.
func registerBuiltinModules() error {
	if err := modules.Register(infall.New()); err != nil {
		return err
	}
	if err := modules.Register(massgrowth.New()); err != nil {
		return err
	}
	if err := modules.Register(cooling.New()); err != nil {
		return err
	}
	return nil
}

// runMimic is the driver of spec.md §2's control flow: parse config,
// initialise the allocator, register and init modules, then for each
// tree file in the configured range, load its forest, walk every tree
// building halos and driving the pipeline, write results, and free the
// tree. Finalises per-run output, tears down modules, and reports
// allocator stats.
func runMimic(paramFile string) error {
	cfg, err := config.Load(paramFile)
	if err != nil {
		return err
	}
	cfg.Overwrite = !flagSkip

	if err := registerBuiltinModules(); err != nil {
		return err
	}

	a := alloc.New()

	units := cosmology.DeriveUnits(
		cosmology.Units{LengthInCM: cfg.Units.LengthInCM, MassInG: cfg.Units.MassInG, VelocityInCMS: cfg.Units.VelocityInCMS},
		cosmology.Cosmology{OmegaMatter: cfg.Simulation.Cosmology.OmegaMatter, OmegaLambda: cfg.Simulation.Cosmology.OmegaLambda, HubbleH: cfg.Simulation.Cosmology.HubbleH},
	)
	snaps, err := cosmology.ReadSnapList(cfg.Input.SnapshotListFile, units.HubbleCode, cfg.Simulation.Cosmology.OmegaMatter, cfg.Simulation.Cosmology.OmegaLambda)
	if err != nil {
		return err
	}

	pipeline, err := modules.InitSystem(cfg.Modules.Enabled)
	if err != nil {
		return err
	}

	engine, err := haloengine.New(a, pipeline, cosmology.Cosmology{
		OmegaMatter: cfg.Simulation.Cosmology.OmegaMatter,
		OmegaLambda: cfg.Simulation.Cosmology.OmegaLambda,
		HubbleH:     cfg.Simulation.Cosmology.HubbleH,
	}, units, snaps, cfg.Simulation.ParticleMass, int32(cfg.Input.MaxTreeDepth))
	if err != nil {
		return err
	}

	runID := uuid.New()
	started := time.Now()
	cpuWatcher := newCPULimitWatcher()

	hdf5Paths, err := processAllFiles(cfg, engine, snaps, runID, cpuWatcher)
	cleanupErr := pipeline.Cleanup()

	reportAllocatorStats(a)

	if err != nil {
		return err
	}
	if cleanupErr != nil {
		return cleanupErr
	}

	if cfg.Output.Format == config.FormatHDF5 {
		if err := output.BuildMasterFile(cfg, hdf5Paths, cfg.Output.SnapshotList); err != nil {
			return err
		}
	}

	ended := time.Now()
	if err := runmeta.Write(cfg, runID, runmeta.Version(), started, ended); err != nil {
		return err
	}

	return nil
}

// processAllFiles walks every configured input file in order, returning
// the HDF5 paths written (nil for packed-binary output) for the later
// master-file build. Per the propagation policy of spec.md §7, an IO or
// Format failure on a tree file is not fatal to the run: the file is
// skipped with a WARN and the next one is attempted. Every other error
// kind (Config, Invariant, Memory, Limit, and Module during
// process_halos) aborts the run.
func processAllFiles(cfg *config.Config, engine *haloengine.Engine, snaps *cosmology.SnapTable, runID uuid.UUID, cpuWatcher *cpuLimitWatcher) ([]string, error) {
	var hdf5Paths []string

	for fileNr := cfg.Input.FirstFile; fileNr <= cfg.Input.LastFile; fileNr++ {
		if cpuWatcher.Hit() {
			return hdf5Paths, errCPULimitExceeded
		}

		path, err := processOneFile(cfg, engine, snaps, runID, fileNr)
		if err != nil {
			if kind, ok := mimicerr.KindOf(err); ok && (kind == mimicerr.IO || kind == mimicerr.Format) {
				log.Warnf("skipping file %d: %v", fileNr, err)
				continue
			}
			return hdf5Paths, err
		}
		if path != "" {
			hdf5Paths = append(hdf5Paths, path)
		}
	}
	return hdf5Paths, nil
}

// processOneFile opens one tree file, writes every one of its trees
// through the selected output codec, and closes both. It returns the
// HDF5 file path it wrote, or "" for packed-binary output. A failing
// tree's error kind is preserved rather than collapsed to IO, so
// processAllFiles can tell a skippable read/parse failure from a fatal
// one.
func processOneFile(cfg *config.Config, engine *haloengine.Engine, snaps *cosmology.SnapTable, runID uuid.UUID, fileNr int) (string, error) {
	path := haloengine.TreeFilePath(cfg, fileNr)
	reader, err := haloengine.OpenReader(cfg, path)
	if err != nil {
		return "", err
	}
	defer reader.Close()

	ntrees := reader.NTrees()
	writer, hdf5Path, err := newOutputWriter(cfg, snaps, fileNr, ntrees, runID)
	if err != nil {
		return "", err
	}

	progress := log.NewProgress(fmt.Sprintf("file %d", fileNr), "tree", int64(ntrees))
	for treeIdx := 0; treeIdx < ntrees; treeIdx++ {
		if err := processOneTree(cfg, engine, reader, writer, treeIdx); err != nil {
			progress.Finish(false)
			writer.Close()
			kind := mimicerr.IO
			if k, ok := mimicerr.KindOf(err); ok {
				kind = k
			}
			return "", mimicerr.Wrap(kind, path, "tree %d: %v", treeIdx, err)
		}
		progress.Increment(1)
	}
	progress.Finish(true)

	if err := writer.Close(); err != nil {
		return "", err
	}
	return hdf5Path, nil
}

func processOneTree(cfg *config.Config, engine *haloengine.Engine, reader treereader.Reader, writer output.Writer, treeIdx int) error {
	raw, err := reader.LoadTree(treeIdx)
	if err != nil {
		return err
	}

	halos, err := engine.ProcessTree(cfg, raw)
	if err != nil {
		engine.FreeTree()
		return err
	}
	if err := writer.WriteTree(treeIdx, halos); err != nil {
		engine.FreeTree()
		return err
	}
	return engine.FreeTree()
}

// newOutputWriter selects BinaryWriter or HDF5Writer by cfg.Output.Format,
// returning the HDF5 path (for the master-file build) when applicable.
func newOutputWriter(cfg *config.Config, snaps *cosmology.SnapTable, fileNr, ntrees int, runID uuid.UUID) (output.Writer, string, error) {
	switch cfg.Output.Format {
	case config.FormatBinary:
		return output.NewBinaryWriter(cfg, snaps, fileNr, ntrees), "", nil
	case config.FormatHDF5:
		w, err := output.NewHDF5Writer(cfg, snaps, fileNr, ntrees, runID, runmeta.Version())
		if err != nil {
			return nil, "", err
		}
		return w, w.Path(), nil
	default:
		return nil, "", mimicerr.Wrap(mimicerr.Config, "output.format", "unknown output format %q", cfg.Output.Format)
	}
}

func reportAllocatorStats(a *alloc.Allocator) {
	for category, report := range a.ReportByCategory() {
		log.Infof("allocator category %v: peak %d bytes", category, report.Peak)
	}
	for _, leak := range a.CheckLeaks() {
		log.Warnf("unreleased allocation: category %v, %d bytes", leak.Category, leak.Bytes)
	}
}
