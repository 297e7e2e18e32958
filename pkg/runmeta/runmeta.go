// Package runmeta writes the run-metadata directory (spec.md §6.6): a
// copy of the resolved parameter file, a copy of the snapshot list, and a
// version.json record identifying the run.
//
// Grounded on cmd/vorteil/main.go's release/commit/date build-stamp vars,
// generalised to runtime/debug.ReadBuildInfo() since this module carries
// no linker-injected version string of its own.
package runmeta

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"github.com/darrencroton/mimic/pkg/config"
	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// Record is version.json's contents: the run's identity and wall-clock
// span.
type Record struct {
	RunID     string    `json:"run_id"`
	Version   string    `json:"version"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
}

// Version reads the Go toolchain's embedded VCS revision stamp, falling
// back to "unknown" when the binary was built outside a VCS checkout (no
// module build info, or no vcs.revision setting recorded).
func Version() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return "unknown"
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return "unknown"
}

// Write copies the resolved parameter file and the configured snapshot
// list into "<output.directory>/metadata/", then writes version.json.
// Called once, at the end of a successful run.
func Write(cfg *config.Config, runID uuid.UUID, version string, started, ended time.Time) error {
	dir := filepath.Join(cfg.Output.Directory, "metadata")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return mimicerr.New(mimicerr.IO, dir, err)
	}

	if err := copyFile(cfg.SourcePath(), filepath.Join(dir, "param_file")); err != nil {
		return err
	}
	if err := copyFile(cfg.Input.SnapshotListFile, filepath.Join(dir, "snapshot_list")); err != nil {
		return err
	}

	rec := Record{RunID: runID.String(), Version: version, StartedAt: started, EndedAt: ended}
	raw, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return mimicerr.Wrap(mimicerr.IO, dir, "marshalling version.json: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "version.json"), raw, 0o644); err != nil {
		return mimicerr.New(mimicerr.IO, dir, err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return mimicerr.New(mimicerr.IO, src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return mimicerr.New(mimicerr.IO, dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return mimicerr.Wrap(mimicerr.IO, dst, "copying %s: %v", src, err)
	}
	return nil
}
