package output

import (
	"path/filepath"

	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// maxPathLen bounds a constructed output path (spec.md §4.6: "Path
// construction uses bounded formatting: any truncation is a fatal error").
// There is no portable way to query a filesystem's actual limit at
// runtime, so the conservative Linux PATH_MAX value stands in for it.
const maxPathLen = 4096

// buildPath joins dir and name, rejecting the result if it would exceed
// maxPathLen rather than silently truncating it.
func buildPath(dir, name string) (string, error) {
	p := filepath.Join(dir, name)
	if len(p) >= maxPathLen {
		return "", mimicerr.Wrap(mimicerr.Limit, dir, "output path for %q would exceed %d bytes", name, maxPathLen)
	}
	return p, nil
}
