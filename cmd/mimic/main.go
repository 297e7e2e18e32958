// Command mimic evolves dark-matter merger trees into per-snapshot halo
// catalogs (spec.md §2). It is a single cobra root command; exit codes
// follow §6.1: 0 success, 1 fatal error, 2 CPU-limit termination. Domain
// error paths call os.Exit directly from the command body (the distinct
// CPU-limit code needs to escape cobra's Execute untouched), matching
// cmd/vorteil's own Run-not-RunE idiom; only cobra-level argument/flag
// errors fall through to the os.Exit(1) below.
package main

import "os"

func main() {
	commandInit()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
