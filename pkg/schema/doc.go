// Package schema is the single metadata source for every Halo, Galaxy, and
// OutputHalo field (spec.md §3.3). table.go is the hand-authored
// declaration; generated.go is mechanically produced from it by
// internal/schemagen and must not be edited directly.
//
//go:generate go run ../../internal/schemagen
package schema
