// Package alloc implements the categorised allocator from spec.md §4.1:
// every allocation carries a size and a category tag, frees are O(1) and
// validated against a magic value, and peak usage is tracked as a
// high-water mark.
//
// Idiomatic Go has no manual heap blocks to prepend a header to, so the
// "inline header co-located with each returned block" from §4.1/§9 is
// modelled as the Block value itself: Block carries size/category/magic
// alongside the backing []byte, and IS the handle callers hold — there is
// no separate side-table to look a block up in, which is what gives Free
// its O(1) behaviour (the header travels with the handle, not a registry).
package alloc

import (
	"sync"

	"github.com/darrencroton/mimic/pkg/mimicerr"
)

// Category tags an allocation for per-category accounting. The four fixed
// categories from §3.4 are declared below; module-private categories are
// free-form strings of the caller's choosing ("future per-module
// categories").
type Category string

const (
	CategoryHalos   Category = "HALOS"
	CategoryTrees   Category = "TREES"
	CategoryIO      Category = "IO"
	CategoryUtility Category = "UTILITY"
)

const blockMagic uint32 = 0xdec0de5a

// Block is both the header and the handle for one allocation. Callers
// treat Data as their buffer; Free() (or the allocator's Realloc) is the
// only way to release or resize it.
type Block struct {
	a        *Allocator
	size     int64
	category Category
	magic    uint32
	freed    bool

	Data []byte
}

// Size returns the block's currently accounted size.
func (b *Block) Size() int64 { return b.size }

// Category returns the block's accounting category.
func (b *Block) Category() Category { return b.category }

type categoryStats struct {
	current int64
	peak    int64
}

// Report is one category's row in ReportByCategory's result.
type Report struct {
	Current int64
	Peak    int64
}

// Allocator is the single, process-local, single-threaded allocator
// (spec.md §4.1, §5: "concurrent use within one process is undefined").
// The mutex here is a correctness net for accidental concurrent teardown
// logging, not a concurrency feature.
type Allocator struct {
	mu         sync.Mutex
	categories map[Category]*categoryStats
	totalPeak  int64
}

// New returns a fresh Allocator with the four fixed categories pre-seeded
// so ReportByCategory always includes them, even at zero bytes.
func New() *Allocator {
	a := &Allocator{
		categories: make(map[Category]*categoryStats),
	}
	for _, c := range []Category{CategoryHalos, CategoryTrees, CategoryIO, CategoryUtility} {
		a.categories[c] = &categoryStats{}
	}
	return a
}

func (a *Allocator) statsFor(c Category) *categoryStats {
	s, ok := a.categories[c]
	if !ok {
		s = &categoryStats{}
		a.categories[c] = s
	}
	return s
}

func (a *Allocator) totalCurrentLocked() int64 {
	var total int64
	for _, s := range a.categories {
		total += s.current
	}
	return total
}

// Alloc allocates size bytes tagged with category. Negative sizes are a
// Memory-kind error; size 0 is legal and returns a zero-length block.
func (a *Allocator) Alloc(size int64, category Category) (*Block, error) {
	if size < 0 {
		return nil, mimicerr.Wrap(mimicerr.Memory, string(category), "negative allocation size %d", size)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	s := a.statsFor(category)
	s.current += size
	if s.current > s.peak {
		s.peak = s.current
	}
	if total := a.totalCurrentLocked(); total > a.totalPeak {
		a.totalPeak = total
	}

	return &Block{
		a:        a,
		size:     size,
		category: category,
		magic:    blockMagic,
		Data:     make([]byte, size),
	}, nil
}

// Realloc resizes b to newSize, preserving its leading min(old,new) bytes,
// and may change its category (workspace growth sometimes re-tags, e.g.
// when a module-private buffer is promoted). The old block is invalidated
// as if Free had been called on it.
func (a *Allocator) Realloc(b *Block, newSize int64, category Category) (*Block, error) {
	if err := a.validate(b); err != nil {
		return nil, err
	}
	if newSize < 0 {
		return nil, mimicerr.Wrap(mimicerr.Memory, string(category), "negative realloc size %d", newSize)
	}

	nb, err := a.Alloc(newSize, category)
	if err != nil {
		return nil, err
	}
	n := int64(len(b.Data))
	if newSize < n {
		n = newSize
	}
	copy(nb.Data, b.Data[:n])

	if err := a.free(b); err != nil {
		return nil, err
	}
	return nb, nil
}

// validate checks a block's magic without freeing it, used by Realloc
// before the old block is touched.
func (a *Allocator) validate(b *Block) error {
	if b == nil {
		return mimicerr.Wrap(mimicerr.Memory, "", "nil block")
	}
	if b.freed {
		return mimicerr.Wrap(mimicerr.Memory, string(b.category), "use after free (double free or stale handle)")
	}
	if b.magic != blockMagic {
		return mimicerr.Wrap(mimicerr.Memory, string(b.category), "corrupted allocation header (bad magic)")
	}
	return nil
}

// Free releases b, decrementing its category's and the total's current
// byte count in O(1) — no scan, no side table, because the accounting
// lives in b itself.
func (a *Allocator) Free(b *Block) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.free(b)
}

func (a *Allocator) free(b *Block) error {
	if err := a.validate(b); err != nil {
		return err
	}
	s := a.statsFor(b.category)
	s.current -= b.size
	b.freed = true
	b.magic = 0
	b.Data = nil
	return nil
}

// ReportByCategory returns current/peak byte counts per category.
func (a *Allocator) ReportByCategory() map[Category]Report {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[Category]Report, len(a.categories))
	for c, s := range a.categories {
		out[c] = Report{Current: s.current, Peak: s.peak}
	}
	return out
}

// TotalPeak returns the high-water mark of total bytes across all
// categories.
func (a *Allocator) TotalPeak() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.totalPeak
}

// Leak is one non-zero category at teardown.
type Leak struct {
	Category Category
	Bytes    int64
}

// CheckLeaks returns the categories with non-zero current bytes. Per
// spec.md §4.1/§7, this is advisory: callers log it as a WARN, it is never
// fatal.
func (a *Allocator) CheckLeaks() []Leak {
	a.mu.Lock()
	defer a.mu.Unlock()

	var leaks []Leak
	for c, s := range a.categories {
		if s.current != 0 {
			leaks = append(leaks, Leak{Category: c, Bytes: s.current})
		}
	}
	return leaks
}
