// Package spt implements the supplemental page table (spec §4.7): the
// per-process record of every virtual page a process knows about,
// independent of what the hardware page table currently maps.
//
// Grounded on original_source/vm/vm.c's spt_find_page/spt_insert_page/
// supplemental_page_table_{init,copy,kill}, with storage swapped from
// Pintos's hash.h to the teacher's own hashtable package, genericized
// (see package hashtable) to uintptr keys and *page.Page values.
package spt

import (
	"defs"
	"hashtable"
	"mem"
	"page"

	"golang.org/x/sync/errgroup"
)

const buckets = 256

// Claimer performs the claim path (spec §4.9: frame allocation, MMU
// install, dispatch SwapIn) for a page not yet resident. Copy uses it
// to physically realize every non-uninitialized page it duplicates;
// the vm package supplies the real implementation so that spt need not
// import it back.
type Claimer func(p *page.Page) defs.Err_t

// Table is one process's supplemental page table.
type Table struct {
	ht   *hashtable.Hashtable_t
	deps page.Deps
}

// New returns an empty table whose pages, once created through it, use
// deps for frame/MMU/swap access.
func New(deps page.Deps) *Table {
	return &Table{ht: hashtable.MkHash(buckets), deps: deps}
}

// Find returns the page covering va, rounding down to the containing
// page boundary, per spec §4.7.
func (t *Table) Find(va uintptr) (*page.Page, bool) {
	return t.ht.Get(mem.PgRounddown(va))
}

// Insert adds p, keyed by its own VA. Returns EEXIST if the table
// already has a page at that address (spec §4.4's dup-mapping check).
func (t *Table) Insert(p *page.Page) defs.Err_t {
	if _, inserted := t.ht.Set(p.VA(), p); !inserted {
		return defs.EEXIST
	}
	return 0
}

// Remove destroys p (releasing its frame or slot) and drops it from the
// table.
func (t *Table) Remove(p *page.Page) {
	p.Destroy()
	t.ht.Del(p.VA())
}

// Kill tears down every page in the table (spec §4.7's process-exit
// path): each page's Destroy runs, writing back dirty file pages and
// freeing swap slots and frames.
func (t *Table) Kill() {
	for _, pr := range t.ht.Elems() {
		pr.Value.Destroy()
	}
}

// Copy duplicates every page of src into dst (spec §4.7, fork):
// uninitialized pages are recreated as pending transformations (not
// claimed — the child faults them in itself, same as the parent would
// have); already-resident or swapped pages are recreated via claim and
// then have their contents overwritten with a byte-for-byte copy of the
// parent's frame, so the child's copy is correct regardless of whether
// its own claim path actually reproduced the same bytes (a file page's
// claim re-reads the file, which may have changed since the parent
// loaded it — see SUPPLEMENTED FEATURES in SPEC_FULL.md). Pages copy
// concurrently via errgroup; every page's copy runs to completion and
// the first failure is the one reported.
//
// srcClaim and dstClaim run the claim path against src's and dst's own
// address spaces respectively: a source page that isn't resident yet
// must be claimed through src's own MMU and frame bookkeeping, never
// dst's — claiming it through dst.Claim would install the parent's page
// into the child's page table and hand the parent's swap slot to the
// child, corrupting the still-live parent address space.
func Copy(dst, src *Table, srcClaim, dstClaim Claimer) defs.Err_t {
	var eg errgroup.Group
	for _, pr := range src.ht.Elems() {
		p := pr.Value
		eg.Go(func() error {
			return copyOne(dst, p, srcClaim, dstClaim)
		})
	}
	if err := eg.Wait(); err != nil {
		if e, ok := err.(errt); ok {
			return e.Err_t
		}
		return defs.EIO
	}
	return 0
}

// errt adapts defs.Err_t to the error interface so it can travel
// through errgroup, which only understands error.
type errt struct{ defs.Err_t }

func (e errt) Error() string { return e.Err_t.String() }

func copyOne(dst *Table, p *page.Page, srcClaim, dstClaim Claimer) error {
	if p.IsUninit() {
		target, init, aux := p.UninitInfo()
		child := page.NewUninit(dst.deps, p.VA(), p.Writable(), target, init, aux)
		if e := dst.Insert(child); e != 0 {
			return errt{e}
		}
		return nil
	}

	var child *page.Page
	if p.Kind() == page.KindFile {
		child = page.NewFile(dst.deps, p.VA(), p.Writable(), p.FileInfo())
	} else {
		child = page.NewAnon(dst.deps, p.VA(), p.Writable())
	}
	if e := dst.Insert(child); e != 0 {
		return errt{e}
	}

	if !p.Resident() {
		if e := srcClaim(p); e != 0 {
			return errt{e}
		}
	}
	if e := dstClaim(child); e != 0 {
		return errt{e}
	}
	*child.Frame().KVA = *p.Frame().KVA
	return nil
}
