// Package page implements the uniform page object and its three kinds
// (spec §3, §4.3-4.6): a common header plus a tagged-variant payload,
// dispatched through a small Ops interface — the language-neutral
// rendering Design Notes §9 asks for of Pintos's vtable-style
// page_operations.
//
// Grounded on vm/as.go's mtype_t-driven dispatch for the Go shape, and
// original_source/vm/{vm,anon,file}.c for exact semantics.
package page

import (
	"fmt"
	"sync"

	"defs"
	"diag"
	"frame"
	"fsfile"
	"mem"
	"mmuiface"
	"swap"
)

// Kind tags a page's current (or, for an uninitialized page, target)
// backing-store kind.
type Kind int

const (
	KindUninit Kind = iota
	KindAnon
	KindFile
)

func (k Kind) String() string {
	switch k {
	case KindUninit:
		return "uninit"
	case KindAnon:
		return "anon"
	case KindFile:
		return "file"
	default:
		return "kind(?)"
	}
}

// Initializer fills a freshly claimed frame's contents. It is run once,
// at the moment an uninitialized page is first claimed (spec §4.4).
type Initializer func(buf *mem.Bytepg_t) defs.Err_t

// FileAux is the auxiliary record spec §4.4 says an uninitialized page
// carries when its target kind is KindFile, and also the live payload
// of a page once it has transformed into one (spec §4.6): a file
// handle, a byte offset, how many bytes to read, how many trailing
// bytes to zero, and the total mapped length (so munmap knows how many
// pages to tear down — spec records this in every page for simplicity).
type FileAux struct {
	File      fsfile.File
	Offset    int64
	ReadBytes int
	ZeroBytes int
	Length    int
}

// Ops is a page's dispatch table (spec §4.3): four entries shared by
// every page of a kind. The zero-size *Ops implementations below are
// stateless singletons, exactly like Pintos's `static const struct
// page_operations anon_ops = {...}`.
type Ops interface {
	SwapIn(p *Page) defs.Err_t
	SwapOut(p *Page) defs.Err_t
	Destroy(p *Page)
	Kind() Kind
}

// Page is the central entity of spec §3: a page-aligned user virtual
// address, a writability bit, a dispatch handle, an optional resident
// frame, and one kind-specific payload (only the field matching ops.Kind
// is meaningful at any time).
type Page struct {
	mu sync.Mutex // serializes this page's own state transitions only

	va       uintptr
	writable bool
	ops      Ops
	frame    *frame.Frame

	mmu  mmuiface.MMU
	pool *frame.Pool
	sw   *swap.Allocator

	// uninitialized payload (spec §4.4)
	targetKind Kind
	init       Initializer
	aux        *FileAux // non-nil only when targetKind == KindFile

	// anonymous payload (spec §4.5)
	slot int

	// file-backed payload (spec §4.6); reused for both the uninit-with-
	// target-file aux and the transformed file page, since they carry
	// the same fields.
	file *FileAux
}

// Deps bundles the process-wide collaborators every page needs: the
// hardware MMU, the frame pool it claims frames from, and the swap
// allocator anonymous pages swap through. One Deps is shared by every
// page in a process's SPT — it is the "single VM subsystem value" of
// Design Notes §9, narrowed to what package page needs.
type Deps struct {
	MMU  mmuiface.MMU
	Pool *frame.Pool
	Swap *swap.Allocator
}

// NewUninit creates an uninitialized (lazy) page (spec §4.4). It is not
// yet inserted into any SPT; the caller (vm.AllocPageWithInitializer)
// does that.
func NewUninit(d Deps, va uintptr, writable bool, target Kind, init Initializer, aux *FileAux) *Page {
	if target == KindUninit {
		panic("page: target kind of an uninitialized page must not be uninit")
	}
	p := &Page{
		va:         mem.PgRounddown(va),
		writable:   writable,
		ops:        uninitOps{},
		mmu:        d.MMU,
		pool:       d.Pool,
		sw:         d.Swap,
		targetKind: target,
		init:       init,
		aux:        aux,
		slot:       swap.NoSlot,
	}
	return p
}

// NewAnon creates a natively-resident-free anonymous page with no
// transformation pending — used by spt_copy (spec §4.7) when
// duplicating an already-resident anonymous page, and by stack growth.
func NewAnon(d Deps, va uintptr, writable bool) *Page {
	return &Page{
		va:       mem.PgRounddown(va),
		writable: writable,
		ops:      anonOps{},
		mmu:      d.MMU,
		pool:     d.Pool,
		sw:       d.Swap,
		slot:     swap.NoSlot,
	}
}

// NewFile creates a file-backed page already in its final kind, used by
// spt_copy when duplicating an already-resident file page.
func NewFile(d Deps, va uintptr, writable bool, aux FileAux) *Page {
	return &Page{
		va:       mem.PgRounddown(va),
		writable: writable,
		ops:      fileOps{},
		mmu:      d.MMU,
		pool:     d.Pool,
		sw:       d.Swap,
		slot:     swap.NoSlot,
		file:     &aux,
	}
}

// VA returns the page's page-aligned virtual address.
func (p *Page) VA() uintptr { return p.va }

// Accessed and ClearAccessed satisfy frame.Resident, delegating to this
// page's own MMU — the frame pool never needs one of its own.
func (p *Page) Accessed() bool {
	p.mu.Lock()
	mmu, va := p.mmu, p.va
	p.mu.Unlock()
	return mmu.Accessed(va)
}

func (p *Page) ClearAccessed() {
	p.mu.Lock()
	mmu, va := p.mmu, p.va
	p.mu.Unlock()
	mmu.ClearAccessed(va)
}

// Writable reports the page's writability.
func (p *Page) Writable() bool { return p.writable }

// Kind returns the page's current kind (spec's page_get_type: for an
// uninitialized page this is its *target* kind, per spec §4.3).
func (p *Page) Kind() Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ops.Kind() == KindUninit {
		return p.targetKind
	}
	return p.ops.Kind()
}

// IsUninit reports whether the page has not yet been claimed for the
// first time (spec §4.4). spt.Copy uses this to decide whether to
// recreate the pending transformation in the destination table or to
// duplicate live contents.
func (p *Page) IsUninit() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ops.Kind() == KindUninit
}

// UninitInfo returns the pending transformation of an uninitialized
// page: its target kind, initializer, and aux record (nil for an
// anon-targeted page). Panics if the page is not uninitialized.
func (p *Page) UninitInfo() (Kind, Initializer, *FileAux) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ops.Kind() != KindUninit {
		panic("page: UninitInfo on a non-uninit page")
	}
	return p.targetKind, p.init, p.aux
}

// FileInfo returns a copy of a file-backed page's payload. Panics if
// the page's current kind is not KindFile.
func (p *Page) FileInfo() FileAux {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ops.Kind() != KindFile || p.file == nil {
		panic("page: FileInfo on a non-file page")
	}
	return *p.file
}

// Resident reports whether the page currently owns a frame.
func (p *Page) Resident() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame != nil
}

// Frame returns the page's current frame, or nil if non-resident.
func (p *Page) Frame() *frame.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame
}

// Attach links frame to this page (spec §4.9 step 2) without running
// any dispatch. The caller (vm.Claim) does this, then calls
// pool.Track(f) to make the frame evictable, before calling SwapIn.
func (p *Page) Attach(f *frame.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.frame != nil {
		panic("page: attach while already resident")
	}
	p.frame = f
	f.Page = p
}

// Detach unlinks the page from its frame without touching the MMU or
// the frame pool; callers clear the mapping and release the frame
// themselves afterward.
func (p *Page) Detach() *frame.Frame {
	p.mu.Lock()
	defer p.mu.Unlock()
	f := p.frame
	p.frame = nil
	if f != nil {
		f.Page = nil
	}
	return f
}

// SwapIn dispatches to the current ops' SwapIn (spec §4.3/§4.9 step 4).
func (p *Page) SwapIn() defs.Err_t {
	diag.Counters.SwapIns.Inc()
	return p.ops.SwapIn(p)
}

// SwapOut dispatches to the current ops' SwapOut, and is also the
// frame.Resident interface method the frame pool calls during eviction.
func (p *Page) SwapOut() error {
	diag.Counters.SwapOuts.Inc()
	if e := p.ops.SwapOut(p); e != 0 {
		return fmt.Errorf("page: swap out %s page at %#x: %s", p.Kind(), p.va, e)
	}
	return nil
}

// Destroy dispatches to the current ops' Destroy (spec §4.5/§4.6's
// destroy step), which releases the page's frame, slot or aux record.
// The caller owns freeing the
// *Page value itself (spec's vm_dealloc_page does destroy-then-free).
func (p *Page) Destroy() {
	p.ops.Destroy(p)
}

// transformTo rewrites the page in place from uninitialized to target,
// per spec §4.4: install the target kind's dispatch handle and
// initialize the kind-specific payload. It does not run init — the
// caller (uninitOps.SwapIn) has already run it against the attached
// frame.
func (p *Page) transformTo(target Kind) {
	switch target {
	case KindAnon:
		p.ops = anonOps{}
		p.slot = swap.NoSlot
	case KindFile:
		p.ops = fileOps{}
		p.file = p.aux
	default:
		panic("page: bad transform target")
	}
}
