// Package frame implements the frame pool (spec §4.2): physical frame
// allocation, the circular victim list, and second-chance eviction.
//
// Grounded on mem/mem.go's Physmem_t (one mutex guarding a free-list-style
// pool) combined with original_source/vm/vm.c's vm_get_victim/
// vm_evict_frame/vm_get_frame, which is where the actual second-chance
// scan and swap-controlled eviction logic comes from — biscuit itself
// never evicts, since it has no swap device.
package frame

import (
	"container/list"
	"fmt"
	"sync"

	"diag"
	"limits"
	"mem"
)

// Resident is the minimal view of a resident page the frame pool needs
// in order to evict it: its virtual address, its own hardware-accessed
// query (each page knows which address space's MMU it belongs to, so
// the pool never needs one of its own — this is what lets one frame
// pool be shared across address spaces, e.g. parent and child after a
// fork-like spt copy), and a way to ask its dispatch to swap itself
// out. Implemented by *page.Page.
type Resident interface {
	VA() uintptr
	Accessed() bool
	ClearAccessed()
	SwapOut() error
}

// Frame is a physical page of user memory (spec §3). Membership in the
// pool's circular list iff it is live; Page != nil iff some page
// currently claims it.
type Frame struct {
	KVA  *mem.Bytepg_t
	Page Resident

	elem *list.Element // pool's membership link; nil when not listed
}

// Pool is the process-wide frame allocator (spec §4.2). frame_lock from
// spec §5 is this type's mu; it protects only list membership, never
// held across the I/O eviction performs.
type Pool struct {
	mu        sync.Mutex
	arena     *mem.Arena
	l         *list.List // scanned front-to-back on every eviction
	remaining limits.Sysatomic_t
}

// NewPool returns a pool that allocates at most capacity frames before
// it must start evicting, backed by arena for page storage. Capacity
// is tracked with limits.Sysatomic_t, the same remaining-capacity
// counter biscuit's own resource limits use.
func NewPool(capacity int, arena *mem.Arena) *Pool {
	return &Pool{arena: arena, l: list.New(), remaining: limits.Sysatomic_t(capacity)}
}

// Len reports the number of live frames.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.l.Len()
}

// Get returns a usable frame, evicting a resident page if the pool is
// at capacity. The returned frame is not yet tracked by the pool and
// its Page is nil; the caller (vm.Claim) links it to the claiming page
// and then calls Track. This always returns a frame unless eviction
// itself fails (spec §4.2's "No memory" failure mode).
func (p *Pool) Get() (*Frame, error) {
	if p.remaining.Take() {
		return &Frame{KVA: p.arena.Alloc()}, nil
	}

	if err := p.evict(); err != nil {
		limits.Hit()
		return nil, err
	}
	return p.Get()
}

// Track registers f as a live, evictable frame. The caller attaches f
// to its page first, so selectVictim never observes a tracked frame
// with a nil Page.
func (p *Pool) Track(f *Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	f.elem = p.l.PushBack(f)
}

// evict runs second-chance victim selection and swaps the loser out.
// The victim's own Ops.SwapOut is responsible for calling Release,
// which untracks it and frees its arena buffer — after evict returns,
// Get's retry finds room.
func (p *Pool) evict() error {
	victim := p.selectVictim()
	if victim == nil {
		return fmt.Errorf("frame: no victim available")
	}
	diag.Counters.Evictions.Inc()
	// swap_out runs without frame_lock held (spec §5: never across I/O).
	return victim.Page.SwapOut()
}

// selectVictim runs the second-chance clock: scan from the list head,
// picking the first frame whose accessed bit is clear, clearing the bit
// on every frame passed over. If the scan completes without finding an
// unaccessed frame, the first frame is returned (spec §4.2's fallback).
//
// Grounded on vm_get_victim, which doesn't persist a clock hand across
// calls either (SUPPLEMENTED FEATURES in SPEC_FULL.md), so each eviction
// restarts the scan from the list's front.
func (p *Pool) selectVictim() *Frame {
	p.mu.Lock()
	defer p.mu.Unlock()

	first := p.l.Front()
	if first == nil {
		return nil
	}
	for e := first; e != nil; e = e.Next() {
		f := e.Value.(*Frame)
		if f.Page == nil {
			continue
		}
		if !f.Page.Accessed() {
			return f
		}
		f.Page.ClearAccessed()
	}
	return first.Value.(*Frame)
}

// Release removes frame from the pool permanently (called from a page's
// Destroy, spec §4.5/§4.6, when no other reference remains — this core
// never shares a frame, so that is always true here).
func (p *Pool) Release(f *Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if f.elem != nil {
		p.l.Remove(f.elem)
		f.elem = nil
	}
	p.arena.Free(f.KVA)
	p.remaining.Given(1)
}
