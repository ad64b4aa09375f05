package page

import "defs"

// anonOps is the dispatch table for anonymous, swap-backed pages (spec
// §4.5). Grounded on original_source/vm/anon.c's anon_swap_in/
// anon_swap_out: swap-in reads the slot exactly once and frees it
// immediately (a slot is never shared), swap-out allocates a fresh slot
// on demand and writes the frame's full contents to it.
type anonOps struct{}

func (anonOps) Kind() Kind { return KindAnon }

// SwapIn loads the page's contents back from its swap slot, if it has
// one. A page freshly transformed from uninit (stack growth, heap
// demand-zero) has slot == swap.NoSlot: the arena already handed back a
// zeroed buffer, so there is nothing to read.
func (anonOps) SwapIn(p *Page) defs.Err_t {
	p.mu.Lock()
	slot := p.slot
	buf := p.frame.KVA
	sw := p.sw
	p.mu.Unlock()

	if slot < 0 {
		return 0
	}
	if err := sw.ReadSlot(slot, buf); err != nil {
		return defs.EIO
	}
	sw.Free(slot)

	p.mu.Lock()
	p.slot = -1
	p.mu.Unlock()
	return 0
}

// SwapOut writes the frame's contents to a freshly allocated slot, then
// clears the hardware mapping, detaches the frame, and releases it back
// to the frame pool (which frees its arena buffer).
func (anonOps) SwapOut(p *Page) defs.Err_t {
	p.mu.Lock()
	buf := p.frame.KVA
	sw := p.sw
	mmu := p.mmu
	va := p.va
	p.mu.Unlock()

	slot, err := sw.Allocate()
	if err != nil {
		return defs.ENOMEM
	}
	if err := sw.WriteSlot(slot, buf); err != nil {
		sw.Free(slot)
		return defs.EIO
	}

	mmu.Clear(va)
	p.mu.Lock()
	p.slot = slot
	f := p.frame
	p.frame = nil
	if f != nil {
		f.Page = nil
	}
	p.mu.Unlock()

	if p.pool != nil {
		p.pool.Release(f)
	}
	return 0
}

// Destroy frees the page's swap slot, if any, and releases its frame,
// if resident. At most one of the two is ever true.
func (anonOps) Destroy(p *Page) {
	p.mu.Lock()
	slot := p.slot
	f := p.frame
	sw := p.sw
	mmu := p.mmu
	va := p.va
	p.frame = nil
	p.slot = -1
	p.mu.Unlock()

	if slot >= 0 {
		sw.Free(slot)
	}
	if f != nil {
		mmu.Clear(va)
		f.Page = nil
		if p.pool != nil {
			p.pool.Release(f)
		}
	}
}
