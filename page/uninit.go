package page

import "defs"

// uninitOps is the dispatch table for a page that has not yet been
// claimed (spec §4.4). Its SwapIn runs the initializer against the newly
// attached frame and, once that succeeds, transforms the page in place
// into its target kind; it does not call the target kind's own SwapIn.
// A failed initializer leaves the page uninitialized. Mirroring original_source/vm/uninit.c's uninit_initialize, which is
// itself the only operation uninit_ops defines besides destroy.
type uninitOps struct{}

func (uninitOps) Kind() Kind { return KindUninit }

func (uninitOps) SwapIn(p *Page) defs.Err_t {
	p.mu.Lock()
	init := p.init
	target := p.targetKind
	buf := p.frame.KVA
	p.mu.Unlock()

	if e := init(buf); e != 0 {
		return e
	}

	p.mu.Lock()
	p.transformTo(target)
	p.mu.Unlock()
	return 0
}

// SwapOut of an uninitialized page can't happen: an uninitialized page
// is never resident (it has no frame until the moment it transforms),
// so the frame pool never selects one as a victim.
func (uninitOps) SwapOut(p *Page) defs.Err_t {
	panic("page: swap out of an uninitialized page")
}

// Destroy releases the aux record; there is nothing else to do since no
// frame or slot was ever attached.
func (uninitOps) Destroy(p *Page) {
	p.mu.Lock()
	p.init = nil
	p.aux = nil
	p.mu.Unlock()
}
