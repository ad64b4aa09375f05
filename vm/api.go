package vm

import (
	"defs"
	"page"
)

// AllocPageWithInitializer implements alloc_page_with_initializer (spec
// §4.4, §6): register an uninitialized page at va targeting kind, with
// init and aux to run on first claim. Fails with EEXIST if va is
// already mapped in this space's SPT.
func (sp *Space) AllocPageWithInitializer(target page.Kind, va uintptr, writable bool, init page.Initializer, aux *page.FileAux) defs.Err_t {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	p := page.NewUninit(sp.Deps(), va, writable, target, init, aux)
	return sp.spt.Insert(p)
}

// AllocPage implements alloc_page (spec §6): register an already-final-
// kind page at va with no pending transformation. kind must be
// KindAnon or KindFile; a KindFile page gets an empty FileAux (callers
// needing real file backing should use AllocPageWithInitializer
// instead — this entry point exists for parity with spec's external
// interface table; stack growth builds its page with page.NewAnon
// directly).
func (sp *Space) AllocPage(kind page.Kind, va uintptr, writable bool) defs.Err_t {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	var p *page.Page
	switch kind {
	case page.KindAnon:
		p = page.NewAnon(sp.Deps(), va, writable)
	case page.KindFile:
		p = page.NewFile(sp.Deps(), va, writable, page.FileAux{})
	default:
		panic("vm: AllocPage of a non-final kind")
	}
	return sp.spt.Insert(p)
}

// DeallocPage implements dealloc_page (spec §6): destroy p (releasing
// its frame or slot, writing back if dirty) and remove it from the
// SPT.
func (sp *Space) DeallocPage(p *page.Page) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.spt.Remove(p)
}

// FindPage implements spt_find_page (spec §4.7, §6).
func (sp *Space) FindPage(va uintptr) (*page.Page, bool) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.spt.Find(va)
}
