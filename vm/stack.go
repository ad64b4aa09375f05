package vm

import (
	"defs"
	"mem"
	"page"
)

// growStack extends the stack by exactly one anonymous page below the
// thread's current stack bottom, then claims it — mirroring
// vm_stack_growth, which grows relative to the tracked stack bottom
// rather than the fault address itself (the two coincide as long as
// the stack only ever grows one page at a time).
func (sp *Space) growStack() defs.Err_t {
	sp.mu.Lock()
	bottom := sp.th.StackBottom()
	newVA := bottom - uintptr(mem.PGSIZE)
	if newVA < UserStack-sp.sub.Cfg.StackLimit {
		sp.mu.Unlock()
		return defs.EFAULT
	}
	p := page.NewAnon(sp.Deps(), newVA, true)
	if e := sp.spt.Insert(p); e != 0 {
		sp.mu.Unlock()
		return e
	}
	e := sp.claimLocked(p)
	if e != 0 {
		sp.spt.Remove(p)
		sp.mu.Unlock()
		return e
	}
	sp.th.SetStackBottom(newVA)
	sp.mu.Unlock()
	return 0
}
