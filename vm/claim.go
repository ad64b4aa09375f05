package vm

import (
	"fmt"

	"golang.org/x/sync/singleflight"

	"defs"
	"diag"
	"oom"
	"page"
)

// claimLocked runs the claim path (spec §4.9) against an already-held
// sp.mu: obtain a frame (may evict), link it to p, install the
// hardware mapping, then dispatch swap_in. On swap_in failure the
// mapping and link are torn back down and the frame released, so a
// failed claim leaves the page exactly as non-resident as it was
// before the attempt. A page already resident by the time the lock was
// acquired (a concurrent claimer on the same va got there first) is
// reported as a successful no-op rather than re-attached.
func (sp *Space) claimLocked(p *page.Page) defs.Err_t {
	diag.Counters.Claims.Inc()
	if p.Resident() {
		return 0
	}

	f, err := sp.sub.Pool.Get()
	if err != nil {
		// Eviction had nowhere left to go: swap is full too (spec
		// §4.2/§7's "no memory" failure mode). Report it and give a
		// listener one chance to free something before this claim
		// fails outright.
		oom.Notify(1)
		f, err = sp.sub.Pool.Get()
		if err != nil {
			return defs.ENOMEM
		}
	}
	p.Attach(f)
	sp.sub.Pool.Track(f)
	sp.mmu.Install(p.VA(), f.KVA, p.Writable())

	if e := p.SwapIn(); e != 0 {
		sp.mmu.Clear(p.VA())
		p.Detach()
		sp.sub.Pool.Release(f)
		return e
	}
	return 0
}

// Claim runs the claim path under sp's lock. It is the Claimer spt.Copy
// uses to physically realize a duplicated page.
func (sp *Space) Claim(p *page.Page) defs.Err_t {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return sp.claimLocked(p)
}

// ClaimPage implements the `claim_page(va)` external interface (spec
// §6): find the page at va and claim it. Returns EFAULT if no page is
// recorded there.
//
// spec §5 singles out the claim path as the one place two goroutines
// can legitimately race on the same va (two threads of one process
// faulting the same page at once). sp.mu already makes the race safe:
// claimLocked's residency check runs before Pool.Get, so the loser
// waits for the lock and then returns without allocating or evicting.
// singleflight.Group additionally collapses concurrent ClaimPage(va)
// calls into one real claim and fans the same result out to every
// caller, so the loser does not repeat the SPT lookup either.
func (sp *Space) ClaimPage(va uintptr) defs.Err_t {
	key := fmt.Sprintf("%#x", va)
	e, _, _ := sp.claimGroup.Do(key, func() (interface{}, error) {
		sp.mu.Lock()
		defer sp.mu.Unlock()
		p, ok := sp.spt.Find(va)
		if !ok {
			return defs.EFAULT, nil
		}
		return sp.claimLocked(p), nil
	})
	return e.(defs.Err_t)
}
