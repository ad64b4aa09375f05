// Package vm is the virtual memory core: fault dispatch, the claim
// path, mmap/munmap, and the glue between a process's supplemental
// page table and the shared frame pool and swap device.
//
// Grounded on vm/as.go's Vm_t (one mutex-guarded address-space value
// threaded through every operation) for the overall shape, replacing
// biscuit's direct-mapped Pmap/Physmem machinery with the dispatching
// page/frame/spt packages built for this core, per
// original_source/vm/vm.c.
package vm

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"diag"
	"disk"
	"frame"
	"limits"
	"mem"
	"mmuiface"
	"page"
	"spt"
	"swap"
	"thread"
)

// faultLogCapacity bounds the recent-fault ring every Subsystem keeps
// for post-mortem debugging (diag.FaultLog).
const faultLogCapacity = 64

// UserStack is the top of the user stack region (spec §4.8, boundary
// scenario 2). How far it may grow downward is a per-Subsystem
// config value (limits.Config.StackLimit), not a constant, so tests
// can exercise the 1 MiB boundary scenario with a tiny stack instead.
const UserStack = uintptr(1) << 47

func isKernelAddr(addr uintptr) bool {
	return addr >= UserStack
}

// Subsystem is the process-wide state spec Design Notes §9 asks to be
// "encapsulated behind a single VM subsystem value": the frame pool and
// swap allocator shared by every address space under it, plus the
// limits.Config they and the stack-growth path were built from. The
// MMU is not here — it lives one level down, in Space, since each
// address space has its own hardware page table even when two spaces
// (parent and child of a fork-like spt copy) share one Subsystem.
type Subsystem struct {
	Pool   *frame.Pool
	Swap   *swap.Allocator
	Cfg    limits.Config
	Faults *diag.FaultLog
}

// NewSubsystem wires a frame pool sized by cfg.Frames over a fresh
// arena to a swap allocator backed by d.
func NewSubsystem(cfg limits.Config, d disk.Disk) *Subsystem {
	return &Subsystem{
		Pool:   frame.NewPool(int(cfg.Frames), mem.NewArena()),
		Swap:   swap.New(d),
		Cfg:    cfg,
		Faults: diag.NewFaultLog(faultLogCapacity),
	}
}

// Space is one process's address space: its SPT, its hardware MMU, and
// its thread state, all bound to a shared Subsystem. Space.mu is the
// coarse lock spec §5 describes — held across the claim path (including
// any eviction and the swap_in I/O it dispatches, see claim.go), mmap,
// munmap, and spt mutation — so concurrent faults on distinct pages
// inside the same space serialize at the SPT, matching spec §5's "a
// page is either resident and mapped, or not" ordering guarantee.
type Space struct {
	mu         sync.Mutex
	sub        *Subsystem
	mmu        mmuiface.MMU
	spt        *spt.Table
	th         thread.Thread
	claimGroup singleflight.Group
}

// NewSpace creates an address space bound to sub, using mmu as its
// hardware page table and th as its thread state.
func NewSpace(sub *Subsystem, mmu mmuiface.MMU, th thread.Thread) *Space {
	deps := page.Deps{MMU: mmu, Pool: sub.Pool, Swap: sub.Swap}
	return &Space{sub: sub, mmu: mmu, spt: spt.New(deps), th: th}
}

// Deps exposes this space's page dependency bundle, for constructing
// pages outside the vm package's own helpers (e.g. in tests).
func (sp *Space) Deps() page.Deps {
	return page.Deps{MMU: sp.mmu, Pool: sp.sub.Pool, Swap: sp.sub.Swap}
}
