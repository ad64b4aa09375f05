package vm

import (
	"fmt"

	"defs"
	"diag"
	"mem"
)

// TryHandleFault implements vm_try_handle_fault (spec §4.8, §6):
// classify the fault, try the claim path, and fall back to stack
// auto-growth before giving up. frameRSP is the trap frame's saved
// stack pointer; it is only meaningful when user is true (spec uses
// the thread's own saved rsp for faults that happen already in kernel
// mode). instr is the handful of instruction bytes at the trap
// frame's saved RIP, used only to enrich the diagnostic report built
// on a fatal rejection; callers that cannot supply them (or that
// don't care to) may pass nil.
//
// Grounded on original_source/vm/vm.c's vm_try_handle_fault: the null/
// kernel-half check, the not-present check, claim-then-grow-stack
// fallback, and the sp-8 tolerance for the hardware PUSH instruction.
func (sp *Space) TryHandleFault(frameRSP, addr uintptr, user, write, notPresent bool, instr []byte) bool {
	diag.Counters.Faults.Inc()

	fatal := func(reason string) bool {
		sp.sub.Faults.Record(diag.FaultRecord{Addr: addr, Write: write, Reason: reason})
		reportFatalFault(addr, user, write, reason, instr)
		return false
	}

	if addr == 0 || isKernelAddr(addr) {
		return fatal("null or kernel-half address")
	}
	if !notPresent {
		return fatal("protection violation on a present page")
	}

	va := mem.PgRounddown(addr)
	switch e := sp.ClaimPage(va); e {
	case 0:
		return true
	case defs.EFAULT:
		// no SPT entry at va: fall through to the stack-growth check.
	default:
		return fatal(fmt.Sprintf("claim failed: %s", e))
	}

	rsp := frameRSP
	if !user {
		rsp = sp.th.SavedRSP()
	}
	if addr >= rsp-8 && addr >= UserStack-sp.sub.Cfg.StackLimit && addr <= UserStack {
		if sp.growStack() == 0 {
			diag.Counters.StackGrowth.Inc()
			return true
		}
		return fatal("stack growth failed")
	}
	return fatal("no SPT entry and outside stack-growth window")
}
