package vm

import (
	"fmt"

	"golang.org/x/arch/x86/x86asm"

	"caller"
)

// FaultReport is the diagnostic record produced for a fault
// TryHandleFault ultimately rejects: enough to print from a panic
// handler without re-deriving it, mirroring the kind of ad hoc
// dump the original produces on a fatal page fault.
type FaultReport struct {
	Addr   uintptr
	User   bool
	Write  bool
	Reason string
	Instr  string
}

func (r FaultReport) String() string {
	return fmt.Sprintf("vm: fatal fault at %#x (user=%v write=%v): %s [%s]",
		r.Addr, r.User, r.Write, r.Reason, r.Instr)
}

// describeInstr disassembles the faulting instruction for the report.
// code is the handful of bytes at the trap frame's saved instruction
// pointer, decoded in 64-bit mode (the x86-64 rsp-based machine the
// fault handler models). A short or undecodable buffer yields "?" rather than
// an error, since a best-effort diagnostic must never itself panic.
func describeInstr(code []byte) string {
	if len(code) == 0 {
		return "?"
	}
	inst, err := x86asm.Decode(code, 64)
	if err != nil {
		return "?"
	}
	return x86asm.GNUSyntax(inst, 0, nil)
}

// reportFatalFault builds a FaultReport for addr and dumps the current
// call stack via caller.Callerdump, exactly as biscuit's own fatal
// paths do on conditions that should never recur. instr is the raw
// instruction bytes at the fault site, if the trap layer captured any;
// callers that cannot supply them pass nil.
func reportFatalFault(addr uintptr, user, write bool, reason string, instr []byte) FaultReport {
	r := FaultReport{
		Addr:   addr,
		User:   user,
		Write:  write,
		Reason: reason,
		Instr:  describeInstr(instr),
	}
	fmt.Println(r.String())
	caller.Callerdump(2)
	return r
}
