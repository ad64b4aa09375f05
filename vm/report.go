package vm

import "diag"

// Occupancy returns a snapshot of this Subsystem's frame-pool and
// swap-device usage, suitable for diag.Report. sub.Cfg.Frames is the
// configuration value NewSubsystem was built from, untouched after
// construction (the pool tracks its own live remaining-capacity
// counter internally), so it doubles as the frame pool's total size.
func (sub *Subsystem) Occupancy() diag.Occupancy {
	return diag.Occupancy{
		FramesUsed:  sub.Pool.Len(),
		FramesTotal: int(sub.Cfg.Frames.Remaining()),
		SwapUsed:    sub.Swap.Used(),
		SwapTotal:   sub.Swap.Slots(),
		IOWaitNanos: sub.Swap.Accnt().IOWaitNanos(),
	}
}
