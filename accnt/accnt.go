// Package accnt tracks time a swap allocator's caller spends blocked on
// device I/O (spec §5's suspension points around a slot read/write),
// kept separate from whatever charges the rest of a fault's handling
// time. Narrowed from biscuit's own Accnt_t user/system split: this
// core has no scheduler to charge user/system time against, only the
// one suspension point spec §5 actually names.
package accnt

import (
	"sync/atomic"
	"time"
)

// Accnt_t accumulates nanoseconds spent blocked on swap device I/O.
type Accnt_t struct {
	ioWaitns int64
}

// Now returns the current time in nanoseconds since the Unix epoch, the
// same clock IOWait measures against.
func (a *Accnt_t) Now() int64 {
	return time.Now().UnixNano()
}

// IOWait adds the time elapsed since a prior Now() to the counter.
// swap.Allocator.ReadSlot/WriteSlot bracket their own sector I/O with
// since := acc.Now() before and acc.IOWait(since) after.
func (a *Accnt_t) IOWait(since int64) {
	atomic.AddInt64(&a.ioWaitns, a.Now()-since)
}

// IOWaitNanos reports the accumulated I/O-wait time.
func (a *Accnt_t) IOWaitNanos() int64 {
	return atomic.LoadInt64(&a.ioWaitns)
}
