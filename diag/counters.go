// Package diag holds the VM core's enable-able performance counters
// and a bounded recent-fault history, plus a locale-aware occupancy
// report over them.
//
// Grounded on stats/stats.go's Counter_t/Stats-flag idiom (a package
// constant gates whether counting runs at all, so the fast path costs
// nothing when diagnostics are off) and circbuf/circbuf.go's
// fixed-capacity ring buffer shape, repurposed here for fault records
// instead of raw bytes.
package diag

import "sync/atomic"

// Enabled gates whether the counters below do any work. false (the
// default) makes every Inc a no-op, matching stats.Stats's role in
// the teacher.
const Enabled = false

// Counter_t is a statistical counter, incremented only when Enabled.
type Counter_t int64

// Inc increments the counter by one.
func (c *Counter_t) Inc() {
	if Enabled {
		atomic.AddInt64((*int64)(c), 1)
	}
}

// Get reads the counter's current value.
func (c *Counter_t) Get() int64 {
	return atomic.LoadInt64((*int64)(c))
}

// Counters is the VM core's standing set of performance counters (spec
// §8's boundary scenarios are exactly what these would be exercised
// by: faults, evictions, swap I/O in each direction).
var Counters struct {
	Faults      Counter_t
	Claims      Counter_t
	Evictions   Counter_t
	SwapIns     Counter_t
	SwapOuts    Counter_t
	StackGrowth Counter_t
}
