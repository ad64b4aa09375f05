// Package limits holds the VM core's subsystem-wide tunables and the
// atomic counters that enforce them: frame pool capacity, swap device
// capacity, and the stack growth ceiling.
//
// Grounded on biscuit's own limits package: one documented, atomically
// updated Syslimit_t narrowed here to the knobs this core actually
// has, plus its Sysatomic_t idiom (a remaining-capacity counter
// decremented by Taken, given back by Given) reused as the mechanism
// frame.Pool uses to refuse going over its configured size instead of
// growing unboundedly.
package limits

import "sync/atomic"

// Sysatomic_t is a remaining-capacity counter. Taken subtracts without
// going negative, reporting whether there was enough left; Given adds
// back what was released.
type Sysatomic_t int64

// Given increases the remaining count by n.
func (s *Sysatomic_t) Given(n uint) {
	atomic.AddInt64((*int64)(s), int64(n))
}

// Taken tries to decrement the remaining count by n, refusing (and
// leaving the count unchanged) if that would take it negative.
func (s *Sysatomic_t) Taken(n uint) bool {
	if atomic.AddInt64((*int64)(s), -int64(n)) >= 0 {
		return true
	}
	atomic.AddInt64((*int64)(s), int64(n))
	return false
}

// Take is Taken(1).
func (s *Sysatomic_t) Take() bool { return s.Taken(1) }

// Give is Given(1).
func (s *Sysatomic_t) Give() { s.Given(1) }

// Remaining reports the current count.
func (s *Sysatomic_t) Remaining() int64 {
	return atomic.LoadInt64((*int64)(s))
}

// Config holds the tunables a Subsystem is built from (spec §4.2's
// frame pool capacity, §4.3's swap device capacity, §4.8's stack
// growth ceiling). Frames sizes the frame pool: vm.NewSubsystem copies
// it into the pool's own remaining-capacity counter, and the Config
// value itself is never decremented. SwapSlots is not consulted:
// swap.Allocator sizes itself from its disk's sector count. Hit is
// called when frame.Pool is out of capacity and eviction also fails.
type Config struct {
	Frames     Sysatomic_t
	SwapSlots  Sysatomic_t
	StackLimit uintptr
}

// Default mirrors biscuit's MkSysLimit: a working configuration with
// no attempt to size it for a particular machine.
func Default() Config {
	return Config{
		Frames:     256,
		SwapSlots:  1024,
		StackLimit: 1 << 20,
	}
}

// Hits counts rejections caused by a configured limit, the same role
// biscuit's package-level Lhits plays for its own resource limits.
var Hits int64

// Hit records one limit rejection.
func Hit() {
	atomic.AddInt64(&Hits, 1)
}
