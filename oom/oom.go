// Package oom signals memory pressure: the frame pool could not evict
// anything further and swap has no free slot left (spec §4.2/§7's "no
// memory" failure mode). The VM core has no eviction or kill policy of
// its own; it only reports the condition here so a surrounding system
// can decide what to do about it.
package oom

// Msg is sent on Ch when the frame pool is out of evictable frames and
// the swap device is full. Need is the number of additional frames the
// failed allocation was short. Resume is closed (never sent on) once
// whoever is listening has freed memory and the stalled allocation
// should be retried; a nil Resume means the caller isn't waiting.
type Msg struct {
	Need   int
	Resume chan bool
}

// Ch is the broadcast channel memory-pressure notifications go out on.
var Ch chan Msg = make(chan Msg)

// Notify sends need on Ch and blocks until resume is closed, or returns
// immediately if nothing is listening. Callers use this instead of
// sending on Ch directly so an unconsumed notification never blocks
// the allocator indefinitely without at least giving an observer the
// chance to intervene.
func Notify(need int) {
	resume := make(chan bool)
	select {
	case Ch <- Msg{Need: need, Resume: resume}:
		<-resume
	default:
	}
}
