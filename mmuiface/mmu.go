// Package mmuiface specifies the hardware MMU collaborator (spec §1, §6):
// install/clear/query a virtual->physical mapping and read/clear the
// accessed and dirty bits. The real implementation lives in the trap
// layer; this package only names the interface and, for standalone
// testing, a software fake (soft.go).
package mmuiface

import "mem"

// MMU is the hardware address-translation collaborator for one address
// space. All methods take a page-aligned virtual address.
type MMU interface {
	// Install maps va to kva with the given writability. It reports
	// whether an existing mapping at va was replaced.
	Install(va uintptr, kva *mem.Bytepg_t, writable bool) (replaced bool)

	// Clear removes any mapping at va. It reports whether one existed.
	Clear(va uintptr) (existed bool)

	// Lookup returns the frame currently mapped at va, if any.
	Lookup(va uintptr) (kva *mem.Bytepg_t, writable, ok bool)

	// Accessed reports the hardware accessed bit for va; ClearAccessed
	// clears it.
	Accessed(va uintptr) bool
	ClearAccessed(va uintptr)

	// Dirty reports the hardware dirty bit for va; ClearDirty clears it.
	Dirty(va uintptr) bool
	ClearDirty(va uintptr)
}
