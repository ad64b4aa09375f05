// Package mem defines the page-size geometry and physical-address types
// shared by the frame pool, the MMU interface, and the page kinds, and
// hands out the zeroed byte buffers frames are backed by.
package mem

import "sync"

// PGSHIFT is the base-2 exponent for the page size.
const PGSHIFT uint = 12

// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

// PGOFFSET masks offsets within a page.
const PGOFFSET uintptr = 0xfff

// PGMASK masks the page number of an address.
const PGMASK uintptr = ^(PGOFFSET)

// PTE_P marks a page as present.
const PTE_P uintptr = 1 << 0

// PTE_W marks a page writable.
const PTE_W uintptr = 1 << 1

// PTE_U marks a page user-accessible.
const PTE_U uintptr = 1 << 2

// PTE_A marks a page as accessed (read or written since last cleared).
const PTE_A uintptr = 1 << 5

// PTE_D marks a page as dirty (written since last cleared).
const PTE_D uintptr = 1 << 6

// Pa_t represents a physical address.
type Pa_t uintptr

// Bytepg_t is a byte-addressed page.
type Bytepg_t [PGSIZE]uint8

// PgRounddown rounds va down to the start of its containing page.
func PgRounddown(va uintptr) uintptr {
	return va &^ PGOFFSET
}

// PgOfs returns the offset of va within its page.
func PgOfs(va uintptr) uintptr {
	return va & PGOFFSET
}

// Arena hands out zeroed, page-sized backing buffers. It plays the role
// biscuit's Physmem_t plays for user pages, minus refcounting: this core
// never shares one frame between two pages (DESIGN.md, Open Question 3),
// so a buffer is owned exclusively by whichever frame currently wraps it.
type Arena struct {
	mu        sync.Mutex
	allocated int
}

// NewArena returns a ready-to-use page arena.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc returns a zeroed page-sized buffer.
func (a *Arena) Alloc() *Bytepg_t {
	a.mu.Lock()
	a.allocated++
	a.mu.Unlock()
	return &Bytepg_t{}
}

// Free releases a buffer previously returned by Alloc.
func (a *Arena) Free(*Bytepg_t) {
	a.mu.Lock()
	a.allocated--
	if a.allocated < 0 {
		panic("arena: free without matching alloc")
	}
	a.mu.Unlock()
}

// Allocated reports the number of buffers currently outstanding.
func (a *Arena) Allocated() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.allocated
}
