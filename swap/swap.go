// Package swap implements the swap slot allocator (spec §4.1): the swap
// device viewed as N fixed-size slots, tracked by a bitmap.
//
// Grounded on original_source/vm/anon.c's bitmap_scan_and_flip/
// bitmap_set/bitmap_reset sequence (Pintos's bitmap.h), reimplemented as
// a Go []uint64 bitset behind one mutex — the same shape as biscuit's
// own Physmem_t freelist, which is also one mutex guarding a scan.
package swap

import (
	"fmt"
	"math/bits"
	"sync"

	"accnt"
	"disk"
	"mem"
)

// SlotSectors is the number of contiguous sectors one slot occupies —
// one page, per spec §4.1 and §6 (a page is 8 sectors).
const SlotSectors = mem.PGSIZE / disk.SectorSize

// ErrFull is returned by Allocate when no slot is free.
var ErrFull = fmt.Errorf("swap: device full")

// Allocator partitions a Disk into fixed-size slots and hands them out.
// The implicit "swap bitmap lock" of spec §5 is this type's mu.
type Allocator struct {
	mu   sync.Mutex
	bits []uint64
	n    int
	disk disk.Disk
	acc  accnt.Accnt_t
}

// New partitions d into slots and returns a ready allocator. d's sector
// count must be a multiple of SlotSectors.
func New(d disk.Disk) *Allocator {
	n := d.Sectors() / SlotSectors
	words := (n + 63) / 64
	return &Allocator{bits: make([]uint64, words), n: n, disk: d}
}

// Accnt returns this allocator's swap I/O-wait accounting record (spec
// §5: every WriteSlot/ReadSlot is a suspension point, and time spent in
// one should not be charged against a process's own fault-handling
// time).
func (a *Allocator) Accnt() *accnt.Accnt_t {
	return &a.acc
}

// Slots reports the total slot count.
func (a *Allocator) Slots() int {
	return a.n
}

// Used reports the number of slots currently allocated.
func (a *Allocator) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, word := range a.bits {
		n += bits.OnesCount64(word)
	}
	return n
}

// Allocate finds and marks the first free slot, returning its index.
// Returns ErrFull if the device is full — no defragmentation, per spec.
func (a *Allocator) Allocate() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for w, word := range a.bits {
		if word == ^uint64(0) {
			continue
		}
		// first clear bit in this word
		bit := bits.TrailingZeros64(^word)
		idx := w*64 + bit
		if idx >= a.n {
			continue
		}
		a.bits[w] |= 1 << uint(bit)
		return idx, nil
	}
	return 0, ErrFull
}

// Free clears slot idx's bit, returning it to the pool.
func (a *Allocator) Free(idx int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkRange(idx)
	a.bits[idx/64] &^= 1 << uint(idx%64)
}

// Test reports whether slot idx's bit is set.
func (a *Allocator) Test(idx int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.checkRange(idx)
	return a.bits[idx/64]&(1<<uint(idx%64)) != 0
}

func (a *Allocator) checkRange(idx int) {
	if idx < 0 || idx >= a.n {
		panic("swap: slot index out of range")
	}
}

// WriteSlot writes a full page's worth of bytes into slot idx. The time
// spent here is bracketed into a.Accnt()'s I/O-wait counter, per spec
// §5's suspension-point note.
func (a *Allocator) WriteSlot(idx int, page *mem.Bytepg_t) error {
	a.checkRange(idx)
	since := a.acc.Now()
	defer a.acc.IOWait(since)
	base := idx * SlotSectors
	for i := 0; i < SlotSectors; i++ {
		lo := i * disk.SectorSize
		if err := a.disk.WriteSector(base+i, page[lo:lo+disk.SectorSize]); err != nil {
			return err
		}
	}
	return nil
}

// ReadSlot reads a full page's worth of bytes from slot idx. Timed the
// same way as WriteSlot.
func (a *Allocator) ReadSlot(idx int, page *mem.Bytepg_t) error {
	a.checkRange(idx)
	since := a.acc.Now()
	defer a.acc.IOWait(since)
	base := idx * SlotSectors
	for i := 0; i < SlotSectors; i++ {
		lo := i * disk.SectorSize
		if err := a.disk.ReadSector(base+i, page[lo:lo+disk.SectorSize]); err != nil {
			return err
		}
	}
	return nil
}

// NoSlot is the sentinel meaning "no slot assigned" (spec §3: anonymous
// payload's slot index, or sentinel meaning resident / never swapped).
const NoSlot = -1
