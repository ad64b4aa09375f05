package mmuiface

import (
	"sync"

	"mem"
)

// entry mirrors the fields of a PTE that this core actually consults:
// present is implicit in the map membership.
type entry struct {
	kva      *mem.Bytepg_t
	writable bool
	accessed bool
	dirty    bool
}

// Soft is a software stand-in for a hardware page table, used by tests
// and by any embedder that has no real MMU to hand the core. It is
// grounded on biscuit's Vm_t.Page_insert/Page_remove: Install reports
// whether a present mapping was replaced, Clear whether one existed.
type Soft struct {
	mu      sync.Mutex
	entries map[uintptr]*entry
}

// NewSoft returns an empty software MMU.
func NewSoft() *Soft {
	return &Soft{entries: make(map[uintptr]*entry)}
}

func (s *Soft) Install(va uintptr, kva *mem.Bytepg_t, writable bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	va = mem.PgRounddown(va)
	_, replaced := s.entries[va]
	s.entries[va] = &entry{kva: kva, writable: writable, accessed: true}
	return replaced
}

func (s *Soft) Clear(va uintptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	va = mem.PgRounddown(va)
	_, existed := s.entries[va]
	delete(s.entries, va)
	return existed
}

func (s *Soft) Lookup(va uintptr) (*mem.Bytepg_t, bool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[mem.PgRounddown(va)]
	if !ok {
		return nil, false, false
	}
	return e.kva, e.writable, true
}

func (s *Soft) Accessed(va uintptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[mem.PgRounddown(va)]
	return ok && e.accessed
}

func (s *Soft) ClearAccessed(va uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[mem.PgRounddown(va)]; ok {
		e.accessed = false
	}
}

func (s *Soft) Dirty(va uintptr) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[mem.PgRounddown(va)]
	return ok && e.dirty
}

func (s *Soft) ClearDirty(va uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[mem.PgRounddown(va)]; ok {
		e.dirty = false
	}
}

// MarkWrite flags va as both accessed and dirty, as hardware would on a
// store. Tests (and a fake "user process") use this to simulate a write
// through the mapping Install returned.
func (s *Soft) MarkWrite(va uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[mem.PgRounddown(va)]; ok {
		e.accessed = true
		e.dirty = true
	}
}

// MarkRead flags va as accessed, as hardware would on a load.
func (s *Soft) MarkRead(va uintptr) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[mem.PgRounddown(va)]; ok {
		e.accessed = true
	}
}
