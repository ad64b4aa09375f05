package page

import (
	"defs"
	"mem"
)

// fileOps is the dispatch table for file-backed pages (spec §4.6).
// Grounded on original_source/vm/file.c's file_backed_swap_in/
// file_backed_swap_out/file_backed_destroy: swap-in always redoes the
// read+zero-fill sequence (there is no separate swap slot for a
// file-backed page; the file itself is the backing store),
// swap-out writes the frame back only if the page was dirtied since it
// was last loaded.
type fileOps struct{}

func (fileOps) Kind() Kind { return KindFile }

// FileInitializer returns the Initializer an uninitialized page with
// target kind KindFile should use: the same read+zero-fill sequence
// fileOps.SwapIn later repeats on every re-fault. aux is later stored
// as the page's own payload by transformTo, so do_mmap only needs to
// build the FileAux once.
func FileInitializer(aux FileAux) Initializer {
	return func(buf *mem.Bytepg_t) defs.Err_t {
		return loadFileContents(&aux, buf)
	}
}

func (fileOps) SwapIn(p *Page) defs.Err_t {
	p.mu.Lock()
	aux := p.file
	buf := p.frame.KVA
	p.mu.Unlock()
	return loadFileContents(aux, buf)
}

// loadFileContents performs the read+zero-fill shared by a file page's
// original lazy load and every subsequent re-fault after eviction.
func loadFileContents(aux *FileAux, buf *mem.Bytepg_t) defs.Err_t {
	if aux.ReadBytes > 0 {
		n, e := aux.File.ReadAt(buf[:aux.ReadBytes], aux.Offset)
		if e != 0 {
			return e
		}
		if n != aux.ReadBytes {
			return defs.EIO
		}
	}
	for i := aux.ReadBytes; i < aux.ReadBytes+aux.ZeroBytes; i++ {
		buf[i] = 0
	}
	return 0
}

// SwapOut writes the frame back to the file iff the hardware dirty bit
// is set, then clears the mapping and detaches the frame.
func (fileOps) SwapOut(p *Page) defs.Err_t {
	p.mu.Lock()
	aux := p.file
	buf := p.frame.KVA
	mmu := p.mmu
	va := p.va
	p.mu.Unlock()

	if mmu.Dirty(va) && aux.ReadBytes > 0 {
		if e := aux.File.WriteAt(buf[:aux.ReadBytes], aux.Offset); e != 0 {
			return e
		}
	}

	mmu.Clear(va)
	p.mu.Lock()
	f := p.frame
	p.frame = nil
	if f != nil {
		f.Page = nil
	}
	p.mu.Unlock()

	if p.pool != nil {
		p.pool.Release(f)
	}
	return 0
}

// Destroy writes back a dirty resident page (same rule as SwapOut) and
// releases its frame; a non-resident file page has nothing to release.
func (fileOps) Destroy(p *Page) {
	p.mu.Lock()
	f := p.frame
	aux := p.file
	mmu := p.mmu
	va := p.va
	p.frame = nil
	p.mu.Unlock()

	if f == nil {
		return
	}
	if mmu.Dirty(va) && aux.ReadBytes > 0 {
		aux.File.WriteAt(f.KVA[:aux.ReadBytes], aux.Offset)
	}
	mmu.Clear(va)
	f.Page = nil
	if p.pool != nil {
		p.pool.Release(f)
	}
}
