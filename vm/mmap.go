package vm

import (
	"defs"
	"fsfile"
	"mem"
	"page"
	"util"
)

// DoMmap implements do_mmap (spec §4.6, §6): clip length to the file's
// own size, reopen it for a private handle, and install one
// uninitialized file-targeted page per page-sized slice of
// [0, clipped length). addr and offset must be page-aligned and the
// whole range must not overlap any existing entry.
//
// Failure atomicity (spec §9 / Open Question resolution, DESIGN.md):
// unlike the source, which leaves a partially-installed mapping
// standing on a mid-loop failure, this rolls back every page it
// inserted in this call before returning failure — a half-mapped
// region is never observable afterward.
func (sp *Space) DoMmap(addr uintptr, length int, writable bool, f fsfile.File, offset int64) (uintptr, defs.Err_t) {
	if length <= 0 {
		return 0, defs.EINVAL
	}
	if mem.PgOfs(addr) != 0 || offset%int64(mem.PGSIZE) != 0 {
		return 0, defs.EINVAL
	}

	flen, e := f.Length()
	if e != 0 {
		return 0, e
	}
	length = int(util.Min(int64(length), flen-offset))
	if length <= 0 {
		return 0, defs.EINVAL
	}

	handle, e := f.Reopen()
	if e != 0 {
		return 0, e
	}

	npages := util.Roundup(length, mem.PGSIZE) / mem.PGSIZE

	sp.mu.Lock()
	defer sp.mu.Unlock()

	inserted := make([]*page.Page, 0, npages)
	remaining := length
	for i := 0; i < npages; i++ {
		va := addr + uintptr(i*mem.PGSIZE)
		readBytes := util.Min(remaining, mem.PGSIZE)
		aux := page.FileAux{
			File:      handle,
			Offset:    offset + int64(i*mem.PGSIZE),
			ReadBytes: readBytes,
			ZeroBytes: mem.PGSIZE - readBytes,
			Length:    length,
		}
		p := page.NewUninit(sp.Deps(), va, writable, page.KindFile, page.FileInitializer(aux), &aux)
		if ierr := sp.spt.Insert(p); ierr != 0 {
			for _, done := range inserted {
				sp.spt.Remove(done)
			}
			handle.Close()
			return 0, ierr
		}
		inserted = append(inserted, p)
		remaining -= readBytes
	}
	return addr, 0
}

// DoMunmap implements do_munmap (spec §4.6, §6): look up the page at
// addr, read the mapped run length it recorded, and destroy every page
// in that run (flushing dirty file contents back via each page's own
// destroy).
func (sp *Space) DoMunmap(addr uintptr) defs.Err_t {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	va := mem.PgRounddown(addr)
	p, ok := sp.spt.Find(va)
	if !ok {
		return defs.EFAULT
	}

	var length int
	if p.IsUninit() {
		_, _, aux := p.UninitInfo()
		if aux == nil {
			return defs.EINVAL
		}
		length = aux.Length
	} else if p.Kind() == page.KindFile {
		length = p.FileInfo().Length
	} else {
		return defs.EINVAL
	}

	npages := util.Roundup(length, mem.PGSIZE) / mem.PGSIZE
	for i := 0; i < npages; i++ {
		pg, ok := sp.spt.Find(va + uintptr(i*mem.PGSIZE))
		if !ok {
			continue
		}
		sp.spt.Remove(pg)
	}
	return 0
}
