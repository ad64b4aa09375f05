// Package fsfile gives the VM core the narrow file view it needs for
// file-backed pages (spec §4.6): read/write at an offset, query length,
// and reopen an independent handle for do_mmap (spec §4.6). It is
// deliberately not a general filesystem API — Design Notes §9 treats
// the real filesystem as an external collaborator the VM core only
// calls back into.
//
// Grounded on the old fd.Fd_t/fdops.Fdops_i split (one small interface
// of file operations behind a descriptor, and a Reopen method used by
// Copyfd) and original_source/filesys/file.c's file_read_at/
// file_write_at/file_length/file_reopen.
package fsfile

import (
	"fmt"
	"os"

	"defs"
)

// File is what a file-backed page needs from the filesystem.
type File interface {
	// ReadAt reads up to len(buf) bytes starting at off, returning the
	// number of bytes actually read (short on EOF, per io.ReaderAt).
	ReadAt(buf []byte, off int64) (int, defs.Err_t)

	// WriteAt writes len(buf) bytes starting at off.
	WriteAt(buf []byte, off int64) defs.Err_t

	// Length reports the file's current size in bytes.
	Length() (int64, defs.Err_t)

	// Reopen returns an independent handle to the same underlying file,
	// so that a mapping made by do_mmap (spec §4.6) keeps working after
	// the caller closes its own handle. spt.Copy does not reopen: a
	// copied page shares the parent page's handle.
	Reopen() (File, defs.Err_t)

	// Close releases the handle.
	Close() defs.Err_t
}

// OSFile is the default File, backed by a regular host file — the
// concrete collaborator the vm package's own tests use in place of a
// real course filesystem.
type OSFile struct {
	f    *os.File
	path string
	flag int
	perm os.FileMode
}

// OpenOSFile opens path for the VM core's use; flag/perm follow os.OpenFile.
func OpenOSFile(path string, flag int, perm os.FileMode) (*OSFile, error) {
	f, err := os.OpenFile(path, flag, perm)
	if err != nil {
		return nil, fmt.Errorf("fsfile: open %s: %w", path, err)
	}
	return &OSFile{f: f, path: path, flag: flag, perm: perm}, nil
}

func (o *OSFile) ReadAt(buf []byte, off int64) (int, defs.Err_t) {
	n, err := o.f.ReadAt(buf, off)
	if err != nil && n == 0 {
		return n, defs.EIO
	}
	return n, 0
}

func (o *OSFile) WriteAt(buf []byte, off int64) defs.Err_t {
	if _, err := o.f.WriteAt(buf, off); err != nil {
		return defs.EIO
	}
	return 0
}

func (o *OSFile) Length() (int64, defs.Err_t) {
	fi, err := o.f.Stat()
	if err != nil {
		return 0, defs.EIO
	}
	return fi.Size(), 0
}

// Reopen opens an independent handle with the same flags the original
// was opened with, so a writable mapping's reopened handle (spec
// §4.6/§4.7's private-handle requirement) can still write back a
// dirty page.
func (o *OSFile) Reopen() (File, defs.Err_t) {
	nf, err := os.OpenFile(o.path, o.flag, o.perm)
	if err != nil {
		return nil, defs.EIO
	}
	return &OSFile{f: nf, path: o.path, flag: o.flag, perm: o.perm}, 0
}

func (o *OSFile) Close() defs.Err_t {
	if err := o.f.Close(); err != nil {
		return defs.EIO
	}
	return 0
}
