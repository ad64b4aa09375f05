package disk

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// FileDisk is a Disk backed by a regular file, sized in whole sectors.
// It uses golang.org/x/sys/unix.Pread/Pwrite rather than *os.File's
// Read/Write (which share one seek cursor) so that concurrent sector
// I/O from several evicting goroutines addresses the file purely by
// offset, with no cursor races — the same sector-addressed contract a
// real block device gives spec §6's disk_read/disk_write.
type FileDisk struct {
	f       *os.File
	sectors int
}

// OpenFileDisk opens (creating if necessary) a file at path sized to
// hold exactly sectors sectors, truncating or extending as needed.
func OpenFileDisk(path string, sectors int) (*FileDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, err
	}
	size := int64(sectors) * SectorSize
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, err
	}
	return &FileDisk{f: f, sectors: sectors}, nil
}

// Close releases the underlying file.
func (d *FileDisk) Close() error {
	return d.f.Close()
}

func (d *FileDisk) Sectors() int {
	return d.sectors
}

func (d *FileDisk) ReadSector(n int, buf []byte) error {
	if err := d.checkSector(n, buf); err != nil {
		return err
	}
	off := int64(n) * SectorSize
	got, err := unix.Pread(int(d.f.Fd()), buf, off)
	if err != nil {
		return err
	}
	if got != SectorSize {
		return fmt.Errorf("filedisk: short read at sector %d: got %d bytes", n, got)
	}
	return nil
}

func (d *FileDisk) WriteSector(n int, buf []byte) error {
	if err := d.checkSector(n, buf); err != nil {
		return err
	}
	off := int64(n) * SectorSize
	put, err := unix.Pwrite(int(d.f.Fd()), buf, off)
	if err != nil {
		return err
	}
	if put != SectorSize {
		return fmt.Errorf("filedisk: short write at sector %d: wrote %d bytes", n, put)
	}
	return nil
}

func (d *FileDisk) checkSector(n int, buf []byte) error {
	if n < 0 || n >= d.sectors {
		return fmt.Errorf("filedisk: sector %d out of range [0,%d)", n, d.sectors)
	}
	if len(buf) != SectorSize {
		return fmt.Errorf("filedisk: buffer must be exactly %d bytes, got %d", SectorSize, len(buf))
	}
	return nil
}
