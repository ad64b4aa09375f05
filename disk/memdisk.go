package disk

import "fmt"

// MemDisk is an in-memory Disk used by tests that don't need real
// file-backed persistence (the swap area is volatile anyway — spec §6
// "contents do not need to survive a reboot").
type MemDisk struct {
	sectors [][SectorSize]byte
}

// NewMemDisk returns a zeroed in-memory disk of the given sector count.
func NewMemDisk(sectors int) *MemDisk {
	return &MemDisk{sectors: make([][SectorSize]byte, sectors)}
}

func (d *MemDisk) Sectors() int {
	return len(d.sectors)
}

func (d *MemDisk) ReadSector(n int, buf []byte) error {
	if n < 0 || n >= len(d.sectors) {
		return fmt.Errorf("memdisk: sector %d out of range [0,%d)", n, len(d.sectors))
	}
	if len(buf) != SectorSize {
		return fmt.Errorf("memdisk: buffer must be exactly %d bytes", SectorSize)
	}
	copy(buf, d.sectors[n][:])
	return nil
}

func (d *MemDisk) WriteSector(n int, buf []byte) error {
	if n < 0 || n >= len(d.sectors) {
		return fmt.Errorf("memdisk: sector %d out of range [0,%d)", n, len(d.sectors))
	}
	if len(buf) != SectorSize {
		return fmt.Errorf("memdisk: buffer must be exactly %d bytes", SectorSize)
	}
	copy(d.sectors[n][:], buf)
	return nil
}
