// Package defs holds types shared across the VM core's packages.
package defs

// Err_t is a signed error code. Zero means success; a negative value
// names the failure. Returned by value at every component boundary
// instead of Go's error, matching the rest of this core's idiom.
type Err_t int

// Error kinds from spec §7. Recoverable conditions are returned as one
// of these; violated invariants still panic.
const (
	ENOMEM Err_t = -1 /// frame/slot exhaustion: no memory
	EFAULT Err_t = -2 /// null/kernel address, protection violation, invalid access
	EEXIST Err_t = -3 /// duplicate mapping at a virtual address
	EIO    Err_t = -4 /// short swap or file read/write
	EINVAL Err_t = -5 /// bad argument (unaligned address, negative length, ...)
	EAGAIN Err_t = -6 /// transient condition; caller may retry
)

// Ok reports whether e represents success.
func (e Err_t) Ok() bool {
	return e == 0
}

// String renders a short, human name for e.
func (e Err_t) String() string {
	switch e {
	case 0:
		return "ok"
	case ENOMEM:
		return "ENOMEM"
	case EFAULT:
		return "EFAULT"
	case EEXIST:
		return "EEXIST"
	case EIO:
		return "EIO"
	case EINVAL:
		return "EINVAL"
	case EAGAIN:
		return "EAGAIN"
	default:
		return "Err_t(unknown)"
	}
}
