package vm

import (
	"defs"
	"spt"
)

// SptKill implements spt_kill (spec §4.7, §6): destroy every page this
// space's SPT holds.
func (sp *Space) SptKill() {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	sp.spt.Kill()
}

// SptCopy implements spt_copy (spec §4.7, §6): duplicate every page of
// src into dst, giving dst fork semantics of eager duplication. dst and
// src may share one Subsystem (one frame pool, one swap device) while
// keeping entirely separate hardware mappings, since each page carries
// its own space's MMU. A source page that isn't resident yet is claimed
// through src.Claim, not dst.Claim, so a not-yet-resident parent page
// never ends up installed into the child's page table. src.Claim and
// dst.Claim each take their own Space's lock per page; SptCopy does not
// hold src's lock for the whole duplication (src.Claim locks it
// per-page itself, and spt.Table's hashtable is safe for concurrent
// iteration and mutation on its own).
func SptCopy(dst, src *Space) defs.Err_t {
	return spt.Copy(dst.spt, src.spt, src.Claim, dst.Claim)
}
