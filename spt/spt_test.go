package spt

import (
	"testing"

	"defs"
	"disk"
	"frame"
	"mem"
	"mmuiface"
	"page"
	"swap"
)

func testDeps(frames, slots int) (page.Deps, *mmuiface.Soft) {
	mmu := mmuiface.NewSoft()
	pool := frame.NewPool(frames, mem.NewArena())
	sw := swap.New(disk.NewMemDisk(slots * swap.SlotSectors))
	return page.Deps{MMU: mmu, Pool: pool, Swap: sw}, mmu
}

func TestInsertFindRemove(t *testing.T) {
	deps, _ := testDeps(2, 2)
	table := New(deps)
	p := page.NewAnon(deps, 0x1000, true)

	if e := table.Insert(p); e != 0 {
		t.Fatalf("Insert: %s", e)
	}
	got, ok := table.Find(0x1000)
	if !ok || got != p {
		t.Fatalf("Find did not return the inserted page")
	}
	// Find rounds down to the page boundary.
	got, ok = table.Find(0x1042)
	if !ok || got != p {
		t.Fatalf("Find(0x1042) did not round down to the containing page")
	}

	table.Remove(p)
	if _, ok := table.Find(0x1000); ok {
		t.Fatalf("page still found after Remove")
	}
}

func TestInsertDuplicateFails(t *testing.T) {
	deps, _ := testDeps(2, 2)
	table := New(deps)
	p1 := page.NewAnon(deps, 0x2000, true)
	p2 := page.NewAnon(deps, 0x2000, false)

	if e := table.Insert(p1); e != 0 {
		t.Fatalf("first Insert: %s", e)
	}
	if e := table.Insert(p2); e != defs.EEXIST {
		t.Fatalf("second Insert at the same va: got %s, want EEXIST", e)
	}
}

func TestKillDestroysEveryPage(t *testing.T) {
	deps, mmu := testDeps(2, 2)
	table := New(deps)
	p1 := page.NewAnon(deps, 0x3000, true)
	p2 := page.NewAnon(deps, 0x4000, true)
	table.Insert(p1)
	table.Insert(p2)

	f1, _ := deps.Pool.Get()
	p1.Attach(f1)
	deps.Pool.Track(f1)
	mmu.Install(p1.VA(), f1.KVA, true)

	table.Kill()
	if p1.Resident() {
		t.Fatalf("resident page still resident after Kill")
	}
	if _, _, ok := mmu.Lookup(p1.VA()); ok {
		t.Fatalf("mapping still installed after Kill")
	}
}

func TestCopyRecreatesUninitPageWithoutClaiming(t *testing.T) {
	deps, _ := testDeps(2, 2)
	src := New(deps)
	dst := New(deps)

	ran := false
	init := func(buf *mem.Bytepg_t) defs.Err_t {
		ran = true
		return 0
	}
	p := page.NewUninit(deps, 0x5000, true, page.KindAnon, init, nil)
	src.Insert(p)

	claimed := 0
	claimer := Claimer(func(p *page.Page) defs.Err_t {
		claimed++
		return 0
	})
	if e := Copy(dst, src, claimer, claimer); e != 0 {
		t.Fatalf("Copy: %s", e)
	}
	if ran {
		t.Fatalf("uninit page's initializer ran during Copy; it should only run on the child's own later fault")
	}
	if claimed != 0 {
		t.Fatalf("claimer invoked %d times for an uninit page, want 0", claimed)
	}
	child, ok := dst.Find(0x5000)
	if !ok {
		t.Fatalf("child table missing the copied uninit page")
	}
	if !child.IsUninit() {
		t.Fatalf("copied page is not uninit in the child")
	}
}

// makeClaimer builds a Claimer that runs the claim path (frame
// allocation, MMU install, dispatch SwapIn) against one particular
// Deps's own pool and MMU, mirroring what vm.Space.Claim does per
// address space.
func makeClaimer(deps page.Deps) Claimer {
	return func(p *page.Page) defs.Err_t {
		if p.Resident() {
			return 0
		}
		f, err := deps.Pool.Get()
		if err != nil {
			return defs.ENOMEM
		}
		p.Attach(f)
		deps.Pool.Track(f)
		deps.MMU.Install(p.VA(), f.KVA, p.Writable())
		return p.SwapIn()
	}
}

func TestCopyDuplicatesResidentAnonContents(t *testing.T) {
	deps, mmu := testDeps(4, 4)
	src := New(deps)
	dst := New(deps)

	p := page.NewAnon(deps, 0x6000, true)
	src.Insert(p)
	f, err := deps.Pool.Get()
	if err != nil {
		t.Fatalf("Pool.Get: %v", err)
	}
	p.Attach(f)
	deps.Pool.Track(f)
	mmu.Install(p.VA(), f.KVA, true)
	for i := range f.KVA {
		f.KVA[i] = 0x77
	}

	claimer := makeClaimer(deps)
	if e := Copy(dst, src, claimer, claimer); e != 0 {
		t.Fatalf("Copy: %s", e)
	}
	child, ok := dst.Find(0x6000)
	if !ok {
		t.Fatalf("child table missing the copied page")
	}
	if !child.Resident() {
		t.Fatalf("child page not resident after Copy")
	}
	ckva, _, _ := mmu.Lookup(child.VA())
	for i, b := range ckva {
		if b != 0x77 {
			t.Fatalf("byte %d of child's frame = %#x, want 0x77 (parent's contents)", i, b)
		}
	}

	// Mutating the parent afterward must not affect the child: they
	// hold independent frames once Copy returns.
	for i := range f.KVA {
		f.KVA[i] = 0x22
	}
	for i, b := range ckva {
		if b != 0x77 {
			t.Fatalf("child's frame changed after parent mutation at byte %d: got %#x", i, b)
		}
	}
}

// TestCopyOfNonResidentSourceClaimsThroughSrcNotDst is a regression test
// for a bug where copyOne claimed a non-resident source page through
// the destination's claimer: that installed the parent's page into the
// child's MMU and freed the parent's swap slot out from under it,
// leaving the parent's own MMU with no mapping and a dangling swap
// reference — a permanent re-fault loop on the parent's next access.
// src and dst here have separate MMUs but share one pool and swap
// device, mirroring how vm.Space duplicates an address space on fork.
func TestCopyOfNonResidentSourceClaimsThroughSrcNotDst(t *testing.T) {
	pool := frame.NewPool(4, mem.NewArena())
	sw := swap.New(disk.NewMemDisk(4 * swap.SlotSectors))
	srcMMU := mmuiface.NewSoft()
	dstMMU := mmuiface.NewSoft()
	srcDeps := page.Deps{MMU: srcMMU, Pool: pool, Swap: sw}
	dstDeps := page.Deps{MMU: dstMMU, Pool: pool, Swap: sw}

	src := New(srcDeps)
	dst := New(dstDeps)

	p := page.NewAnon(srcDeps, 0x7000, true)
	src.Insert(p)
	f, err := pool.Get()
	if err != nil {
		t.Fatalf("Pool.Get: %v", err)
	}
	p.Attach(f)
	pool.Track(f)
	srcMMU.Install(p.VA(), f.KVA, true)
	for i := range f.KVA {
		f.KVA[i] = 0x55
	}

	// Swap the parent's page out before Copy: copyOne must now claim it
	// back in through the source claimer, not the destination's.
	if err := p.SwapOut(); err != nil {
		t.Fatalf("SwapOut: %v", err)
	}
	if p.Resident() {
		t.Fatalf("page still resident after SwapOut")
	}

	srcClaim := makeClaimer(srcDeps)
	dstClaim := makeClaimer(dstDeps)
	if e := Copy(dst, src, srcClaim, dstClaim); e != 0 {
		t.Fatalf("Copy: %s", e)
	}

	// The source page must have been reclaimed into its OWN (src) MMU,
	// not the destination's.
	if !p.Resident() {
		t.Fatalf("source page not resident after Copy; srcClaim did not run")
	}
	skva, _, ok := srcMMU.Lookup(p.VA())
	if !ok {
		t.Fatalf("source page has no mapping in its own MMU after Copy")
	}
	for i, b := range skva {
		if b != 0x55 {
			t.Fatalf("source frame byte %d = %#x, want 0x55 (its own contents, undisturbed)", i, b)
		}
	}

	child, ok := dst.Find(0x7000)
	if !ok {
		t.Fatalf("child table missing the copied page")
	}
	if !child.Resident() {
		t.Fatalf("child page not resident after Copy")
	}
	ckva, _, ok := dstMMU.Lookup(child.VA())
	if !ok {
		t.Fatalf("child page has no mapping in dst's MMU after Copy")
	}
	for i, b := range ckva {
		if b != 0x55 {
			t.Fatalf("child frame byte %d = %#x, want 0x55 (parent's contents)", i, b)
		}
	}

	// The two pages must hold independent frames: mutating one must not
	// affect the other.
	for i := range skva {
		skva[i] = 0x99
	}
	for i, b := range ckva {
		if b != 0x55 {
			t.Fatalf("child's frame changed after source mutation at byte %d: got %#x", i, b)
		}
	}
}
