package page

import (
	"os"
	"testing"

	"defs"
	"disk"
	"frame"
	"fsfile"
	"mem"
	"mmuiface"
	"swap"
)

func testDeps(t *testing.T, frames, slots int) (Deps, *mmuiface.Soft) {
	t.Helper()
	mmu := mmuiface.NewSoft()
	pool := frame.NewPool(frames, mem.NewArena())
	sw := swap.New(disk.NewMemDisk(slots * swap.SlotSectors))
	return Deps{MMU: mmu, Pool: pool, Swap: sw}, mmu
}

// claim mimics vm.Space.claimLocked well enough for these package-level
// tests: get a frame, attach it, install the mapping, dispatch SwapIn.
func claim(t *testing.T, d Deps, mmu *mmuiface.Soft, p *Page) {
	t.Helper()
	f, err := d.Pool.Get()
	if err != nil {
		t.Fatalf("Pool.Get: %v", err)
	}
	p.Attach(f)
	d.Pool.Track(f)
	mmu.Install(p.VA(), f.KVA, p.Writable())
	if e := p.SwapIn(); e != 0 {
		t.Fatalf("SwapIn: %s", e)
	}
}

func TestAnonSwapOutSwapInRoundTrip(t *testing.T) {
	deps, mmu := testDeps(t, 1, 1)
	p := NewAnon(deps, 0x4000, true)
	claim(t, deps, mmu, p)

	kva, _, ok := mmu.Lookup(p.VA())
	if !ok {
		t.Fatalf("page not mapped after claim")
	}
	for i := range kva {
		kva[i] = 0xAB
	}

	if err := p.SwapOut(); err != nil {
		t.Fatalf("SwapOut: %v", err)
	}
	if p.Resident() {
		t.Fatalf("page still resident after SwapOut")
	}
	if _, _, ok := mmu.Lookup(p.VA()); ok {
		t.Fatalf("mapping still installed after SwapOut")
	}

	claim(t, deps, mmu, p)
	kva2, _, ok := mmu.Lookup(p.VA())
	if !ok {
		t.Fatalf("page not remapped after re-claim")
	}
	for i, b := range kva2 {
		if b != 0xAB {
			t.Fatalf("byte %d = %#x after swap-in round trip, want 0xab", i, b)
		}
	}
}

func TestUninitTransformsToAnonOnFirstClaim(t *testing.T) {
	deps, mmu := testDeps(t, 1, 1)
	init := func(buf *mem.Bytepg_t) defs.Err_t {
		buf[0] = 0x42
		return 0
	}
	p := NewUninit(deps, 0x8000, true, KindAnon, init, nil)
	if !p.IsUninit() {
		t.Fatalf("fresh uninit page reports IsUninit() == false")
	}
	if p.Kind() != KindAnon {
		t.Fatalf("Kind() = %s before claim, want the target kind anon", p.Kind())
	}

	claim(t, deps, mmu, p)
	if p.IsUninit() {
		t.Fatalf("page still reports IsUninit() after its first claim")
	}
	if p.Kind() != KindAnon {
		t.Fatalf("Kind() = %s after transform, want anon", p.Kind())
	}
	kva, _, _ := mmu.Lookup(p.VA())
	if kva[0] != 0x42 {
		t.Fatalf("initializer did not run against the claimed frame")
	}
}

func TestUninitTransformsToFileOnFirstClaim(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "page-file-test")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	content := make([]byte, 100)
	for i := range content {
		content[i] = byte(i)
	}
	if _, err := tmp.Write(content); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := fsfile.OpenOSFile(tmp.Name(), os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("OpenOSFile: %v", err)
	}
	defer f.Close()

	deps, mmu := testDeps(t, 1, 1)
	aux := FileAux{File: f, Offset: 0, ReadBytes: 100, ZeroBytes: mem.PGSIZE - 100, Length: 100}
	p := NewUninit(deps, 0xC000, false, KindFile, FileInitializer(aux), &aux)

	claim(t, deps, mmu, p)
	if p.Kind() != KindFile {
		t.Fatalf("Kind() = %s after claim, want file", p.Kind())
	}
	kva, _, _ := mmu.Lookup(p.VA())
	for i := 0; i < 100; i++ {
		if kva[i] != byte(i) {
			t.Fatalf("byte %d = %#x, want %#x (file contents)", i, kva[i], byte(i))
		}
	}
	for i := 100; i < mem.PGSIZE; i++ {
		if kva[i] != 0 {
			t.Fatalf("byte %d = %#x, want 0 (zero-fill tail)", i, kva[i])
		}
	}
}

func TestFileSwapOutWritesBackOnlyWhenDirty(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "page-file-writeback")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	original := make([]byte, 16)
	for i := range original {
		original[i] = 0xFF
	}
	if _, err := tmp.Write(original); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := fsfile.OpenOSFile(tmp.Name(), os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("OpenOSFile: %v", err)
	}
	defer f.Close()

	deps, mmu := testDeps(t, 1, 1)
	aux := FileAux{File: f, Offset: 0, ReadBytes: 16, ZeroBytes: mem.PGSIZE - 16, Length: 16}
	p := NewUninit(deps, 0x10000, true, KindFile, FileInitializer(aux), &aux)
	claim(t, deps, mmu, p)

	// Not dirty: SwapOut must not touch the file.
	if err := p.SwapOut(); err != nil {
		t.Fatalf("SwapOut (clean): %v", err)
	}
	buf := make([]byte, 16)
	if _, e := f.ReadAt(buf, 0); e != 0 {
		t.Fatalf("ReadAt: %s", e)
	}
	for i, b := range buf {
		if b != 0xFF {
			t.Fatalf("clean page's SwapOut modified the file at byte %d", i)
		}
	}

	claim(t, deps, mmu, p)
	kva, _, _ := mmu.Lookup(p.VA())
	mmu.MarkWrite(p.VA())
	kva[0] = 0xAA
	if err := p.SwapOut(); err != nil {
		t.Fatalf("SwapOut (dirty): %v", err)
	}
	if _, e := f.ReadAt(buf, 0); e != 0 {
		t.Fatalf("ReadAt: %s", e)
	}
	if buf[0] != 0xAA {
		t.Fatalf("dirty page's SwapOut did not write back byte 0: got %#x", buf[0])
	}
	for i := 1; i < 16; i++ {
		if buf[i] != 0xFF {
			t.Fatalf("dirty page's SwapOut clobbered byte %d: got %#x", i, buf[i])
		}
	}
}

func TestDestroyReleasesFrame(t *testing.T) {
	deps, mmu := testDeps(t, 1, 1)
	p := NewAnon(deps, 0x20000, true)
	claim(t, deps, mmu, p)
	p.Destroy()
	if p.Resident() {
		t.Fatalf("page still resident after Destroy")
	}
	if deps.Pool.Len() != 0 {
		t.Fatalf("Pool.Len() = %d after Destroy, want 0", deps.Pool.Len())
	}
}
