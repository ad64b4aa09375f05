package hashtable

import (
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"page"
)

// A hashtable with a lock-free Get(), keyed by page-aligned virtual
// address. Narrowed from the teacher's interface{}-keyed version: an
// SPT key is always a uintptr, so the key-type switch in khash is gone
// and the hash is just address-mixing instead of a per-type dispatch.

type elem_t struct {
	key     uintptr
	value   *page.Page
	keyHash uint32
	next    *elem_t
}

type bucket_t struct {
	sync.RWMutex
	first *elem_t
}

func (b *bucket_t) len() int {
	b.RLock()
	defer b.RUnlock()

	l := 0
	for e := b.first; e != nil; e = e.next {
		l++
	}
	return l
}

func (b *bucket_t) elems() []Pair_t {
	b.RLock()
	defer b.RUnlock()

	p := make([]Pair_t, 0)
	for e := b.first; e != nil; e = e.next {
		p = append(p, Pair_t{Key: e.key, Value: e.value})
	}
	return p
}

func (b *bucket_t) iter(f func(uintptr, *page.Page) bool) bool {
	for e := b.first; e != nil; e = loadptr(&e.next) {
		if f(e.key, e.value) {
			return true
		}
	}
	return false
}

// Hashtable_t maps virtual addresses to pages. It is protected
// internally by per-bucket locks; Get never takes one.
type Hashtable_t struct {
	table    []*bucket_t
	capacity int
	maxchain int
}

// MkHash allocates a new Hashtable_t with the given bucket count.
func MkHash(size int) *Hashtable_t {
	ht := &Hashtable_t{}
	ht.capacity = size
	ht.table = make([]*bucket_t, size)
	ht.maxchain = 1
	for i := range ht.table {
		ht.table[i] = &bucket_t{}
	}
	return ht
}

// String returns a formatted representation of the table contents.
func (ht *Hashtable_t) String() string {
	s := ""
	for i, b := range ht.table {
		if b.first != nil {
			s += fmt.Sprintf("b %d:\n", i)
			for e := b.first; e != nil; e = loadptr(&e.next) {
				s += fmt.Sprintf("(%#x), ", e.key)
			}
			s += "\n"
		}
	}
	return s
}

// Size returns the total number of elements stored in the table.
func (ht *Hashtable_t) Size() int {
	n := 0
	for _, b := range ht.table {
		n += b.len()
	}
	return n
}

// Pair_t represents a key/value tuple returned by Elems.
type Pair_t struct {
	Key   uintptr
	Value *page.Page
}

// Elems returns all key/value pairs currently stored.
func (ht *Hashtable_t) Elems() []Pair_t {
	p := make([]Pair_t, 0)
	for _, b := range ht.table {
		n := b.elems()
		if n != nil {
			p = append(p, n...)
		}
	}
	return p
}

// Get looks up va and returns its page, lock-free.
func (ht *Hashtable_t) Get(va uintptr) (*page.Page, bool) {
	kh := khash(va)
	b := ht.table[ht.hash(kh)]
	n := 0
	for e := loadptr(&b.first); e != nil; e = loadptr(&e.next) {
		if e.keyHash == kh && e.key == va {
			return e.value, true
		}
		n++
		if n > ht.maxchain {
			ht.maxchain = n
		}
	}
	return nil, false
}

// Set inserts a va/page pair, keeping each bucket's chain sorted by
// hash. Returns false without inserting if va is already present.
func (ht *Hashtable_t) Set(va uintptr, value *page.Page) (*page.Page, bool) {
	kh := khash(va)
	b := ht.table[ht.hash(kh)]
	b.Lock()
	defer b.Unlock()

	add := func(last *elem_t, b *bucket_t) {
		if last == nil {
			n := &elem_t{key: va, value: value, keyHash: kh, next: b.first}
			storeptr(&b.first, n)
		} else {
			n := &elem_t{key: va, value: value, keyHash: kh, next: last.next}
			storeptr(&last.next, n)
		}
	}

	var last *elem_t
	for e := b.first; e != nil; e = e.next {
		if e.keyHash == kh && e.key == va {
			return e.value, false
		}
		if kh < e.keyHash {
			add(last, b)
			return value, true
		}
		last = e
	}
	add(last, b)
	return value, true
}

// Del removes va from the table. Panics if va is not present, matching
// spt's own contract that Remove is only ever called on a known member.
func (ht *Hashtable_t) Del(va uintptr) {
	kh := khash(va)
	b := ht.table[ht.hash(kh)]
	b.Lock()
	defer b.Unlock()

	rem := func(last *elem_t, b *bucket_t, n *elem_t) {
		if last == nil {
			storeptr(&b.first, n.next)
		} else {
			storeptr(&last.next, n.next)
		}
	}

	var last *elem_t
	for e := b.first; e != nil; e = e.next {
		if e.keyHash == kh && e.key == va {
			rem(last, b, e)
			return
		}
		if kh < e.keyHash {
			panic("del of non-existing key")
		}
		last = e
	}
	panic("del of non-existing key")
}

// Iter applies f to each key/value pair until f returns true.
func (ht *Hashtable_t) Iter(f func(uintptr, *page.Page) bool) bool {
	for _, b := range ht.table {
		if b.iter(f) {
			return true
		}
	}
	return false
}

func (ht *Hashtable_t) hash(keyHash uint32) int {
	return int(keyHash % uint32(len(ht.table)))
}

// Without an explicit memory model, it is hard to know if this code is
// correct. LoadPointer/StorePointer don't issue a memory fence, but for
// traversing pointers in Get() and updating them in Set()/Del(), this
// might be ok on x86. The Go compiler also hopefully doesn't reorder
// loads wrt. LoadPointer.
func loadptr(e **elem_t) *elem_t {
	ptr := (*unsafe.Pointer)(unsafe.Pointer(e))
	p := atomic.LoadPointer(ptr)
	n := (*elem_t)(unsafe.Pointer(p))
	return n
}

func storeptr(p **elem_t, n *elem_t) {
	ptr := (*unsafe.Pointer)(unsafe.Pointer(p))
	v := (unsafe.Pointer)(n)
	atomic.StorePointer(ptr, v)
}

func khash(va uintptr) uint32 {
	h := uint32(va>>12) ^ uint32(va>>32)
	return uint32(2654435761) * h
}
