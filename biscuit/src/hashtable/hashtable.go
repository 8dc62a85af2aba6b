// Package hashtable implements a chaining hash table whose chain nodes are
// embedded in the stored records instead of separately allocated, mirroring
// the intrusive hash_elem technique used by a classic teaching kernel's
// lib/kernel/hash.c: callers own the storage, the table only threads it
// onto a chain.
package hashtable

import (
	"fmt"
	"sync"
)

// / Elem is the intrusive link every record stored in a Table embeds.
// / A zero Elem is ready to use.
type Elem struct {
	next *Elem
	hash uint64
	self interface{}
}

func (e *Elem) String() string {
	return fmt.Sprintf("elem(%v)", e.self)
}

type bucket_t struct {
	sync.RWMutex
	first *Elem
}

// / Table_t is a fixed-bucket-count hash table keyed by a caller-supplied
// / hash/equality pair. Unlike a map of interfaces, the chain nodes are
// / the Elem fields embedded in the caller's own records: inserting an
// / element performs no allocation beyond what the caller already did.
type Table_t struct {
	buckets []bucket_t
	hashfn  func(interface{}) uint64
	eqfn    func(a, b interface{}) bool

	mu   sync.Mutex
	size int
}

// / MkTable allocates a table with nbuckets chains, using hashfn/eqfn to
// / hash and compare caller-supplied keys.
func MkTable(nbuckets int, hashfn func(interface{}) uint64, eqfn func(a, b interface{}) bool) *Table_t {
	if nbuckets <= 0 {
		panic("bad bucket count")
	}
	t := &Table_t{
		buckets: make([]bucket_t, nbuckets),
		hashfn:  hashfn,
		eqfn:    eqfn,
	}
	return t
}

func (t *Table_t) bucketFor(h uint64) *bucket_t {
	return &t.buckets[h%uint64(len(t.buckets))]
}

// / Find looks up key and returns the previously inserted element (the
// / value handed to Insert), or nil if absent.
func (t *Table_t) Find(key interface{}) interface{} {
	h := t.hashfn(key)
	b := t.bucketFor(h)
	b.RLock()
	defer b.RUnlock()
	for e := b.first; e != nil; e = e.next {
		if e.hash == h && t.eqfn(key, e.self) {
			return e.self
		}
	}
	return nil
}

// / Insert links elem (via its embedded *Elem, supplied by link) into
// / the table under key. If an element already occupies key, Insert
// / does not replace it and returns the existing element; otherwise it
// / returns nil.
func (t *Table_t) Insert(key interface{}, elem interface{}, link *Elem) interface{} {
	h := t.hashfn(key)
	b := t.bucketFor(h)
	b.Lock()
	defer b.Unlock()
	for e := b.first; e != nil; e = e.next {
		if e.hash == h && t.eqfn(key, e.self) {
			return e.self
		}
	}
	link.hash = h
	link.self = elem
	link.next = b.first
	b.first = link
	t.mu.Lock()
	t.size++
	t.mu.Unlock()
	return nil
}

// / Replace is like Insert but swaps in elem even if key is already
// / present, returning the element it displaced (or nil).
func (t *Table_t) Replace(key interface{}, elem interface{}, link *Elem) interface{} {
	h := t.hashfn(key)
	b := t.bucketFor(h)
	b.Lock()
	defer b.Unlock()
	var prev *Elem
	for e := b.first; e != nil; e = e.next {
		if e.hash == h && t.eqfn(key, e.self) {
			old := e.self
			link.hash = h
			link.self = elem
			link.next = e.next
			if prev == nil {
				b.first = link
			} else {
				prev.next = link
			}
			return old
		}
		prev = e
	}
	link.hash = h
	link.self = elem
	link.next = b.first
	b.first = link
	t.mu.Lock()
	t.size++
	t.mu.Unlock()
	return nil
}

// / Delete removes key from the table, returning the removed element
// / or nil if key was not present.
func (t *Table_t) Delete(key interface{}) interface{} {
	h := t.hashfn(key)
	b := t.bucketFor(h)
	b.Lock()
	defer b.Unlock()
	var prev *Elem
	for e := b.first; e != nil; e = e.next {
		if e.hash == h && t.eqfn(key, e.self) {
			if prev == nil {
				b.first = e.next
			} else {
				prev.next = e.next
			}
			e.next = nil
			t.mu.Lock()
			t.size--
			t.mu.Unlock()
			return e.self
		}
		prev = e
	}
	return nil
}

// / Size returns the number of elements currently stored.
func (t *Table_t) Size() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.size
}

// / Empty reports whether the table holds no elements.
func (t *Table_t) Empty() bool {
	return t.Size() == 0
}

// / Iter visits every element exactly once in an unspecified order.
// / The table must not be mutated concurrently with a traversal.
func (t *Table_t) Iter(f func(elem interface{})) {
	for i := range t.buckets {
		b := &t.buckets[i]
		for e := b.first; e != nil; e = e.next {
			f(e.self)
		}
	}
}

// / Clear invokes action on every element and then empties the table;
// / the bucket array remains allocated and the table stays usable.
func (t *Table_t) Clear(action func(elem interface{})) {
	for i := range t.buckets {
		b := &t.buckets[i]
		b.Lock()
		for e := b.first; e != nil; {
			n := e.next
			e.next = nil
			if action != nil {
				action(e.self)
			}
			e = n
		}
		b.first = nil
		b.Unlock()
	}
	t.mu.Lock()
	t.size = 0
	t.mu.Unlock()
}

// / Destroy is like Clear but additionally releases the bucket array;
// / the table must not be used afterward.
func (t *Table_t) Destroy(action func(elem interface{})) {
	t.Clear(action)
	t.buckets = nil
}
