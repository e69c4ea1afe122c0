// Package chainmap provides a generic hashmap implementation
// which keeps all entries on a single forward-iterable chain,
// grouped contiguously by bucket, while a directory addresses
// the head of every bucket's group. Lookup, insertion and deletion
// are O(1) on average and the table resizes automatically to keep
// the load factor between 0.1 and 0.5.
// Any custom hasher can be provided during initialization.
// By default, XXH3 from github.com/zeebo/xxh3 is used for string
// keys and hash/maphash for any other comparable key type.
package chainmap

import (
	"errors"
	"hash/maphash"
	stdmath "math"

	"github.com/google/go-cmp/cmp"
	"github.com/graph-guard/chainmap/math"
	"github.com/pierrec/xxHash/xxHash64"
	"github.com/zeebo/xxh3"
)

const (
	initCapacity = 16
	maxRatio     = 0.5
	minRatio     = 0.1
	growFactor   = 2
)

// nilPos is the empty directory slot and the end of the chain.
const nilPos = -1

// ErrNotFound is returned by At for absent keys.
var ErrNotFound = errors.New("key not found")

// Hasher turns a key into a 64-bit hash value.
// Implementations must be pure: equal keys hash equally.
type Hasher[K comparable] interface{ Hash(K) uint64 }

// HasherXXH3 hashes string keys with XXH3 and
// can be used to provide custom seeds during initialization.
type HasherXXH3 struct {
	Seed uint64
}

// Hash hashes k to a 64-bit hash value.
func (h *HasherXXH3) Hash(k string) uint64 {
	return xxh3.HashStringSeed(k, h.Seed)
}

// HasherXXH64 hashes string keys with XXH64
// from github.com/pierrec/xxHash.
type HasherXXH64 struct {
	Seed uint64
}

// Hash hashes k to a 64-bit hash value.
func (h *HasherXXH64) Hash(k string) uint64 {
	return xxHash64.Checksum([]byte(k), h.Seed)
}

// HasherComparable hashes any comparable key with hash/maphash.
// The zero value uses an unseeded hash; maps that are expected
// to compare or exchange entries must share a seed.
type HasherComparable[K comparable] struct {
	Seed maphash.Seed
}

// Hash hashes k to a 64-bit hash value.
func (h *HasherComparable[K]) Hash(k K) uint64 {
	return maphash.Comparable(h.Seed, k)
}

var (
	defaultHasherString = &HasherXXH3{}
	defaultSeed         = maphash.MakeSeed()
)

func defaultHasher[K comparable]() Hasher[K] {
	var zeroKey K
	if _, ok := any(zeroKey).(string); ok {
		return any(defaultHasherString).(Hasher[K])
	}
	return &HasherComparable[K]{Seed: defaultSeed}
}

// Pair is a key-value pair.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

type entry[K comparable, V any] struct {
	key        K
	value      V
	prev, next int
}

// Map is backed by an entry arena forming a single doubly-linked
// chain and a directory of arena positions, one per bucket.
// Entries sharing a bucket are kept contiguous on the chain and
// the directory addresses the first entry of each bucket's group.
//
// Map is not safe for concurrent use.
type Map[K comparable, V any] struct {
	size   int
	arena  []entry[K, V]
	free   []int
	head   int
	tail   int
	dir    []int
	hasher Hasher[K]
}

// New creates a new empty map instance with 16 buckets.
// A nil hasher selects the default hasher for K.
func New[K comparable, V any](hasher Hasher[K]) *Map[K, V] {
	if hasher == nil {
		hasher = defaultHasher[K]()
	}
	return &Map[K, V]{
		head:   nilPos,
		tail:   nilPos,
		dir:    emptyDir(initCapacity),
		hasher: hasher,
	}
}

// FromPairs creates a map holding every pair of pairs, rehashed once
// at the minimal capacity sufficient for the pair count.
// Pairs are copied verbatim: duplicate keys are not filtered out and
// every occurrence counts toward Len. The rehash splices each entry
// in front of its bucket's group, so the latest occurrence of a
// duplicated key shadows the earlier ones on lookup. Callers wanting
// set-like semantics must deduplicate first or use New and Insert.
func FromPairs[K comparable, V any](
	pairs []Pair[K, V],
	hasher Hasher[K],
) *Map[K, V] {
	m := New[K, V](hasher)
	for i := range pairs {
		m.spliceBefore(nilPos, pairs[i].Key, pairs[i].Value)
	}
	m.size = len(pairs)
	m.rehash(minCapacity(len(pairs)))
	return m
}

// minCapacity is the smallest bucket count keeping size
// below the maximum load factor, never below the initial 16.
func minCapacity(size int) int {
	return math.Max(
		int(stdmath.Ceil(float64(size)/maxRatio+1)),
		initCapacity,
	)
}

func emptyDir(capacity int) []int {
	d := make([]int, capacity)
	for i := range d {
		d[i] = nilPos
	}
	return d
}

// Clone returns an independent copy of m rebuilt at the minimal
// capacity sufficient for its size.
func (m *Map[K, V]) Clone() *Map[K, V] {
	return FromPairs(m.Pairs(), m.hasher)
}

// Assign replaces the contents of m with a copy of src's entries
// and hasher. Unlike Clone, the rebuild happens at src's current
// bucket count, carrying its capacity over verbatim.
func (m *Map[K, V]) Assign(src *Map[K, V]) {
	pairs := src.Pairs()
	capacity := src.Cap()
	m.hasher = src.hasher
	m.size = len(pairs)
	m.arena, m.free = nil, nil
	m.head, m.tail = nilPos, nilPos
	for i := range pairs {
		m.spliceBefore(nilPos, pairs[i].Key, pairs[i].Value)
	}
	m.rehash(capacity)
}

// Len returns the number of stored entries.
func (m *Map[K, V]) Len() int { return m.size }

// Empty reports whether the map holds no entries.
func (m *Map[K, V]) Empty() bool { return m.size == 0 }

// Cap returns the current number of buckets.
func (m *Map[K, V]) Cap() int { return len(m.dir) }

// Hasher returns the hash function the map was initialized with.
func (m *Map[K, V]) Hasher() Hasher[K] { return m.hasher }

func (m *Map[K, V]) bucket(key K) int {
	return int(m.hasher.Hash(key) % uint64(len(m.dir)))
}

// find returns the arena position of key, or nilPos.
// Only the contiguous group of key's bucket is scanned,
// starting at the directory head.
func (m *Map[K, V]) find(key K) int {
	b := m.bucket(key)
	for i := m.dir[b]; i != nilPos; i = m.arena[i].next {
		if m.bucket(m.arena[i].key) != b {
			break
		}
		if m.arena[i].key == key {
			return i
		}
	}
	return nilPos
}

// Get returns (value, true) if key exists,
// otherwise returns (zeroValue, false).
func (m *Map[K, V]) Get(key K) (value V, ok bool) {
	if i := m.find(key); i != nilPos {
		return m.arena[i].value, true
	}
	return value, false
}

// GetFn calls fn providing a pointer to the value for in-place
// mutation and returns true if key exists, otherwise returns false
// without calling fn. fn must not mutate the map itself.
func (m *Map[K, V]) GetFn(key K, fn func(*V)) (ok bool) {
	if i := m.find(key); i != nilPos {
		fn(&m.arena[i].value)
		return true
	}
	return false
}

// At returns the value associated with key or ErrNotFound if the
// key is absent. The map is never modified.
func (m *Map[K, V]) At(key K) (V, error) {
	if i := m.find(key); i != nilPos {
		return m.arena[i].value, nil
	}
	var zeroValue V
	return zeroValue, ErrNotFound
}

// Ref returns a pointer to the value associated with key,
// first inserting a zero value if the key is absent.
// The pointer stays valid until the next structural change.
func (m *Map[K, V]) Ref(key K) *V {
	i := m.find(key)
	if i == nilPos {
		var zeroValue V
		m.insert(key, zeroValue)
		i = m.find(key)
	}
	return &m.arena[i].value
}

// Insert associates key with value. If the key is already present
// the map is left unchanged and the existing value is kept.
func (m *Map[K, V]) Insert(key K, value V) {
	if m.find(key) != nilPos {
		return
	}
	m.insert(key, value)
}

// insert splices a new entry in front of its bucket's group and
// repoints the directory at it, growing the table when the load
// factor exceeds maxRatio. The key must not be present.
func (m *Map[K, V]) insert(key K, value V) {
	m.size++
	b := m.bucket(key)
	m.dir[b] = m.spliceBefore(m.dir[b], key, value)
	if float64(m.size)/maxRatio > float64(len(m.dir)) {
		m.rehash(len(m.dir) * growFactor)
	}
}

// Delete deletes the key if it exists, shrinking the table when
// the load factor drops below minRatio (never below 16 buckets).
// Noop if the key doesn't exist.
func (m *Map[K, V]) Delete(key K) {
	i := m.find(key)
	if i == nilPos {
		return
	}
	m.size--
	b := m.bucket(key)
	if m.dir[b] == i {
		next := m.arena[i].next
		if next == nilPos || m.bucket(m.arena[next].key) != b {
			m.dir[b] = nilPos
		} else {
			m.dir[b] = next
		}
	}
	m.unlink(i)
	if float64(m.size)/minRatio < float64(len(m.dir)) &&
		len(m.dir) > initCapacity {
		m.rehash(math.Max(len(m.dir)/growFactor, initCapacity))
	}
}

// Reset drops all entries and resets the bucket count back to the
// initial 16, discarding any grow/shrink history.
func (m *Map[K, V]) Reset() {
	m.size = 0
	// Drop the backing arrays so old keys and values
	// don't outlive their entries.
	m.arena, m.free = nil, nil
	m.head, m.tail = nilPos, nilPos
	m.dir = emptyDir(initCapacity)
}

// Visit calls fn for every entry in chain order.
// Returns immediately if fn returns true.
// fn must not mutate the map.
func (m *Map[K, V]) Visit(fn func(key K, value V) (stop bool)) {
	for i := m.head; i != nilPos; i = m.arena[i].next {
		if fn(m.arena[i].key, m.arena[i].value) {
			break
		}
	}
}

// VisitAll calls fn for every entry in chain order.
// fn must not mutate the map.
func (m *Map[K, V]) VisitAll(fn func(key K, value V)) {
	for i := m.head; i != nilPos; i = m.arena[i].next {
		fn(m.arena[i].key, m.arena[i].value)
	}
}

// VisitRef calls fn for every entry in chain order providing a
// pointer to the value for in-place mutation.
// Returns immediately if fn returns true.
// fn must not mutate the map structurally.
func (m *Map[K, V]) VisitRef(fn func(key K, value *V) (stop bool)) {
	for i := m.head; i != nilPos; i = m.arena[i].next {
		if fn(m.arena[i].key, &m.arena[i].value) {
			break
		}
	}
}

// Values returns all map values in chain order.
func (m *Map[K, V]) Values() (values []V) {
	m.VisitAll(func(key K, value V) {
		values = append(values, value)
	})
	return
}

// Pairs returns all entries in chain order.
func (m *Map[K, V]) Pairs() []Pair[K, V] {
	pairs := make([]Pair[K, V], 0, m.size)
	m.VisitAll(func(key K, value V) {
		pairs = append(pairs, Pair[K, V]{Key: key, Value: value})
	})
	return pairs
}

// Equal reports whether m and mm associate the same keys with equal
// values. Values are compared with go-cmp. Bucket count and entry
// order are not compared.
func (m *Map[K, V]) Equal(mm *Map[K, V]) bool {
	if m.size != mm.size {
		return false
	}
	equal := true
	m.Visit(func(key K, value V) (stop bool) {
		v, ok := mm.Get(key)
		if !ok || !cmp.Equal(value, v) {
			equal = false
			return true
		}
		return false
	})
	return equal
}

// spliceBefore links a new entry immediately before pos, or at the
// chain tail if pos is nilPos, and returns its arena position.
// The directory and size are left untouched.
func (m *Map[K, V]) spliceBefore(pos int, key K, value V) int {
	var at int
	if n := len(m.free); n > 0 {
		at = m.free[n-1]
		m.free = m.free[:n-1]
		m.arena[at] = entry[K, V]{key: key, value: value}
	} else {
		at = len(m.arena)
		m.arena = append(m.arena, entry[K, V]{key: key, value: value})
	}
	e := &m.arena[at]
	if pos == nilPos {
		e.prev, e.next = m.tail, nilPos
		if m.tail != nilPos {
			m.arena[m.tail].next = at
		} else {
			m.head = at
		}
		m.tail = at
	} else {
		p := m.arena[pos].prev
		e.prev, e.next = p, pos
		m.arena[pos].prev = at
		if p != nilPos {
			m.arena[p].next = at
		} else {
			m.head = at
		}
	}
	return at
}

// unlink removes the entry at arena position i from the chain and
// recycles its slot.
func (m *Map[K, V]) unlink(i int) {
	p, n := m.arena[i].prev, m.arena[i].next
	if p != nilPos {
		m.arena[p].next = n
	} else {
		m.head = n
	}
	if n != nilPos {
		m.arena[n].prev = p
	} else {
		m.tail = p
	}
	// Release key/value references for the GC.
	m.arena[i] = entry[K, V]{prev: nilPos, next: nilPos}
	m.free = append(m.free, i)
}

// rehash rebuilds arena, chain and directory at the given bucket
// count, splicing every entry of the old chain, in its existing
// order, in front of its new bucket's group.
func (m *Map[K, V]) rehash(capacity int) {
	oldArena, oldHead := m.arena, m.head
	m.arena = make([]entry[K, V], 0, m.size)
	m.free = nil
	m.head, m.tail = nilPos, nilPos
	m.dir = emptyDir(capacity)
	for i := oldHead; i != nilPos; i = oldArena[i].next {
		b := m.bucket(oldArena[i].key)
		m.dir[b] = m.spliceBefore(m.dir[b], oldArena[i].key, oldArena[i].value)
	}
}
