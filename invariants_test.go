package chainmap

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

type identHasher struct{}

func (identHasher) Hash(k int) uint64 { return uint64(k) }

// checkInvariants verifies the structural contracts of the map:
// chain link symmetry, size accounting, bucket group contiguity
// and directory heads.
func checkInvariants[K comparable, V any](t *testing.T, m *Map[K, V]) {
	t.Helper()

	n, prev := 0, nilPos
	for i := m.head; i != nilPos; i = m.arena[i].next {
		require.Equal(t, prev, m.arena[i].prev)
		prev = i
		n++
		require.LessOrEqual(t, n, len(m.arena), "chain cycle")
	}
	require.Equal(t, prev, m.tail)
	require.Equal(t, m.size, n)
	require.Equal(t, m.size, len(m.arena)-len(m.free))

	// Every bucket's entries must form exactly one contiguous
	// group on the chain, headed by the directory slot.
	seen := make(map[int]bool, len(m.dir))
	last := nilPos
	for i := m.head; i != nilPos; i = m.arena[i].next {
		b := m.bucket(m.arena[i].key)
		if b == last {
			continue
		}
		require.False(t, seen[b], "bucket %d split into two groups", b)
		seen[b] = true
		require.Equal(t, i, m.dir[b], "directory head of bucket %d", b)
		last = b
	}
	for b := range m.dir {
		if !seen[b] {
			require.Equal(t, nilPos, m.dir[b], "empty bucket %d", b)
		}
	}
}

func checkLoadFactor[K comparable, V any](
	t *testing.T, m *Map[K, V], afterDelete bool,
) {
	t.Helper()
	lf := float64(m.size) / float64(len(m.dir))
	require.LessOrEqual(t, lf, maxRatio)
	if afterDelete && len(m.dir) > initCapacity {
		require.GreaterOrEqual(t, lf, minRatio)
	}
}

func TestBucketGroups(t *testing.T) {
	m := New[int, int](identHasher{})

	// 1, 17 and 33 all land in bucket 1 at 16 buckets.
	m.Insert(1, 100)
	m.Insert(17, 1700)
	m.Insert(33, 3300)
	m.Insert(2, 200)
	checkInvariants(t, m)

	// New entries become the head of their bucket's group.
	keys := []int{}
	m.VisitAll(func(k, v int) { keys = append(keys, k) })
	require.Equal(t, []int{33, 17, 1, 2}, keys)
	require.Equal(t, m.find(33), m.dir[1])

	// Removing a group's inner entry keeps the head.
	m.Delete(17)
	checkInvariants(t, m)
	require.Equal(t, m.find(33), m.dir[1])

	// Removing the head advances the directory.
	m.Delete(33)
	checkInvariants(t, m)
	require.Equal(t, m.find(1), m.dir[1])

	// Removing the last entry empties the bucket.
	m.Delete(1)
	checkInvariants(t, m)
	require.Equal(t, nilPos, m.dir[1])
}

func TestRehashRegroups(t *testing.T) {
	m := New[int, int](identHasher{})
	// 5 and 21 collide at 16 buckets but separate at 32.
	m.Insert(5, 50)
	m.Insert(21, 210)
	for i := 100; i < 107; i++ {
		m.Insert(i, i)
	}
	require.Equal(t, 32, len(m.dir))
	checkInvariants(t, m)
	require.Equal(t, m.find(5), m.dir[5])
	require.Equal(t, m.find(21), m.dir[21])
}

func TestInvariantsRandomized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	m := New[int, int](nil)
	live := map[int]int{}

	for i := 0; i < 5000; i++ {
		k := rng.Intn(256)
		switch op := rng.Intn(10); {
		case op < 4:
			m.Insert(k, i)
			if _, ok := live[k]; !ok {
				live[k] = i
			}
			checkLoadFactor(t, m, false)
		case op < 7:
			m.Delete(k)
			delete(live, k)
			checkLoadFactor(t, m, true)
		case op < 8:
			*m.Ref(k) = i
			live[k] = i
		case op < 9:
			v, ok := m.Get(k)
			want, wantOK := live[k]
			require.Equal(t, wantOK, ok)
			if wantOK {
				require.Equal(t, want, v)
			}
		default:
			if rng.Intn(50) == 0 {
				m.Reset()
				live = map[int]int{}
			}
		}
		require.Equal(t, len(live), m.Len())
		checkInvariants(t, m)
	}

	for k, v := range live {
		got, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, v, got)
	}
}
