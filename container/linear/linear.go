// package linear provides a container.Mapper implementation
// backed by a slice and linear search for benchmark reference.
package linear

type bucket[K comparable, V any] struct {
	Key   K
	Value V
}

type Linear[K comparable, V any] struct {
	d []bucket[K, V]
}

func New[K comparable, V any](capacity int) *Linear[K, V] {
	return &Linear[K, V]{
		d: make([]bucket[K, V], 0, capacity),
	}
}

func (m *Linear[K, V]) Insert(key K, value V) {
	for i := 0; i < len(m.d); i++ {
		if m.d[i].Key == key {
			return
		}
	}
	m.d = append(m.d, bucket[K, V]{
		Key:   key,
		Value: value,
	})
}

func (m *Linear[K, V]) Delete(key K) {
	for i := 0; i < len(m.d); i++ {
		if m.d[i].Key == key {
			m.d[i] = m.d[len(m.d)-1]
			m.d = m.d[:len(m.d)-1]
			return
		}
	}
}

func (m *Linear[K, V]) Get(key K) (v V, ok bool) {
	for i := 0; i < len(m.d); i++ {
		if m.d[i].Key == key {
			return m.d[i].Value, true
		}
	}
	return v, false
}

func (m *Linear[K, V]) Reset() {
	m.d = m.d[:0]
}

func (m *Linear[K, V]) Len() int {
	return len(m.d)
}

func (m *Linear[K, V]) Visit(fn func(K, V) bool) {
	for i := 0; i < len(m.d); i++ {
		if fn(m.d[i].Key, m.d[i].Value) {
			break
		}
	}
}
