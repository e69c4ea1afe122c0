// package gomap provides a container.Mapper implementation
// backed by Go's native map for benchmark reference.
package gomap

type Gomap[K comparable, V any] struct {
	m map[K]V
}

func New[K comparable, V any](capacity int) *Gomap[K, V] {
	return &Gomap[K, V]{
		m: make(map[K]V, capacity),
	}
}

func (m *Gomap[K, V]) Insert(key K, value V) {
	if _, ok := m.m[key]; !ok {
		m.m[key] = value
	}
}

func (m *Gomap[K, V]) Delete(key K) {
	delete(m.m, key)
}

func (m *Gomap[K, V]) Get(key K) (v V, ok bool) {
	v, ok = m.m[key]
	return v, ok
}

func (m *Gomap[K, V]) Reset() {
	m.m = make(map[K]V)
}

func (m *Gomap[K, V]) Len() int {
	return len(m.m)
}

func (m *Gomap[K, V]) Visit(fn func(K, V) bool) {
	for k, v := range m.m {
		if fn(k, v) {
			break
		}
	}
}
