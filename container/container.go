// Package container declares the interface shared by all map
// implementations in this module.
package container

type Mapper[K comparable, V any] interface {
	// Insert keeps any existing association for the key.
	Insert(K, V)
	Get(K) (v V, ok bool)
	Delete(K)
	Reset()
	Len() int
	Visit(func(K, V) (stop bool))
}
