package kv

// KVS is a concurrent key value store.
type KVS[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Range(func(key K, value V) bool)
	Len() int

	Close()
}
