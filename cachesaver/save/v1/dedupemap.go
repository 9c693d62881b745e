package savev1

type uniqueMap[K comparable] struct {
	m map[K]int
	i int
}

func newUniqueMap[K comparable]() *uniqueMap[K] {
	return &uniqueMap[K]{
		m: make(map[K]int),
		i: 0,
	}
}

func (uq *uniqueMap[K]) Add(val K) int {
	i, ok := uq.m[val]
	if !ok {
		uq.m[val] = uq.i
		uq.i++
		return uq.i - 1
	}
	return i
}

func (uq *uniqueMap[K]) Slice() []K {
	s := make([]K, uq.i)
	for k, v := range uq.m {
		s[v] = k
	}
	return s
}
