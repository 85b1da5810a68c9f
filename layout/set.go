package layout

import "golang.org/x/exp/slices"

// orderedSet is a map that remembers insertion order.
type orderedSet[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

func (s *orderedSet[K, V]) get(k K) (V, bool) {
	v, ok := s.values[k]
	return v, ok
}

func (s *orderedSet[K, V]) has(k K) bool {
	_, ok := s.values[k]
	return ok
}

func (s *orderedSet[K, V]) add(k K, v V) {
	if s.values == nil {
		s.values = map[K]V{}
	}
	if _, ok := s.values[k]; ok {
		panic("duplicate key")
	}
	s.keys = append(s.keys, k)
	s.values[k] = v
}

func (s *orderedSet[K, V]) remove(k K) {
	if _, ok := s.values[k]; !ok {
		return
	}
	delete(s.values, k)
	i := slices.Index(s.keys, k)
	s.keys = slices.Delete(s.keys, i, i+1)
}

func (s *orderedSet[K, V]) len() int {
	return len(s.keys)
}

func (s *orderedSet[K, V]) list() []V {
	vs := make([]V, len(s.keys))
	for i, k := range s.keys {
		vs[i] = s.values[k]
	}
	return vs
}
