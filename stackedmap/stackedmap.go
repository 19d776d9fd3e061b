// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap

// StackedMap maintains maps in a stack.
// Each map inherits key/value of map that is at lower level.
// It acts as a map with save-restore/snapshot-revert manner, and
// can be read as of any depth still on the stack.
type StackedMap[K comparable, V any] struct {
	src    MapGetter[K, V]
	levels []*level[K, V]
	// ascending level indexes where the key was put
	keyRevisionMap map[K][]int
}

type level[K comparable, V any] struct {
	kvs     map[K]V
	journal []journalEntry[K, V]
}

type journalEntry[K comparable, V any] struct {
	key   K
	value V
}

// MapGetter defines getter method of map.
type MapGetter[K comparable, V any] func(key K) (value V, exist bool, err error)

// New create an instance of StackedMap.
// src acts as source of data, it may be nil.
func New[K comparable, V any](src MapGetter[K, V]) *StackedMap[K, V] {
	return &StackedMap[K, V]{
		src:            src,
		keyRevisionMap: make(map[K][]int),
	}
}

// Depth returns depth of stack.
func (sm *StackedMap[K, V]) Depth() int {
	return len(sm.levels)
}

// Push pushes a new map on stack.
// It returns stack depth before push.
func (sm *StackedMap[K, V]) Push() int {
	sm.levels = append(sm.levels, &level[K, V]{kvs: make(map[K]V)})
	return len(sm.levels) - 1
}

// Pop pop the map at top of stack.
// It will revert all Put operations since last Push.
func (sm *StackedMap[K, V]) Pop() {
	top := sm.levels[len(sm.levels)-1]
	for key := range top.kvs {
		revs := sm.keyRevisionMap[key]
		if len(revs) <= 1 {
			delete(sm.keyRevisionMap, key)
		} else {
			sm.keyRevisionMap[key] = revs[:len(revs)-1]
		}
	}
	sm.levels[len(sm.levels)-1] = nil
	sm.levels = sm.levels[:len(sm.levels)-1]
}

// PopTo pop maps until stack depth reaches depth.
func (sm *StackedMap[K, V]) PopTo(depth int) {
	for len(sm.levels) > depth {
		sm.Pop()
	}
}

// Get gets value for given key.
// The second return value indicates whether the given key is found.
func (sm *StackedMap[K, V]) Get(key K) (V, bool, error) {
	if v, ok := sm.GetAt(key, len(sm.levels)); ok {
		return v, true, nil
	}
	if sm.src == nil {
		var zero V
		return zero, false, nil
	}
	return sm.src(key)
}

// GetAt looks up key in the lowest depth levels only, without consulting the source.
func (sm *StackedMap[K, V]) GetAt(key K, depth int) (V, bool) {
	revs := sm.keyRevisionMap[key]
	for i := len(revs) - 1; i >= 0; i-- {
		if revs[i] < depth {
			v, ok := sm.levels[revs[i]].kvs[key]
			return v, ok
		}
	}
	var zero V
	return zero, false
}

// Put puts key value into map at stack top.
// It will panic if stack is empty.
func (sm *StackedMap[K, V]) Put(key K, value V) {
	rev := len(sm.levels) - 1
	top := sm.levels[rev]
	top.kvs[key] = value
	top.journal = append(top.journal, journalEntry[K, V]{key, value})

	// records key revision for fast access
	revs := sm.keyRevisionMap[key]
	if len(revs) == 0 || revs[len(revs)-1] != rev {
		sm.keyRevisionMap[key] = append(revs, rev)
	}
}

// Journal traverses journal of Put operations in the lowest depth levels.
// A negative depth means the whole stack. Traversal stops when cb returns false.
func (sm *StackedMap[K, V]) Journal(depth int, cb func(key K, value V) bool) {
	if depth < 0 || depth > len(sm.levels) {
		depth = len(sm.levels)
	}
	for _, lvl := range sm.levels[:depth] {
		for _, entry := range lvl.journal {
			if !cb(entry.key, entry.value) {
				return
			}
		}
	}
}
