// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package stackedmap_test

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/assert"

	"github.com/vechain/devnode/stackedmap"
)

func M(a ...any) []any {
	return a
}

func TestStackedMap(t *testing.T) {
	assert := assert.New(t)
	src := map[string]string{"foo": "bar"}

	sm := stackedmap.New(func(key string) (string, bool, error) {
		v, r := src[key]
		return v, r, nil
	})

	tests := []struct {
		f         func()
		depth     int
		putKey    string
		putValue  string
		getKey    string
		getReturn []any
	}{
		{func() { sm.Push() }, 1, "", "", "foo", []any{"bar", true, nil}},
		{func() { sm.Push() }, 2, "foo", "baz", "foo", []any{"baz", true, nil}},
		{func() {}, 2, "foo", "baz1", "foo", []any{"baz1", true, nil}},
		{func() { sm.Push() }, 3, "foo", "qux", "foo", []any{"qux", true, nil}},
		{func() { sm.Pop() }, 2, "", "", "foo", []any{"baz1", true, nil}},
		{func() { sm.Pop() }, 1, "", "", "foo", []any{"bar", true, nil}},

		{func() { sm.Push(); sm.Push() }, 3, "", "", "", nil},
		{func() { sm.PopTo(0) }, 0, "", "", "", nil},
	}

	for _, test := range tests {
		test.f()
		assert.Equal(test.depth, sm.Depth())
		if test.putKey != "" {
			sm.Put(test.putKey, test.putValue)
		}
		if test.getKey != "" {
			assert.Equal(test.getReturn, M(sm.Get(test.getKey)))
		}
	}
}

func TestGetAt(t *testing.T) {
	sm := stackedmap.New[string, int](nil)

	sm.Push()
	sm.Put("a", 1)
	sm.Push()
	sm.Put("a", 2)
	sm.Put("b", 3)
	sm.Push()
	sm.Put("a", 4)

	for _, tt := range []struct {
		key   string
		depth int
		want  int
		found bool
	}{
		{"a", 0, 0, false},
		{"a", 1, 1, true},
		{"a", 2, 2, true},
		{"a", 3, 4, true},
		{"b", 1, 0, false},
		{"b", 3, 3, true},
		{"c", 3, 0, false},
	} {
		v, ok := sm.GetAt(tt.key, tt.depth)
		assert.Equal(t, tt.found, ok, "%s@%d", tt.key, tt.depth)
		assert.Equal(t, tt.want, v, "%s@%d", tt.key, tt.depth)
	}

	v, ok, err := sm.Get("c")
	assert.Nil(t, err)
	assert.False(t, ok)
	assert.Zero(t, v)
}

func TestStackedMapPuts(t *testing.T) {
	assert := assert.New(t)
	sm := stackedmap.New[string, string](nil)

	kvs := []struct {
		k, v string
	}{
		{"a", "b"},
		{"a", "b"},
		{"a1", "b1"},
		{"a2", "b2"},
		{"a3", "b3"},
		{"a4", "b4"},
	}

	for _, kv := range kvs {
		sm.Push()
		sm.Put(kv.k, kv.v)
	}
	i := 0
	sm.Journal(-1, func(k, v string) bool {
		assert.Equal(kvs[i].k, k)
		assert.Equal(kvs[i].v, v)
		i++
		return true
	})
	assert.Equal(len(kvs), i)

	i = 0
	sm.Journal(2, func(string, string) bool {
		i++
		return true
	})
	assert.Equal(2, i)

	i = 0
	sm.Journal(-1, func(string, string) bool {
		i++
		return false
	})
	assert.Equal(1, i, "Journal traverse should abort")
}

// TestRandomOps checks the stack against a naive copy-per-level model.
func TestRandomOps(t *testing.T) {
	f := fuzz.New().NilChance(0)
	sm := stackedmap.New[uint8, uint32](nil)
	model := []map[uint8]uint32{}

	for range 2000 {
		var op, key uint8
		var val uint32
		f.Fuzz(&op)
		f.Fuzz(&key)
		f.Fuzz(&val)
		key %= 16

		switch {
		case op < 60 || len(model) == 0:
			sm.Push()
			next := make(map[uint8]uint32)
			if len(model) > 0 {
				for k, v := range model[len(model)-1] {
					next[k] = v
				}
			}
			model = append(model, next)
		case op < 90:
			sm.Pop()
			model = model[:len(model)-1]
		default:
			sm.Put(key, val)
			model[len(model)-1][key] = val
		}

		assert.Equal(t, len(model), sm.Depth())
		for depth := 0; depth <= len(model); depth++ {
			v, ok := sm.GetAt(key, depth)
			if depth == 0 {
				assert.False(t, ok)
				continue
			}
			want, found := model[depth-1][key]
			assert.Equal(t, found, ok)
			assert.Equal(t, want, v)
		}
	}
}
