// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelDB(t *testing.T) {
	disk, err := New(filepath.Join(t.TempDir(), "db"), Options{16, 16})
	require.NoError(t, err)
	defer disk.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{disk, mem} {
		require.NoError(t, db.Put([]byte("123"), []byte("456")))

		val, err := db.Get([]byte("123"))
		require.NoError(t, err)
		assert.Equal(t, []byte("456"), val)

		has, err := db.Has([]byte("123"))
		require.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has([]byte("abc"))
		require.NoError(t, err)
		assert.False(t, has)

		_, err = db.Get([]byte("abc"))
		assert.True(t, db.IsNotFound(err))
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db")
	db, err := New(path, Options{})
	require.NoError(t, err)
	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = New(path, Options{})
	require.NoError(t, err)
	defer db.Close()
	val, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), val)
}
