// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"encoding/binary"
	"path/filepath"
	"sync"

	"github.com/vechain/devnode/lvldb"
)

type kind byte

const (
	kindBalance kind = iota + 1
	kindNonce
	kindCode
	kindStorage
	kindHeader
)

func (k kind) String() string {
	switch k {
	case kindBalance:
		return "balance"
	case kindNonce:
		return "nonce"
	case kindCode:
		return "code"
	case kindStorage:
		return "storage"
	case kindHeader:
		return "header"
	}
	return "unknown"
}

// cacheKey encodes (kind, key, block) as kind || key || number.
func cacheKey(k kind, key []byte, number uint64) []byte {
	out := make([]byte, 0, 1+len(key)+8)
	out = append(out, byte(k))
	out = append(out, key...)
	return binary.BigEndian.AppendUint64(out, number)
}

// cache is the write-through store of fetched values.
// Entries are never evicted. With a db, values also survive restarts.
type cache struct {
	mu  sync.RWMutex
	mem map[string][]byte
	db  *lvldb.LevelDB

	// guarded by openCaches.mu
	path string
	refs int
}

// openCaches holds the persistent caches in use, one per directory, so backends
// of the same chain share the db instead of contending for its lock.
var openCaches = struct {
	mu sync.Mutex
	m  map[string]*cache
}{m: make(map[string]*cache)}

// openCache returns the persistent cache stored at path, opening it on first use.
func openCache(path string) (*cache, error) {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	openCaches.mu.Lock()
	defer openCaches.mu.Unlock()

	if c, ok := openCaches.m[path]; ok {
		c.refs++
		return c, nil
	}
	db, err := lvldb.New(path, lvldb.Options{})
	if err != nil {
		return nil, err
	}
	c := newCache(db)
	c.path = path
	c.refs = 1
	openCaches.m[path] = c
	return c, nil
}

func newCache(db *lvldb.LevelDB) *cache {
	return &cache{mem: make(map[string][]byte), db: db}
}

func (c *cache) get(k []byte) ([]byte, bool) {
	c.mu.RLock()
	v, ok := c.mem[string(k)]
	c.mu.RUnlock()
	if ok || c.db == nil {
		return v, ok
	}

	v, err := c.db.Get(k)
	if err != nil {
		if !c.db.IsNotFound(err) {
			logger.Warn("read fork cache", "err", err)
		}
		return nil, false
	}
	c.mu.Lock()
	c.mem[string(k)] = v
	c.mu.Unlock()
	return v, true
}

func (c *cache) put(k, v []byte) {
	c.mu.Lock()
	c.mem[string(k)] = v
	c.mu.Unlock()

	if c.db != nil {
		if err := c.db.Put(k, v); err != nil {
			logger.Warn("write fork cache", "err", err)
		}
	}
}

// len returns the number of values held in memory.
func (c *cache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.mem)
}

// close releases one reference, the db is closed with the last one.
func (c *cache) close() {
	if c.db == nil {
		return
	}
	openCaches.mu.Lock()
	defer openCaches.mu.Unlock()

	if c.refs <= 0 {
		return
	}
	c.refs--
	if c.refs > 0 {
		return
	}
	delete(openCaches.m, c.path)
	if err := c.db.Close(); err != nil {
		logger.Warn("close fork cache", "err", err)
	}
}
