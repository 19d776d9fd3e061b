// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package snapshot captures and restores the node state as one unit.
package snapshot

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/miner"
	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/txpool"
)

var logger = log.WithContext("pkg", "snapshot")

// ErrNotFound is returned when reverting to an unknown or invalidated snapshot.
var ErrNotFound = errors.New("snapshot not found")

type entry struct {
	id    uint64
	depth int
	pool  *txpool.TxPool
	head  uint64
	env   miner.Environment
}

// Manager keeps a stack of snapshots of store, pool, chain head and mining environment.
// Snapshot ids are issued in increasing order starting at 1.
//
// Create and Revert must be called with the node mutation lock held.
type Manager struct {
	store *state.Store
	pool  *txpool.TxPool
	repo  *chain.Repository
	miner *miner.Miner

	mu      sync.Mutex
	entries []*entry
	nextID  uint64
}

// New creates a snapshot manager.
func New(store *state.Store, pool *txpool.TxPool, repo *chain.Repository, miner *miner.Miner) *Manager {
	return &Manager{
		store:  store,
		pool:   pool,
		repo:   repo,
		miner:  miner,
		nextID: 1,
	}
}

// Create captures the current state and returns its id.
func (m *Manager) Create() *big.Int {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{
		id:    m.nextID,
		depth: m.store.Checkpoint(),
		pool:  m.pool.Clone(),
		head:  m.repo.Head().Number(),
		env:   m.miner.Environment(),
	}
	m.nextID++
	m.entries = append(m.entries, e)
	logger.Debug("snapshot created", "id", e.id, "head", e.head)
	return new(big.Int).SetUint64(e.id)
}

// Revert restores the state captured by id. The snapshot and all later ones are discarded.
func (m *Manager) Revert(id *big.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	i := m.find(id)
	if i < 0 {
		return errors.WithMessagef(ErrNotFound, "id %v", id)
	}
	e := m.entries[i]
	if head := m.repo.Head().Number(); e.head > head {
		return errors.Errorf("snapshot %d at block %d is above chain head %d", e.id, e.head, head)
	}
	if err := m.store.RevertTo(e.depth); err != nil {
		return err
	}
	if err := m.repo.Truncate(e.head); err != nil {
		return err
	}
	m.pool.Restore(e.pool)
	m.miner.SetEnvironment(e.env)

	m.entries = m.entries[:i]
	logger.Debug("snapshot reverted", "id", e.id, "head", e.head)
	return nil
}

func (m *Manager) find(id *big.Int) int {
	if id == nil || !id.IsUint64() {
		return -1
	}
	for i, e := range m.entries {
		if e.id == id.Uint64() {
			return i
		}
	}
	return -1
}

// Len returns the count of live snapshots.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Reset discards all snapshots.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
}
