// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/stackedmap"
)

// ErrUnknownBlock is returned when reading state of a block that is not on the chain.
var ErrUnknownBlock = errors.New("unknown block")

// Store is the account ledger of the local chain.
//
// Writes land in the top level of a stack of levels. Sealing a block
// pushes a new level, so the state of every local block stays readable
// and snapshots can drop everything above a recorded depth.
//
// Reads that miss all local levels fall through to the Source without
// holding the store lock.
//
// It's thread-safe.
type Store struct {
	mu     sync.RWMutex
	sm     *stackedmap.StackedMap[key, value]
	src    Source
	base   uint64
	sealed []int // sealed[i] is the depth holding the state of block base+i
}

// New creates a store whose first block is base. A nil src reads as all zero.
func New(src Source, base uint64) *Store {
	if src == nil {
		src = zeroSource{}
	}
	s := &Store{
		sm:   stackedmap.New[key, value](nil),
		src:  src,
		base: base,
	}
	s.sm.Push()
	return s
}

// Base returns the number of the first local block.
func (s *Store) Base() uint64 {
	return s.base
}

// Head returns the number of the last sealed block.
// The genesis block must have been committed.
func (s *Store) Head() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.base + uint64(len(s.sealed)) - 1
}

// Apply writes a batch to the pending state atomically.
func (s *Store) Apply(c *Changes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.write(c)
}

// Commit writes a batch and seals it as the state of block number, in one step.
// Readers see either none or all of the batch.
func (s *Store) Commit(c *Changes, number uint64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if want := s.base + uint64(len(s.sealed)); number != want {
		return 0, errors.Errorf("commit block %d, want %d", number, want)
	}
	if c != nil {
		s.write(c)
	}
	depth := s.sm.Depth()
	s.sealed = append(s.sealed, depth)
	s.sm.Push()
	return depth, nil
}

func (s *Store) write(c *Changes) {
	for _, addr := range c.order {
		ac := c.accounts[addr]
		if ac.balance != nil {
			s.sm.Put(key{kind: balanceKey, addr: addr}, value{balance: ac.balance.Clone()})
		}
		if ac.nonce != nil {
			s.sm.Put(key{kind: nonceKey, addr: addr}, value{nonce: *ac.nonce})
		}
		if ac.codeSet {
			s.sm.Put(key{kind: codeKey, addr: addr}, value{code: ac.code})
		}
		for slot, val := range ac.storage {
			s.sm.Put(key{kind: storageKey, addr: addr, slot: slot}, value{slot: val})
		}
	}
}

func (s *Store) SetBalance(addr common.Address, balance *uint256.Int) {
	s.Apply(NewChanges().SetBalance(addr, balance))
}

func (s *Store) SetNonce(addr common.Address, nonce uint64) {
	s.Apply(NewChanges().SetNonce(addr, nonce))
}

func (s *Store) SetCode(addr common.Address, code []byte) {
	s.Apply(NewChanges().SetCode(addr, code))
}

func (s *Store) SetStorage(addr common.Address, slot, val common.Hash) {
	s.Apply(NewChanges().SetStorage(addr, slot, val))
}

// Checkpoint freezes the current levels and returns the depth to revert to.
func (s *Store) Checkpoint() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sm.Push()
}

// RevertTo discards every write made after the checkpoint at depth,
// including blocks sealed since then.
func (s *Store) RevertTo(depth int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if depth < 1 || depth > s.sm.Depth() {
		return errors.Errorf("invalid checkpoint depth %d", depth)
	}
	s.sm.PopTo(depth)
	n := len(s.sealed)
	for n > 0 && s.sealed[n-1] >= depth {
		n--
	}
	s.sealed = s.sealed[:n]
	s.sm.Push()
	return nil
}

// Latest returns a view of the pending state, including writes not sealed in any block.
func (s *Store) Latest() *View {
	return &View{store: s, depth: -1, number: s.base}
}

// At returns a view of the state as of block number.
// Blocks before the base are served by the source only, later blocks
// read unseen data from the source at the base.
func (s *Store) At(number uint64) (*View, error) {
	if number < s.base {
		return &View{store: s, depth: 0, number: number}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := number - s.base
	if i >= uint64(len(s.sealed)) {
		return nil, ErrUnknownBlock
	}
	return &View{store: s, depth: s.sealed[i], number: s.base}, nil
}

// local looks k up in the levels below depth, negative depth means all levels.
func (s *Store) local(k key, depth int) (value, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if depth < 0 {
		depth = s.sm.Depth()
	}
	return s.sm.GetAt(k, depth)
}

// touched returns addresses and storage slots written below depth.
func (s *Store) touched(depth int) (map[common.Address]struct{}, map[common.Address]map[common.Hash]struct{}) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addrs := make(map[common.Address]struct{})
	slots := make(map[common.Address]map[common.Hash]struct{})
	s.sm.Journal(depth, func(k key, _ value) bool {
		addrs[k.addr] = struct{}{}
		if k.kind == storageKey {
			if slots[k.addr] == nil {
				slots[k.addr] = make(map[common.Hash]struct{})
			}
			slots[k.addr][k.slot] = struct{}{}
		}
		return true
	})
	return addrs, slots
}
