// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package chain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/block"
	"github.com/vechain/devnode/tx"
)

var errNotFound = errors.New("not found")

// IsNotFound returns if an error means not found.
func IsNotFound(err error) bool {
	return errors.Cause(err) == errNotFound
}

// TxLocation locates a transaction in the chain.
type TxLocation struct {
	BlockHash   common.Hash
	BlockNumber uint64
	Index       uint64
}

// Repository stores the canonical chain in memory, starting from the genesis block.
// The genesis may be a forked block with number greater than zero.
//
// It's thread-safe.
type Repository struct {
	mu      sync.RWMutex
	blocks  []*block.Block
	byHash  map[common.Hash]uint64
	txIndex map[common.Hash]TxLocation

	headFeed event.Feed
	scope    event.SubscriptionScope
}

// NewRepository create an instance of repository.
func NewRepository(genesis *block.Block) (*Repository, error) {
	if len(genesis.Transactions()) != 0 {
		return nil, errors.New("genesis block should not have transactions")
	}
	return &Repository{
		blocks:  []*block.Block{genesis},
		byHash:  map[common.Hash]uint64{genesis.Hash(): genesis.Number()},
		txIndex: make(map[common.Hash]TxLocation),
	}, nil
}

// Genesis returns the first block of the chain.
func (r *Repository) Genesis() *block.Block {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blocks[0]
}

// Head returns the newest block.
func (r *Repository) Head() *block.Block {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.blocks[len(r.blocks)-1]
}

// Append appends a block onto the head and notifies subscribers.
func (r *Repository) Append(b *block.Block) error {
	r.mu.Lock()
	head := r.blocks[len(r.blocks)-1]
	if b.Number() != head.Number()+1 {
		r.mu.Unlock()
		return errors.Errorf("block number %d does not follow head %d", b.Number(), head.Number())
	}
	if b.ParentHash() != head.Hash() {
		r.mu.Unlock()
		return errors.New("parent hash mismatch")
	}

	r.blocks = append(r.blocks, b)
	r.byHash[b.Hash()] = b.Number()
	for i, t := range b.Transactions() {
		r.txIndex[t.Hash()] = TxLocation{
			BlockHash:   b.Hash(),
			BlockNumber: b.Number(),
			Index:       uint64(i),
		}
	}
	r.mu.Unlock()

	metricBlockRepositoryCounter().AddWithLabel(1, map[string]string{"type": "write"})
	r.headFeed.Send(b)
	return nil
}

// Truncate removes all blocks above number, which becomes the new head.
func (r *Repository) Truncate(number uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	base := r.blocks[0].Number()
	if number < base {
		return errors.Errorf("cannot truncate below genesis %d", base)
	}
	keep := number - base + 1
	if keep >= uint64(len(r.blocks)) {
		return nil
	}
	for _, b := range r.blocks[keep:] {
		delete(r.byHash, b.Hash())
		for _, t := range b.Transactions() {
			delete(r.txIndex, t.Hash())
		}
	}
	r.blocks = r.blocks[:keep:keep]
	return nil
}

// GetByNumber returns the block with the given number.
func (r *Repository) GetByNumber(number uint64) (*block.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byNumber(number)
}

func (r *Repository) byNumber(number uint64) (*block.Block, error) {
	metricBlockRepositoryCounter().AddWithLabel(1, map[string]string{"type": "read"})
	base := r.blocks[0].Number()
	if number < base || number-base >= uint64(len(r.blocks)) {
		return nil, errNotFound
	}
	return r.blocks[number-base], nil
}

// GetByHash returns the block with the given hash.
func (r *Repository) GetByHash(hash common.Hash) (*block.Block, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	number, ok := r.byHash[hash]
	if !ok {
		return nil, errNotFound
	}
	return r.byNumber(number)
}

// GetTransaction returns a mined transaction and its location.
func (r *Repository) GetTransaction(hash common.Hash) (*tx.Transaction, *TxLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.txIndex[hash]
	if !ok {
		return nil, nil, errNotFound
	}
	b, err := r.byNumber(loc.BlockNumber)
	if err != nil {
		return nil, nil, err
	}
	return b.Transactions()[loc.Index], &loc, nil
}

// GetReceipt returns the receipt of a mined transaction.
func (r *Repository) GetReceipt(hash common.Hash) (*types.Receipt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, ok := r.txIndex[hash]
	if !ok {
		return nil, errNotFound
	}
	b, err := r.byNumber(loc.BlockNumber)
	if err != nil {
		return nil, err
	}
	return b.Receipts()[loc.Index], nil
}

// SubscribeNewHead registers ch to receive every appended block.
func (r *Repository) SubscribeNewHead(ch chan<- *block.Block) event.Subscription {
	return r.scope.Track(r.headFeed.Subscribe(ch))
}

// Close unsubscribes all subscribers.
func (r *Repository) Close() {
	r.scope.Close()
}
