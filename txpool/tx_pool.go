// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"context"
	"math/big"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/pkg/errors"

	"github.com/vechain/devnode/log"
	"github.com/vechain/devnode/state"
	"github.com/vechain/devnode/tx"
)

var logger = log.WithContext("pkg", "txpool")

// Options options for tx pool.
type Options struct {
	Order Order
}

// TxEvent will be posted when a tx is added.
type TxEvent struct {
	Tx *tx.Transaction
}

// TxPool maintains unmined transactions.
//
// It's thread-safe.
type TxPool struct {
	options Options

	mu      sync.RWMutex
	senders map[common.Address]*txList
	all     map[common.Hash]*txObject
	seq     uint64

	txFeed event.Feed
	scope  event.SubscriptionScope
}

// New create a new TxPool instance.
func New(options Options) *TxPool {
	return &TxPool{
		options: options,
		senders: make(map[common.Address]*txList),
		all:     make(map[common.Hash]*txObject),
	}
}

// Order returns the cross sender priority.
func (p *TxPool) Order() Order {
	return p.options.Order
}

// Add validates a transaction against st and adds it into the pool.
// A same nonce transaction of the sender is replaced unless the new fee cap is lower.
func (p *TxPool) Add(ctx context.Context, t *tx.Transaction, st state.Reader) error {
	from := t.From()
	nonce, err := st.Nonce(ctx, from)
	if err != nil {
		return err
	}
	balance, err := st.Balance(ctx, from)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if err := p.add(t, nonce, balance.ToBig()); err != nil {
		p.mu.Unlock()
		metricTxPoolAdded().AddWithLabel(1, map[string]string{"result": "rejected"})
		return err
	}
	size := len(p.all)
	p.mu.Unlock()

	metricTxPoolAdded().AddWithLabel(1, map[string]string{"result": "added"})
	metricTxPoolGauge().Set(int64(size))
	logger.Debug("tx added", "hash", t.Hash(), "from", from, "nonce", t.Nonce())
	p.txFeed.Send(&TxEvent{Tx: t})
	return nil
}

func (p *TxPool) add(t *tx.Transaction, stateNonce uint64, balance *big.Int) error {
	if _, ok := p.all[t.Hash()]; ok {
		return errKnownTx
	}
	if t.Nonce() < stateNonce {
		return errors.WithMessagef(ErrNonceTooLow, "address %v, tx: %d state: %d", t.From(), t.Nonce(), stateNonce)
	}
	if cost := t.Cost().ToBig(); balance.Cmp(cost) < 0 {
		return errors.WithMessagef(ErrInsufficientFunds, "address %v have %v want %v", t.From(), balance, cost)
	}

	list, ok := p.senders[t.From()]
	if !ok {
		list = newTxList()
		p.senders[t.From()] = list
	}
	if prev, ok := at(list, t.Nonce()); ok {
		if t.GasFeeCap().Cmp(prev.GasFeeCap()) < 0 {
			return ErrReplacementUnderpriced
		}
		logger.Debug("tx replaced", "prev", prev.Hash(), "new", t.Hash())
		delete(p.all, prev.Hash())
	}

	p.seq++
	obj := &txObject{Transaction: t, nonce: t.Nonce(), seq: p.seq}
	list.ReplaceOrInsert(obj)
	p.all[t.Hash()] = obj
	return nil
}

// Get returns a pending transaction by hash.
func (p *TxPool) Get(hash common.Hash) *tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if obj, ok := p.all[hash]; ok {
		return obj.Transaction
	}
	return nil
}

// Remove removes transactions, usually after they are mined.
func (p *TxPool) Remove(hashes ...common.Hash) int {
	p.mu.Lock()
	defer p.mu.Unlock()

	removed := 0
	for _, hash := range hashes {
		if p.remove(hash) {
			removed++
		}
	}
	metricTxPoolGauge().Set(int64(len(p.all)))
	return removed
}

// Drop removes a single transaction, reports whether it was pending.
func (p *TxPool) Drop(hash common.Hash) bool {
	return p.Remove(hash) > 0
}

func (p *TxPool) remove(hash common.Hash) bool {
	obj, ok := p.all[hash]
	if !ok {
		return false
	}
	delete(p.all, hash)
	list := p.senders[obj.From()]
	list.Delete(obj)
	if list.Len() == 0 {
		delete(p.senders, obj.From())
	}
	return true
}

// NextNonce returns the first nonce of addr at or above nonce that is not pending.
func (p *TxPool) NextNonce(addr common.Address, nonce uint64) uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if list, ok := p.senders[addr]; ok {
		for _, obj := range executable(list, nonce) {
			nonce = obj.nonce + 1
		}
	}
	return nonce
}

// Clear removes all transactions.
func (p *TxPool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.senders = make(map[common.Address]*txList)
	p.all = make(map[common.Hash]*txObject)
	metricTxPoolGauge().Set(0)
}

// Len returns the count of transactions in the pool.
func (p *TxPool) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.all)
}

// Dump returns all transactions in arrival order.
func (p *TxPool) Dump() tx.Transactions {
	p.mu.RLock()
	objs := make([]*txObject, 0, len(p.all))
	for _, obj := range p.all {
		objs = append(objs, obj)
	}
	p.mu.RUnlock()

	sort.Slice(objs, func(i, j int) bool { return objs[i].seq < objs[j].seq })
	txs := make(tx.Transactions, len(objs))
	for i, obj := range objs {
		txs[i] = obj.Transaction
	}
	return txs
}

// Content splits transactions per sender into executable ones, starting at the
// state nonce without gaps, and queued ones waiting for a gap to close.
func (p *TxPool) Content(ctx context.Context, st state.Reader) (pending, queued map[common.Address]tx.Transactions, err error) {
	runs, err := p.executables(ctx, st)
	if err != nil {
		return nil, nil, err
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	pending = make(map[common.Address]tx.Transactions)
	queued = make(map[common.Address]tx.Transactions)
	for sender, list := range p.senders {
		exec := make(map[common.Hash]bool)
		for _, obj := range runs[sender] {
			exec[obj.Hash()] = true
		}
		list.Ascend(func(obj *txObject) bool {
			if exec[obj.Hash()] {
				pending[sender] = append(pending[sender], obj.Transaction)
			} else {
				queued[sender] = append(queued[sender], obj.Transaction)
			}
			return true
		})
	}
	return pending, queued, nil
}

// Pending returns an iterator over executable transactions in mining order.
func (p *TxPool) Pending(ctx context.Context, st state.Reader, baseFee *big.Int) (*Iterator, error) {
	runs, err := p.executables(ctx, st)
	if err != nil {
		return nil, err
	}
	return newIterator(runs, p.options.Order, baseFee), nil
}

// executables returns per sender the longest nonce contiguous run starting at the state nonce.
func (p *TxPool) executables(ctx context.Context, st state.Reader) (map[common.Address][]*txObject, error) {
	// cloning marks the tree copy-on-write, which is a write
	p.mu.Lock()
	lists := make(map[common.Address]*txList, len(p.senders))
	for sender, list := range p.senders {
		lists[sender] = list.Clone()
	}
	p.mu.Unlock()

	runs := make(map[common.Address][]*txObject, len(lists))
	for sender, list := range lists {
		nonce, err := st.Nonce(ctx, sender)
		if err != nil {
			return nil, err
		}
		if run := executable(list, nonce); len(run) > 0 {
			runs[sender] = run
		}
	}
	return runs, nil
}

// Revalidate drops transactions the state no longer admits: nonces already
// used and senders unable to pay. Returns the number of dropped transactions.
func (p *TxPool) Revalidate(ctx context.Context, st state.Reader) (int, error) {
	p.mu.RLock()
	objs := make([]*txObject, 0, len(p.all))
	for _, obj := range p.all {
		objs = append(objs, obj)
	}
	p.mu.RUnlock()

	type account struct {
		nonce   uint64
		balance *big.Int
	}
	accounts := make(map[common.Address]*account)
	var stale []common.Hash
	for _, obj := range objs {
		acc, ok := accounts[obj.From()]
		if !ok {
			nonce, err := st.Nonce(ctx, obj.From())
			if err != nil {
				return 0, err
			}
			balance, err := st.Balance(ctx, obj.From())
			if err != nil {
				return 0, err
			}
			acc = &account{nonce, balance.ToBig()}
			accounts[obj.From()] = acc
		}
		if obj.nonce < acc.nonce || acc.balance.Cmp(obj.Cost().ToBig()) < 0 {
			stale = append(stale, obj.Hash())
		}
	}
	if len(stale) == 0 {
		return 0, nil
	}
	n := p.Remove(stale...)
	metricTxPoolPruned().Add(int64(n))
	logger.Debug("pruned stale txs", "count", n)
	return n, nil
}

// Clone returns a copy of the pool content. The copy has no subscribers.
func (p *TxPool) Clone() *TxPool {
	p.mu.Lock()
	defer p.mu.Unlock()

	c := New(p.options)
	c.seq = p.seq
	for sender, list := range p.senders {
		c.senders[sender] = list.Clone()
	}
	for hash, obj := range p.all {
		c.all[hash] = obj
	}
	return c
}

// Restore replaces the pool content with the content of a clone.
func (p *TxPool) Restore(from *TxPool) {
	c := from.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.senders = c.senders
	p.all = c.all
	p.seq = c.seq
	metricTxPoolGauge().Set(int64(len(p.all)))
}

// SubscribeTxEvent receives tx events.
func (p *TxPool) SubscribeTxEvent(ch chan *TxEvent) event.Subscription {
	return p.scope.Track(p.txFeed.Subscribe(ch))
}

// Close cleanup inner go routines.
func (p *TxPool) Close() {
	p.scope.Close()
}
