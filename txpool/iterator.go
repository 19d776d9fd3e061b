// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/btree"

	"github.com/vechain/devnode/tx"
)

// Iterator yields executable transactions in mining order.
// Transactions of one sender come in nonce order, senders are merged by the pool order.
type Iterator struct {
	heads *btree.BTreeG[*txObject]
	rest  map[common.Address][]*txObject
}

func newIterator(runs map[common.Address][]*txObject, order Order, baseFee *big.Int) *Iterator {
	it := &Iterator{
		heads: btree.NewG(8, func(a, b *txObject) bool { return order.less(a, b, baseFee) }),
		rest:  make(map[common.Address][]*txObject, len(runs)),
	}
	for sender, run := range runs {
		if len(run) == 0 {
			continue
		}
		it.heads.ReplaceOrInsert(run[0])
		it.rest[sender] = run[1:]
	}
	return it
}

// Peek returns the next transaction, nil when exhausted.
func (it *Iterator) Peek() *tx.Transaction {
	head, ok := it.heads.Min()
	if !ok {
		return nil
	}
	return head.Transaction
}

// Shift moves on to the next transaction of the same sender.
func (it *Iterator) Shift() {
	head, ok := it.heads.DeleteMin()
	if !ok {
		return
	}
	sender := head.From()
	if rest := it.rest[sender]; len(rest) > 0 {
		it.heads.ReplaceOrInsert(rest[0])
		it.rest[sender] = rest[1:]
	} else {
		delete(it.rest, sender)
	}
}

// Pop skips all remaining transactions of the current sender.
func (it *Iterator) Pop() {
	head, ok := it.heads.DeleteMin()
	if !ok {
		return
	}
	delete(it.rest, head.From())
}
