// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"github.com/google/btree"

	"github.com/vechain/devnode/tx"
)

// txObject wraps a pending transaction with its arrival sequence.
type txObject struct {
	*tx.Transaction
	nonce uint64
	seq   uint64
}

// txList is the nonce ordered queue of one sender.
type txList = btree.BTreeG[*txObject]

func newTxList() *txList {
	return btree.NewG(8, func(a, b *txObject) bool { return a.nonce < b.nonce })
}

// at returns the transaction with the given nonce.
func at(l *txList, nonce uint64) (*txObject, bool) {
	return l.Get(&txObject{nonce: nonce})
}

// executable returns the nonce contiguous run starting at nonce.
func executable(l *txList, nonce uint64) []*txObject {
	var run []*txObject
	l.AscendGreaterOrEqual(&txObject{nonce: nonce}, func(obj *txObject) bool {
		if obj.nonce != nonce {
			return false
		}
		run = append(run, obj)
		nonce++
		return true
	})
	return run
}
