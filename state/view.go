// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// View reads the state of one block.
type View struct {
	store  *Store
	depth  int    // levels visible to this view, -1 for all
	number uint64 // block the source is read at
}

var _ Reader = (*View)(nil)

// Number returns the block number the view falls back to for unseen data.
func (v *View) Number() uint64 {
	return v.number
}

func (v *View) Balance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	if val, ok := v.store.local(key{kind: balanceKey, addr: addr}, v.depth); ok {
		return val.balance.Clone(), nil
	}
	bal, err := v.store.src.Balance(ctx, addr, v.number)
	if err != nil {
		return nil, err
	}
	if bal == nil {
		bal = new(uint256.Int)
	}
	return bal, nil
}

func (v *View) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	if val, ok := v.store.local(key{kind: nonceKey, addr: addr}, v.depth); ok {
		return val.nonce, nil
	}
	return v.store.src.Nonce(ctx, addr, v.number)
}

func (v *View) Code(ctx context.Context, addr common.Address) ([]byte, error) {
	if val, ok := v.store.local(key{kind: codeKey, addr: addr}, v.depth); ok {
		return val.code, nil
	}
	return v.store.src.Code(ctx, addr, v.number)
}

func (v *View) Storage(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if val, ok := v.store.local(key{kind: storageKey, addr: addr, slot: slot}, v.depth); ok {
		return val.slot, nil
	}
	return v.store.src.Storage(ctx, addr, slot, v.number)
}

// Account reads balance, nonce and code together.
// When none of them is local and the source can fetch accounts whole, one source call is made.
func (v *View) Account(ctx context.Context, addr common.Address) (*Account, error) {
	bal, hasBal := v.store.local(key{kind: balanceKey, addr: addr}, v.depth)
	nonce, hasNonce := v.store.local(key{kind: nonceKey, addr: addr}, v.depth)
	code, hasCode := v.store.local(key{kind: codeKey, addr: addr}, v.depth)

	if as, ok := v.store.src.(AccountSource); ok && !hasBal && !hasNonce && !hasCode {
		return as.Account(ctx, addr, v.number)
	}

	acc := &Account{}
	var err error
	if hasBal {
		acc.Balance = bal.balance.Clone()
	} else if acc.Balance, err = v.Balance(ctx, addr); err != nil {
		return nil, err
	}
	if hasNonce {
		acc.Nonce = nonce.nonce
	} else if acc.Nonce, err = v.Nonce(ctx, addr); err != nil {
		return nil, err
	}
	if hasCode {
		acc.Code = code.code
	} else if acc.Code, err = v.Code(ctx, addr); err != nil {
		return nil, err
	}
	return acc, nil
}
