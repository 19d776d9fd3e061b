// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/holiman/uint256"

	"github.com/vechain/devnode/chain"
	"github.com/vechain/devnode/state"
)

// stateAt returns the state reader for a block reference.
// Latest, pending, safe and finalized include direct writes not yet mined.
func (b *backend) stateAt(ref gethrpc.BlockNumberOrHash) (state.Reader, error) {
	if hash, ok := ref.Hash(); ok {
		blk, err := b.repo.GetByHash(hash)
		if err != nil {
			if chain.IsNotFound(err) {
				return nil, ErrUnknownBlock
			}
			return nil, err
		}
		return b.store.At(blk.Number())
	}
	number, ok := ref.Number()
	if !ok {
		return b.store.Latest(), nil
	}
	return b.stateAtNumber(number)
}

func (b *backend) stateAtNumber(number gethrpc.BlockNumber) (state.Reader, error) {
	switch {
	case number < 0 && number == gethrpc.EarliestBlockNumber:
		number = gethrpc.BlockNumber(b.repo.Genesis().Number())
	case number < 0:
		return b.store.Latest(), nil
	}
	view, err := b.store.At(uint64(number))
	if err != nil {
		if err == state.ErrUnknownBlock {
			return nil, ErrUnknownBlock
		}
		return nil, err
	}
	return view, nil
}

// Balance returns the balance of addr at ref.
func (n *Node) Balance(ctx context.Context, addr common.Address, ref gethrpc.BlockNumberOrHash) (*uint256.Int, error) {
	st, err := n.current().stateAt(ref)
	if err != nil {
		return nil, err
	}
	return st.Balance(ctx, addr)
}

// Nonce returns the nonce of addr at ref.
func (n *Node) Nonce(ctx context.Context, addr common.Address, ref gethrpc.BlockNumberOrHash) (uint64, error) {
	st, err := n.current().stateAt(ref)
	if err != nil {
		return 0, err
	}
	return st.Nonce(ctx, addr)
}

// Code returns the code of addr at ref.
func (n *Node) Code(ctx context.Context, addr common.Address, ref gethrpc.BlockNumberOrHash) ([]byte, error) {
	st, err := n.current().stateAt(ref)
	if err != nil {
		return nil, err
	}
	return st.Code(ctx, addr)
}

// Storage returns the value of a storage slot of addr at ref.
func (n *Node) Storage(ctx context.Context, addr common.Address, slot common.Hash, ref gethrpc.BlockNumberOrHash) (common.Hash, error) {
	st, err := n.current().stateAt(ref)
	if err != nil {
		return common.Hash{}, err
	}
	return st.Storage(ctx, addr, slot)
}

// SetBalance overrides the balance of addr. This is a mutation.
func (n *Node) SetBalance(addr common.Address, balance *uint256.Int) {
	n.current().store.SetBalance(addr, balance)
}

// SetNonce overrides the nonce of addr. This is a mutation.
func (n *Node) SetNonce(addr common.Address, nonce uint64) {
	n.current().store.SetNonce(addr, nonce)
}

// SetCode overrides the code of addr. This is a mutation.
func (n *Node) SetCode(addr common.Address, code []byte) {
	n.current().store.SetCode(addr, common.CopyBytes(code))
}

// SetStorage overrides a storage slot of addr. This is a mutation.
func (n *Node) SetStorage(addr common.Address, slot, val common.Hash) {
	n.current().store.SetStorage(addr, slot, val)
}
