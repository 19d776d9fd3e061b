// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Source answers reads for data never written locally.
// The number argument is the block the value is read at.
type Source interface {
	Balance(ctx context.Context, addr common.Address, number uint64) (*uint256.Int, error)
	Nonce(ctx context.Context, addr common.Address, number uint64) (uint64, error)
	Code(ctx context.Context, addr common.Address, number uint64) ([]byte, error)
	Storage(ctx context.Context, addr common.Address, slot common.Hash, number uint64) (common.Hash, error)
}

// AccountSource is implemented by sources able to fetch a whole account at once.
type AccountSource interface {
	Account(ctx context.Context, addr common.Address, number uint64) (*Account, error)
}

// Reader reads the state of a single block.
type Reader interface {
	Balance(ctx context.Context, addr common.Address) (*uint256.Int, error)
	Nonce(ctx context.Context, addr common.Address) (uint64, error)
	Code(ctx context.Context, addr common.Address) ([]byte, error)
	Storage(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error)
}

// zeroSource backs a chain that is not forked: everything is zero.
type zeroSource struct{}

func (zeroSource) Balance(context.Context, common.Address, uint64) (*uint256.Int, error) {
	return new(uint256.Int), nil
}

func (zeroSource) Nonce(context.Context, common.Address, uint64) (uint64, error) {
	return 0, nil
}

func (zeroSource) Code(context.Context, common.Address, uint64) ([]byte, error) {
	return nil, nil
}

func (zeroSource) Storage(context.Context, common.Address, common.Hash, uint64) (common.Hash, error) {
	return common.Hash{}, nil
}
