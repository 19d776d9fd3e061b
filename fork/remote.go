// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// Remote is the subset of an Ethereum client the backend reads through.
// *ethclient.Client implements it.
type Remote interface {
	ChainID(ctx context.Context) (*big.Int, error)
	BlockNumber(ctx context.Context) (uint64, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
	NonceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (uint64, error)
	CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error)
	StorageAt(ctx context.Context, account common.Address, key common.Hash, blockNumber *big.Int) ([]byte, error)
}

var _ Remote = (*ethclient.Client)(nil)

// Dial connects to cfg.URL and pins the fork block.
func Dial(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.URL == "" {
		return nil, errors.New("fork url required")
	}
	client, err := ethclient.DialContext(ctx, cfg.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "dial fork url [%v]", cfg.URL)
	}
	b, err := New(ctx, client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	b.closer = client.Close
	return b, nil
}
