// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"crypto/ecdsa"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var errUnknownAccount = errors.New("unknown account")

// Signer holds keys of locally signable accounts.
type Signer interface {
	Accounts() []common.Address
	Has(addr common.Address) bool
	SignTx(addr common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// KeySigner signs with in-memory private keys.
type KeySigner struct {
	keys  map[common.Address]*ecdsa.PrivateKey
	addrs []common.Address
}

var _ Signer = (*KeySigner)(nil)

// NewKeySigner creates a signer over keys, in the given order.
func NewKeySigner(keys ...*ecdsa.PrivateKey) *KeySigner {
	s := &KeySigner{keys: make(map[common.Address]*ecdsa.PrivateKey)}
	for _, k := range keys {
		addr := crypto.PubkeyToAddress(k.PublicKey)
		if _, ok := s.keys[addr]; ok {
			continue
		}
		s.keys[addr] = k
		s.addrs = append(s.addrs, addr)
	}
	return s
}

func (s *KeySigner) Accounts() []common.Address {
	return append([]common.Address(nil), s.addrs...)
}

func (s *KeySigner) Has(addr common.Address) bool {
	_, ok := s.keys[addr]
	return ok
}

// Key returns the private key of addr.
func (s *KeySigner) Key(addr common.Address) (*ecdsa.PrivateKey, bool) {
	k, ok := s.keys[addr]
	return k, ok
}

func (s *KeySigner) SignTx(addr common.Address, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	key, ok := s.keys[addr]
	if !ok {
		return nil, errors.WithMessagef(errUnknownAccount, "%v", addr)
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
}
