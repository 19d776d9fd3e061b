// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Account is the materialized view of an address.
// Every address has one, an unseen address reads as the zero account.
type Account struct {
	Balance *uint256.Int
	Nonce   uint64
	Code    []byte
}

// CodeHash returns keccak256 of the code, or the empty code hash.
func (a *Account) CodeHash() common.Hash {
	if len(a.Code) == 0 {
		return types.EmptyCodeHash
	}
	return crypto.Keccak256Hash(a.Code)
}

// IsEmpty returns whether the account has no balance, nonce or code.
func (a *Account) IsEmpty() bool {
	return (a.Balance == nil || a.Balance.IsZero()) && a.Nonce == 0 && len(a.Code) == 0
}

type keyKind byte

const (
	balanceKey keyKind = iota
	nonceKey
	codeKey
	storageKey
)

// key addresses one field of one account in the stacked levels.
type key struct {
	kind keyKind
	addr common.Address
	slot common.Hash
}

type value struct {
	balance *uint256.Int
	nonce   uint64
	code    []byte
	slot    common.Hash
}
