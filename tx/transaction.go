// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// Transaction is an Ethereum transaction together with its resolved sender.
// It is immutable.
type Transaction struct {
	inner        *types.Transaction
	from         common.Address
	impersonated bool
	hash         common.Hash
}

// NewSigned wraps a signed transaction, recovering its sender.
func NewSigned(t *types.Transaction, chainID *big.Int) (*Transaction, error) {
	if t.Value().BitLen() > 256 || t.GasFeeCap().BitLen() > 256 || t.GasTipCap().BitLen() > 256 {
		return nil, errors.New("value or fee exceeds 256 bits")
	}
	from, err := types.Sender(types.LatestSignerForChainID(chainID), t)
	if err != nil {
		return nil, errors.Wrap(err, "recover sender")
	}
	return &Transaction{inner: t, from: from, hash: t.Hash()}, nil
}

// NewImpersonated wraps an unsigned transaction sent on behalf of from.
// The sender is mixed into the hash so equal payloads of different senders never collide.
func NewImpersonated(t *types.Transaction, from common.Address) *Transaction {
	inner := t.Hash()
	return &Transaction{
		inner:        t,
		from:         from,
		impersonated: true,
		hash:         crypto.Keccak256Hash(inner[:], from[:]),
	}
}

// Decode decodes a raw signed transaction in its canonical binary encoding.
func Decode(raw []byte, chainID *big.Int) (*Transaction, error) {
	var t types.Transaction
	if err := t.UnmarshalBinary(raw); err != nil {
		return nil, errors.Wrap(err, "decode transaction")
	}
	if t.Protected() && t.ChainId().Cmp(chainID) != 0 {
		return nil, errors.Errorf("chain id mismatch: have %v, want %v", t.ChainId(), chainID)
	}
	return NewSigned(&t, chainID)
}

func (t *Transaction) Hash() common.Hash         { return t.hash }
func (t *Transaction) From() common.Address      { return t.from }
func (t *Transaction) Impersonated() bool        { return t.impersonated }
func (t *Transaction) Inner() *types.Transaction { return t.inner }
func (t *Transaction) Type() uint8               { return t.inner.Type() }
func (t *Transaction) Nonce() uint64             { return t.inner.Nonce() }
func (t *Transaction) To() *common.Address       { return t.inner.To() }
func (t *Transaction) Gas() uint64               { return t.inner.Gas() }
func (t *Transaction) Data() []byte              { return t.inner.Data() }
func (t *Transaction) GasFeeCap() *big.Int       { return t.inner.GasFeeCap() }
func (t *Transaction) GasTipCap() *big.Int       { return t.inner.GasTipCap() }
func (t *Transaction) ChainID() *big.Int         { return t.inner.ChainId() }
func (t *Transaction) Value() *uint256.Int       { return uint256.MustFromBig(t.inner.Value()) }

// RawSignature returns the signature values, all zero for impersonated transactions.
func (t *Transaction) RawSignature() (v, r, s *big.Int) {
	return t.inner.RawSignatureValues()
}

// Cost returns value + gas * fee cap, the most the sender can be charged.
func (t *Transaction) Cost() *uint256.Int {
	cost := new(uint256.Int).SetUint64(t.inner.Gas())
	cost.Mul(cost, uint256.MustFromBig(t.inner.GasFeeCap()))
	return cost.Add(cost, t.Value())
}

// EffectiveGasPrice returns the price per gas paid under baseFee.
func (t *Transaction) EffectiveGasPrice(baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return new(big.Int).Set(t.inner.GasFeeCap())
	}
	price := new(big.Int).Add(baseFee, t.inner.GasTipCap())
	if price.Cmp(t.inner.GasFeeCap()) > 0 {
		price.Set(t.inner.GasFeeCap())
	}
	return price
}

// EffectiveTip returns the part of the gas price above baseFee, negative if the fee cap is below it.
func (t *Transaction) EffectiveTip(baseFee *big.Int) *big.Int {
	if baseFee == nil {
		return new(big.Int).Set(t.inner.GasTipCap())
	}
	return new(big.Int).Sub(t.EffectiveGasPrice(baseFee), baseFee)
}

// Transactions is a list of transactions.
type Transactions []*Transaction

// Inner returns the wrapped Ethereum transactions.
func (txs Transactions) Inner() types.Transactions {
	out := make(types.Transactions, len(txs))
	for i, t := range txs {
		out[i] = t.inner
	}
	return out
}
