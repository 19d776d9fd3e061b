// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"context"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
)

// ErrInsufficientBalance is returned by Overlay.SubBalance.
var ErrInsufficientBalance = errors.New("insufficient balance")

type accountChange struct {
	balance *uint256.Int
	nonce   *uint64
	code    []byte
	codeSet bool
	storage map[common.Hash]common.Hash
}

// Changes is a batch of post-values for account fields.
// Fields never set are left untouched when the batch is applied.
type Changes struct {
	accounts map[common.Address]*accountChange
	order    []common.Address
}

// NewChanges creates an empty batch.
func NewChanges() *Changes {
	return &Changes{accounts: make(map[common.Address]*accountChange)}
}

func (c *Changes) account(addr common.Address) *accountChange {
	if ac, ok := c.accounts[addr]; ok {
		return ac
	}
	ac := &accountChange{}
	c.accounts[addr] = ac
	c.order = append(c.order, addr)
	return ac
}

// SetBalance records the new balance of addr.
func (c *Changes) SetBalance(addr common.Address, balance *uint256.Int) *Changes {
	if balance == nil {
		balance = new(uint256.Int)
	}
	c.account(addr).balance = balance.Clone()
	return c
}

// SetNonce records the new nonce of addr.
func (c *Changes) SetNonce(addr common.Address, nonce uint64) *Changes {
	c.account(addr).nonce = &nonce
	return c
}

// SetCode records the new code of addr.
func (c *Changes) SetCode(addr common.Address, code []byte) *Changes {
	ac := c.account(addr)
	ac.code = slices.Clone(code)
	ac.codeSet = true
	return c
}

// SetStorage records the new value of a storage slot.
func (c *Changes) SetStorage(addr common.Address, slot, val common.Hash) *Changes {
	ac := c.account(addr)
	if ac.storage == nil {
		ac.storage = make(map[common.Hash]common.Hash)
	}
	ac.storage[slot] = val
	return c
}

// Merge overlays other on top of c.
func (c *Changes) Merge(other *Changes) {
	for _, addr := range other.order {
		oc := other.accounts[addr]
		if oc.balance != nil {
			c.SetBalance(addr, oc.balance)
		}
		if oc.nonce != nil {
			c.SetNonce(addr, *oc.nonce)
		}
		if oc.codeSet {
			c.SetCode(addr, oc.code)
		}
		for slot, val := range oc.storage {
			c.SetStorage(addr, slot, val)
		}
	}
}

// Addresses returns touched addresses in first-touch order.
func (c *Changes) Addresses() []common.Address {
	return slices.Clone(c.order)
}

// Len returns the number of touched accounts.
func (c *Changes) Len() int {
	return len(c.order)
}

// Balance returns the recorded balance of addr if any.
func (c *Changes) Balance(addr common.Address) (*uint256.Int, bool) {
	if ac, ok := c.accounts[addr]; ok && ac.balance != nil {
		return ac.balance.Clone(), true
	}
	return nil, false
}

// Nonce returns the recorded nonce of addr if any.
func (c *Changes) Nonce(addr common.Address) (uint64, bool) {
	if ac, ok := c.accounts[addr]; ok && ac.nonce != nil {
		return *ac.nonce, true
	}
	return 0, false
}

// Code returns the recorded code of addr if any.
func (c *Changes) Code(addr common.Address) ([]byte, bool) {
	if ac, ok := c.accounts[addr]; ok && ac.codeSet {
		return ac.code, true
	}
	return nil, false
}

// Storage returns the recorded slot value if any.
func (c *Changes) Storage(addr common.Address, slot common.Hash) (common.Hash, bool) {
	if ac, ok := c.accounts[addr]; ok {
		v, ok := ac.storage[slot]
		return v, ok
	}
	return common.Hash{}, false
}

// Overlay is a writable Reader that buffers writes as Changes over a base Reader.
// It is not safe for concurrent use.
type Overlay struct {
	base    Reader
	changes *Changes
}

var _ Reader = (*Overlay)(nil)

// NewOverlay creates an overlay on top of base.
func NewOverlay(base Reader) *Overlay {
	return &Overlay{base: base, changes: NewChanges()}
}

func (o *Overlay) Balance(ctx context.Context, addr common.Address) (*uint256.Int, error) {
	if v, ok := o.changes.Balance(addr); ok {
		return v, nil
	}
	return o.base.Balance(ctx, addr)
}

func (o *Overlay) Nonce(ctx context.Context, addr common.Address) (uint64, error) {
	if v, ok := o.changes.Nonce(addr); ok {
		return v, nil
	}
	return o.base.Nonce(ctx, addr)
}

func (o *Overlay) Code(ctx context.Context, addr common.Address) ([]byte, error) {
	if v, ok := o.changes.Code(addr); ok {
		return v, nil
	}
	return o.base.Code(ctx, addr)
}

func (o *Overlay) Storage(ctx context.Context, addr common.Address, slot common.Hash) (common.Hash, error) {
	if v, ok := o.changes.Storage(addr, slot); ok {
		return v, nil
	}
	return o.base.Storage(ctx, addr, slot)
}

func (o *Overlay) SetBalance(addr common.Address, v *uint256.Int) { o.changes.SetBalance(addr, v) }
func (o *Overlay) SetNonce(addr common.Address, n uint64)         { o.changes.SetNonce(addr, n) }
func (o *Overlay) SetCode(addr common.Address, code []byte)       { o.changes.SetCode(addr, code) }
func (o *Overlay) SetStorage(addr common.Address, slot, v common.Hash) {
	o.changes.SetStorage(addr, slot, v)
}

// AddBalance credits amount to addr.
func (o *Overlay) AddBalance(ctx context.Context, addr common.Address, amount *uint256.Int) error {
	bal, err := o.Balance(ctx, addr)
	if err != nil {
		return err
	}
	o.SetBalance(addr, new(uint256.Int).Add(bal, amount))
	return nil
}

// SubBalance debits amount from addr, the balance never goes below zero.
func (o *Overlay) SubBalance(ctx context.Context, addr common.Address, amount *uint256.Int) error {
	bal, err := o.Balance(ctx, addr)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return ErrInsufficientBalance
	}
	o.SetBalance(addr, new(uint256.Int).Sub(bal, amount))
	return nil
}

// Apply merges a batch into the overlay.
func (o *Overlay) Apply(c *Changes) {
	o.changes.Merge(c)
}

// Changes returns the buffered writes.
func (o *Overlay) Changes() *Changes {
	return o.changes
}
