// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package state

import (
	"bytes"
	"context"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/pkg/errors"
)

type trieEntry struct {
	key common.Hash
	val []byte
}

func stackRoot(entries []trieEntry) (common.Hash, error) {
	slices.SortFunc(entries, func(a, b trieEntry) int {
		return bytes.Compare(a.key[:], b.key[:])
	})
	st := trie.NewStackTrie(nil)
	for _, e := range entries {
		if err := st.Update(e.key[:], e.val); err != nil {
			return common.Hash{}, err
		}
	}
	return st.Hash(), nil
}

// Root computes the Merkle-Patricia root over every account written locally up to this view.
// Accounts only ever read from the source do not contribute.
func (v *View) Root(ctx context.Context) (common.Hash, error) {
	addrs, slots := v.store.touched(v.depth)

	entries := make([]trieEntry, 0, len(addrs))
	for addr := range addrs {
		acc, err := v.Account(ctx, addr)
		if err != nil {
			return common.Hash{}, errors.WithMessagef(err, "account %v", addr)
		}
		storageRoot := types.EmptyRootHash
		if s := slots[addr]; len(s) > 0 {
			if storageRoot, err = v.storageRoot(ctx, addr, s); err != nil {
				return common.Hash{}, err
			}
		}
		if acc.IsEmpty() && storageRoot == types.EmptyRootHash {
			continue
		}
		enc, err := rlp.EncodeToBytes(&types.StateAccount{
			Nonce:    acc.Nonce,
			Balance:  acc.Balance,
			Root:     storageRoot,
			CodeHash: acc.CodeHash().Bytes(),
		})
		if err != nil {
			return common.Hash{}, err
		}
		entries = append(entries, trieEntry{crypto.Keccak256Hash(addr[:]), enc})
	}
	return stackRoot(entries)
}

func (v *View) storageRoot(ctx context.Context, addr common.Address, slots map[common.Hash]struct{}) (common.Hash, error) {
	entries := make([]trieEntry, 0, len(slots))
	for slot := range slots {
		val, err := v.Storage(ctx, addr, slot)
		if err != nil {
			return common.Hash{}, errors.WithMessagef(err, "storage %v/%v", addr, slot)
		}
		if val == (common.Hash{}) {
			continue
		}
		enc, err := rlp.EncodeToBytes(common.TrimLeftZeroes(val[:]))
		if err != nil {
			return common.Hash{}, err
		}
		entries = append(entries, trieEntry{crypto.Keccak256Hash(slot[:]), enc})
	}
	return stackRoot(entries)
}
