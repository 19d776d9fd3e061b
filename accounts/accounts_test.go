// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevKeys(t *testing.T) {
	keys, err := DevKeys(DefaultMnemonic, 2)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	assert.Equal(t, common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"), crypto.PubkeyToAddress(keys[0].PublicKey))
	assert.Equal(t, "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80", common.Bytes2Hex(crypto.FromECDSA(keys[0])))
	assert.Equal(t, common.HexToAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8"), crypto.PubkeyToAddress(keys[1].PublicKey))

	_, err = DevKeys("not a mnemonic", 1)
	assert.Error(t, err)
}

func TestKeySigner(t *testing.T) {
	s, err := NewDevSigner(DefaultMnemonic, 3)
	require.NoError(t, err)
	accs := s.Accounts()
	require.Len(t, accs, 3)
	assert.True(t, s.Has(accs[2]))

	chainID := big.NewInt(31337)
	tx := types.NewTx(&types.DynamicFeeTx{ChainID: chainID, Nonce: 1, Gas: 21000, GasFeeCap: big.NewInt(1), GasTipCap: big.NewInt(1)})
	signed, err := s.SignTx(accs[1], tx, chainID)
	require.NoError(t, err)

	from, err := types.Sender(types.LatestSignerForChainID(chainID), signed)
	require.NoError(t, err)
	assert.Equal(t, accs[1], from)

	_, err = s.SignTx(common.Address{1}, tx, chainID)
	assert.ErrorIs(t, err, errUnknownAccount)
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")

	assert.False(t, r.CanSend(a))
	assert.True(t, r.Add(a))
	assert.False(t, r.Add(a))
	assert.True(t, r.CanSend(a))
	assert.Equal(t, []common.Address{a}, r.List())

	// auto mode grants permission without listing
	r.SetAuto(true)
	assert.True(t, r.Auto())
	assert.True(t, r.CanSend(b))
	assert.False(t, r.Contains(b))
	assert.Equal(t, []common.Address{a}, r.List())

	r.SetAuto(false)
	assert.False(t, r.CanSend(b))
	assert.True(t, r.Remove(a))
	assert.False(t, r.Remove(a))
	assert.False(t, r.CanSend(a))
	assert.Empty(t, r.List())
}
