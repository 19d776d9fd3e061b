// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package tx

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var chainID = big.NewInt(31337)

func dynamicTx(nonce uint64) *types.Transaction {
	to := common.HexToAddress("0xbeef")
	return types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: big.NewInt(2),
		GasFeeCap: big.NewInt(10),
		Gas:       21000,
		To:        &to,
		Value:     big.NewInt(5),
	})
}

func TestSigned(t *testing.T) {
	key, _ := crypto.GenerateKey()
	signed, err := types.SignTx(dynamicTx(0), types.LatestSignerForChainID(chainID), key)
	require.NoError(t, err)

	raw, err := signed.MarshalBinary()
	require.NoError(t, err)

	decoded, err := Decode(raw, chainID)
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), decoded.From())
	assert.Equal(t, signed.Hash(), decoded.Hash())
	assert.False(t, decoded.Impersonated())

	_, err = Decode(raw, big.NewInt(1))
	assert.Error(t, err)
	_, err = Decode([]byte{0x02, 0x01}, chainID)
	assert.Error(t, err)
}

func TestImpersonatedHash(t *testing.T) {
	a := NewImpersonated(dynamicTx(0), common.HexToAddress("0x01"))
	b := NewImpersonated(dynamicTx(0), common.HexToAddress("0x02"))
	assert.NotEqual(t, a.Hash(), b.Hash())
	assert.NotEqual(t, a.Inner().Hash(), a.Hash())
	assert.True(t, a.Impersonated())
	assert.Equal(t, common.HexToAddress("0x02"), b.From())
}

func TestFees(t *testing.T) {
	tx := NewImpersonated(dynamicTx(0), common.Address{})

	assert.Equal(t, uint64(21000*10+5), tx.Cost().Uint64())
	assert.Equal(t, big.NewInt(9), tx.EffectiveGasPrice(big.NewInt(7)))
	assert.Equal(t, big.NewInt(2), tx.EffectiveTip(big.NewInt(7)))
	assert.Equal(t, big.NewInt(10), tx.EffectiveGasPrice(big.NewInt(9)))
	assert.Equal(t, big.NewInt(1), tx.EffectiveTip(big.NewInt(9)))
	assert.Equal(t, big.NewInt(-1), tx.EffectiveTip(big.NewInt(11)))
	assert.Equal(t, big.NewInt(2), tx.EffectiveTip(nil))
}
