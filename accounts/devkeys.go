// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"crypto/ecdsa"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/pbkdf2"
)

// DefaultMnemonic is the well known mnemonic of development accounts.
const DefaultMnemonic = "test test test test test test test test test test test junk"

const hardened = 0x80000000

// ethereum account path m/44'/60'/0'/0, the account index is appended.
var accountPath = []uint32{44 | hardened, 60 | hardened, 0 | hardened, 0}

// DevKeys derives count keys along m/44'/60'/0'/0/i from mnemonic.
func DevKeys(mnemonic string, count int) ([]*ecdsa.PrivateKey, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, errors.New("invalid mnemonic")
	}
	seed := pbkdf2.Key([]byte(mnemonic), []byte("mnemonic"), 2048, 64, sha512.New)

	key, chainCode := hmacSHA512([]byte("Bitcoin seed"), seed)
	var err error
	for _, index := range accountPath {
		if key, chainCode, err = deriveChild(key, chainCode, index); err != nil {
			return nil, err
		}
	}

	keys := make([]*ecdsa.PrivateKey, 0, count)
	for i := range count {
		child, _, err := deriveChild(key, chainCode, uint32(i))
		if err != nil {
			return nil, err
		}
		k, err := crypto.ToECDSA(child)
		if err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

// NewDevSigner creates a signer over the first count development keys.
func NewDevSigner(mnemonic string, count int) (*KeySigner, error) {
	keys, err := DevKeys(mnemonic, count)
	if err != nil {
		return nil, err
	}
	return NewKeySigner(keys...), nil
}

func hmacSHA512(key, data []byte) ([]byte, []byte) {
	mac := hmac.New(sha512.New, key)
	mac.Write(data)
	sum := mac.Sum(nil)
	return sum[:32], sum[32:]
}

// deriveChild is the private parent to private child derivation of BIP-32.
func deriveChild(key, chainCode []byte, index uint32) ([]byte, []byte, error) {
	var data []byte
	if index >= hardened {
		data = append([]byte{0}, key...)
	} else {
		priv, err := crypto.ToECDSA(key)
		if err != nil {
			return nil, nil, err
		}
		data = crypto.CompressPubkey(&priv.PublicKey)
	}
	data = binary.BigEndian.AppendUint32(data, index)

	il, ir := hmacSHA512(chainCode, data)
	n := crypto.S256().Params().N

	ilNum := new(big.Int).SetBytes(il)
	if ilNum.Cmp(n) >= 0 {
		return nil, nil, errors.Errorf("invalid child key at index %d", index)
	}
	child := ilNum.Add(ilNum, new(big.Int).SetBytes(key))
	child.Mod(child, n)
	if child.Sign() == 0 {
		return nil, nil, errors.Errorf("invalid child key at index %d", index)
	}
	return child.FillBytes(make([]byte, 32)), ir, nil
}
