// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package miner

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Environment is the configurable context of the next blocks.
type Environment struct {
	Coinbase      common.Address
	GasLimit      uint64
	BaseFee       *big.Int
	NextTimestamp *uint64 // applies to the next block only
	TimeOffset    int64   // seconds added to the wall clock
}

func (e Environment) copy() Environment {
	c := e
	if e.BaseFee != nil {
		c.BaseFee = new(big.Int).Set(e.BaseFee)
	}
	if e.NextTimestamp != nil {
		ts := *e.NextTimestamp
		c.NextTimestamp = &ts
	}
	return c
}
