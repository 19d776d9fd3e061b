// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import (
	"math/big"

	"github.com/pkg/errors"
)

// Order is the priority of transactions from different senders.
type Order int

const (
	// OrderFees prefers higher effective tips, ties are broken by arrival.
	OrderFees Order = iota
	// OrderFIFO prefers earlier arrival.
	OrderFIFO
)

// ParseOrder parses "fees" or "fifo".
func ParseOrder(s string) (Order, error) {
	switch s {
	case "fees", "":
		return OrderFees, nil
	case "fifo":
		return OrderFIFO, nil
	}
	return 0, errors.Errorf("unknown transaction order %q", s)
}

func (o Order) String() string {
	if o == OrderFIFO {
		return "fifo"
	}
	return "fees"
}

// less reports whether a is mined before b.
func (o Order) less(a, b *txObject, baseFee *big.Int) bool {
	if o == OrderFees {
		if c := a.EffectiveTip(baseFee).Cmp(b.EffectiveTip(baseFee)); c != 0 {
			return c > 0
		}
	}
	return a.seq < b.seq
}
