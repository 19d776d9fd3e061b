// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package txpool

import "github.com/pkg/errors"

var (
	ErrNonceTooLow            = errors.New("nonce too low")
	ErrInsufficientFunds      = errors.New("insufficient funds for gas * price + value")
	ErrReplacementUnderpriced = errors.New("replacement transaction underpriced")

	errKnownTx = errors.New("known transaction")
)

func IsErrKnownTx(err error) bool {
	return errors.Is(err, errKnownTx)
}
