// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package node

import "github.com/pkg/errors"

var (
	// ErrInvalidArgs is returned for malformed call or transaction arguments.
	ErrInvalidArgs = errors.New("invalid arguments")
	// ErrGasLimitExceeded is returned for transactions asking more gas than a block holds.
	ErrGasLimitExceeded = errors.New("exceeds block gas limit")
	// ErrUnknownBlock is returned when a block reference does not resolve.
	ErrUnknownBlock = errors.New("header not found")
)
