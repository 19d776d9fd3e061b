// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package miner

import "github.com/pkg/errors"

var (
	errGasLimitReached = errors.New("gas limit reached")

	// ErrTimestampTooLow is returned when the next block timestamp would not exceed its parent's.
	ErrTimestampTooLow = errors.New("timestamp must be greater than the latest block timestamp")
)
