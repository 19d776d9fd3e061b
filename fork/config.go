// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package fork

import "time"

const (
	defaultRetries      = 5
	defaultRetryBackoff = time.Second
	defaultTimeout      = 45 * time.Second
)

// Config describes the remote chain a node forks from.
type Config struct {
	// URL of the remote JSON-RPC endpoint.
	URL string `yaml:"url"`
	// BlockNumber pins the fork height, nil pins the remote head at dial time.
	BlockNumber *uint64 `yaml:"block-number"`
	// Retries is the number of retries after a failed remote request.
	Retries int `yaml:"retries"`
	// RetryBackoff is the initial wait between retries, growing exponentially.
	RetryBackoff time.Duration `yaml:"retry-backoff"`
	// Timeout bounds a single remote request.
	Timeout time.Duration `yaml:"timeout"`
	// CacheDir persists fetched values across restarts when set.
	CacheDir string `yaml:"cache-dir"`
}

func (c Config) withDefaults() Config {
	if c.Retries <= 0 {
		c.Retries = defaultRetries
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	return c
}
