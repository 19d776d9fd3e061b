// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithContextFollowsDefault(t *testing.T) {
	logger := WithContext("pkg", "test")

	var buf bytes.Buffer
	SetDefault(NewHandler(&buf, 3, false, false))
	defer Discard()

	logger.Info("hello", "k", 1)
	logger.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "hello")
	assert.Contains(t, out, "pkg=test")
	assert.Contains(t, out, "k=1")
	assert.NotContains(t, out, "hidden")
}

func TestNewMergesContext(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewHandler(&buf, 5, true, false))
	defer Discard()

	WithContext("pkg", "a").New("conn", "x").Trace("msg")

	out := buf.String()
	assert.Contains(t, out, `"pkg":"a"`)
	assert.Contains(t, out, `"conn":"x"`)
}
