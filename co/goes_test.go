// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package co

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGoes(t *testing.T) {
	var g Goes
	var n atomic.Int32
	for range 10 {
		g.Go(func() { n.Add(1) })
	}
	g.Wait()
	assert.Equal(t, int32(10), n.Load())
}

func TestGoesRecoversPanic(t *testing.T) {
	var g Goes
	g.Go(func() { panic("boom") })

	select {
	case <-g.Done():
	case <-time.After(time.Second):
		t.Fatal("routine did not finish")
	}
}
