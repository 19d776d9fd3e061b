// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accounts

import (
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ErrNotImpersonated is returned when sending from an address that is neither
// signable nor impersonated.
var ErrNotImpersonated = errors.New("sender not impersonated")

// Registry tracks addresses allowed to send transactions without a signature.
//
// Auto mode lets any address send, but only explicitly added addresses are listed.
//
// It's thread-safe.
type Registry struct {
	mu    sync.RWMutex
	addrs []common.Address
	auto  bool
}

// NewRegistry creates an empty registry with auto mode off.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add impersonates addr. It returns false if addr was already impersonated.
func (r *Registry) Add(addr common.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.addrs, addr) {
		return false
	}
	r.addrs = append(r.addrs, addr)
	return true
}

// Remove stops impersonating addr. It returns false if addr was not impersonated.
func (r *Registry) Remove(addr common.Address) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := slices.Index(r.addrs, addr)
	if i < 0 {
		return false
	}
	r.addrs = slices.Delete(r.addrs, i, i+1)
	return true
}

// Contains reports whether addr was explicitly added.
func (r *Registry) Contains(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.addrs, addr)
}

// List returns explicitly added addresses in insertion order.
func (r *Registry) List() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.addrs)
}

func (r *Registry) SetAuto(enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.auto = enabled
}

func (r *Registry) Auto() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.auto
}

// CanSend reports whether addr may send an unsigned transaction.
func (r *Registry) CanSend(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.auto || slices.Contains(r.addrs, addr)
}
