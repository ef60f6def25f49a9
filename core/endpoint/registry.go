package endpoint

import (
	"encoding/binary"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/codewandler/actr-go/core/address"
)

// registryShards spreads name lookups over independent locks. Power of two.
const registryShards = 64

// NameRegistry maps globally unique mailbox names to local addresses.
// Safe for concurrent use.
type NameRegistry struct {
	shards [registryShards]struct {
		mu sync.Mutex
		m  map[string]address.Address
	}
}

// NewNameRegistry creates an empty registry.
func NewNameRegistry() *NameRegistry {
	r := &NameRegistry{}
	for i := range r.shards {
		r.shards[i].m = make(map[string]address.Address)
	}
	return r
}

// shardFor hashes a name to its shard.
func shardFor(name string) uint32 {
	h, _ := blake2b.New(8, nil)
	h.Write([]byte(name))
	sum := h.Sum(nil)
	return uint32(binary.BigEndian.Uint64(sum) % registryShards)
}

// Add binds name to addr. Returns false if the name is already bound.
func (r *NameRegistry) Add(name string, addr address.Address) bool {
	s := &r.shards[shardFor(name)]
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.m[name]; taken {
		return false
	}
	s.m[name] = addr
	return true
}

// Remove forgets a binding.
func (r *NameRegistry) Remove(name string) {
	s := &r.shards[shardFor(name)]
	s.mu.Lock()
	delete(s.m, name)
	s.mu.Unlock()
}

// Lookup resolves a name to its bound address.
func (r *NameRegistry) Lookup(name string) (address.Address, bool) {
	s := &r.shards[shardFor(name)]
	s.mu.Lock()
	addr, ok := s.m[name]
	s.mu.Unlock()
	return addr, ok
}
