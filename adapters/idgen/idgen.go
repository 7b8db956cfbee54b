// Package idgen supplies the identifier generators used when minting
// billing customers outside of Stripe (the dummy provider).
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/artpar/metergate/ports"
	"github.com/google/uuid"
)

// UUID generates random v4 UUIDs.
type UUID struct{}

// New returns a fresh UUID string.
func (UUID) New() string {
	return uuid.New().String()
}

// Sequential generates prefix_1, prefix_2, ... so tests can assert on
// exact customer IDs. Safe for concurrent use.
type Sequential struct {
	prefix string
	n      uint64
}

// NewSequential creates a generator with the given prefix.
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

// New returns the next ID in the sequence, starting at 1.
func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(atomic.AddUint64(&s.n, 1), 10)
}

// Reset restarts the sequence.
func (s *Sequential) Reset() {
	atomic.StoreUint64(&s.n, 0)
}

var (
	_ ports.IDGenerator = UUID{}
	_ ports.IDGenerator = (*Sequential)(nil)
)
