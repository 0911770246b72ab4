// Package memory implements the ability to read and write blocks to memory
// using a slice.
package memory

import (
	"errors"
	"iter"
	"sync"

	"github.com/ardanlabs/powchain/foundation/blockchain/block"
)

// Memory represents the storage implementation for reading and storing
// blocks in memory using a slice. This implements the chain.Storage
// interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []*block.Block
}

// New constructs an Memory value for use.
func New() *Memory {
	return &Memory{}
}

// Write takes the specified sealed block and stores it at the end of the
// slice.
func (m *Memory) Write(b *block.Block) error {
	if b == nil {
		return errors.New("block is nil")
	}

	if !b.Sealed() {
		return errors.New("block is not sealed")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, b)

	return nil
}

// GetBlock locates and returns the block at the specified position.
func (m *Memory) GetBlock(num uint64) (*block.Block, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	l := uint64(len(m.blocks))
	if l == 0 || num >= l {
		return nil, errors.New("block does not exist")
	}

	return m.blocks[num], nil
}

// Count returns the number of blocks stored.
func (m *Memory) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.blocks)
}

// Blocks returns a sequence that walks the blocks in the order they were
// written. The sequence covers the blocks stored when it starts, so writes
// made while ranging over it are not seen until the next walk.
func (m *Memory) Blocks() iter.Seq[*block.Block] {
	return func(yield func(*block.Block) bool) {
		m.mu.RLock()
		blocks := m.blocks[:len(m.blocks):len(m.blocks)]
		m.mu.RUnlock()

		for _, b := range blocks {
			if !yield(b) {
				return
			}
		}
	}
}
