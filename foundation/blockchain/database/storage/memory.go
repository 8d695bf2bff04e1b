package storage

import (
	"errors"
	"sync"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
)

// Memory represents the serialization implementation for keeping blocks
// only in memory. Tests and speculative validation passes use this so
// nothing touches disk. This implements the database.Serializer interface.
type Memory struct {
	mu     sync.RWMutex
	blocks []database.BlockData
}

// NewMemory constructs a Memory value for use.
func NewMemory() (*Memory, error) {
	return &Memory{}, nil
}

// Close in this implementation has nothing to do.
func (m *Memory) Close() error {
	return nil
}

// Write appends the specified block to the in-memory chain.
func (m *Memory) Write(blockData database.BlockData) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = append(m.blocks, blockData)
	return nil
}

// GetBlock returns the specified block by number.
func (m *Memory) GetBlock(num uint64) (database.BlockData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if num == 0 || num > uint64(len(m.blocks)) {
		return database.BlockData{}, errors.New("block does not exist")
	}

	return m.blocks[num-1], nil
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (m *Memory) ForEach() database.Iterator {
	return &MemoryIterator{memory: m}
}

// Reset clears out the in-memory chain.
func (m *Memory) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blocks = nil
	return nil
}

// =============================================================================

// MemoryIterator represents the iteration implementation for walking
// through the blocks in memory. This implements the database Iterator
// interface.
type MemoryIterator struct {
	memory  *Memory
	current uint64
	eoc     bool
}

// Next retrieves the next block from memory.
func (mi *MemoryIterator) Next() (database.BlockData, error) {
	if mi.eoc {
		return database.BlockData{}, errors.New("end of chain")
	}

	mi.current++
	blockData, err := mi.memory.GetBlock(mi.current)
	if err != nil {
		mi.eoc = true
	}

	return blockData, err
}

// Done returns the end of chain value.
func (mi *MemoryIterator) Done() bool {
	return mi.eoc
}
