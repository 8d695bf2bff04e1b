// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"sync"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/genesis"
	"github.com/ardanlabs/feechain/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Worker interface represents the behavior required to be implemented by
// any package providing support for proposing new blocks.
type Worker interface {
	Shutdown()
	SignalStartProposing()
	SignalCancelProposing() (done func())
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	BeneficiaryID  database.AccountID
	Host           string
	Storage        database.Serializer
	Genesis        genesis.Genesis
	SelectStrategy string
	EvHandler      EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	beneficiaryID database.AccountID
	host          string
	evHandler     EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	// Load the genesis file to get starting balances for founders of the
	// blockchain, unless the caller supplied one directly.
	gen := cfg.Genesis
	if gen.ChainID == 0 {
		var err error
		gen, err = genesis.Load()
		if err != nil {
			return nil, err
		}
	}

	// Access the storage for the blockchain.
	db, err := database.New(gen, cfg.Storage)
	if err != nil {
		return nil, err
	}

	// Construct a mempool with the specified sort strategy.
	mempool, err := mempool.NewWithStrategy(cfg.SelectStrategy)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		host:          cfg.Host,
		evHandler:     ev,

		genesis: gen,
		mempool: mempool,
		db:      db,
	}

	// Replay the blocks on disk through the same validation path a new
	// block takes. A chain that no longer validates never loads.
	if err := state.reload(); err != nil {
		return nil, err
	}

	// The Worker is not set here. The call to worker.Run will assign itself
	// and start everything up and running for the node.

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {

	// Make sure the database file is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	if s.Worker != nil {
		s.Worker.Shutdown()
	}

	return nil
}

// Truncate resets the chain both on disk and in memory. This is used to
// correct an identified fork.
func (s *State) Truncate() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Reset the state of the database.
	s.mempool.Truncate()

	return s.db.Reset()
}

// reload walks the blocks in storage and applies each one through full
// validation to rebuild the in-memory account balances.
func (s *State) reload() error {
	iter := s.db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return err
		}

		s.evHandler("state: reload: applying block %d from storage", block.Header.Number)

		if err := s.applyBlock(block, false); err != nil {
			return err
		}
	}

	return nil
}
