// Package database handles all the lower level support for maintaining the
// blockchain on disk and maintaining an in-memory database of account
// information. Account balances are only ever changed by committing a fully
// validated block, so a partially validated block never leaks into this
// state.
package database

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/feechain/foundation/blockchain/genesis"
	"github.com/holiman/uint256"
)

// Serializer interface represents the behavior required to be implemented by
// any package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by
// any package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// DatabaseIterator provides support for iterating over the blocks in the
// database.
type DatabaseIterator struct {
	iterator Iterator
}

// Next retrieves the next block from disk.
func (di *DatabaseIterator) Next() (Block, error) {
	blockData, err := di.iterator.Next()
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData), nil
}

// Done returns the end of chain value.
func (di *DatabaseIterator) Done() bool {
	return di.iterator.Done()
}

// =============================================================================

// Database manages data related to accounts who have transacted on the
// blockchain.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	accounts    map[AccountID]Account

	serializer Serializer
}

// New constructs a new database and applies account genesis information.
// Replaying the blocks on disk through validation is the caller's job since
// validation depends on capabilities this package does not own.
func New(genesis genesis.Genesis, serializer Serializer) (*Database, error) {
	db := Database{
		genesis:    genesis,
		accounts:   make(map[AccountID]Account),
		serializer: serializer,
	}

	if err := db.resetAccountsToGenesis(); err != nil {
		return nil, err
	}

	return &db, nil
}

// Close closes the open blocks database.
func (db *Database) Close() {
	db.serializer.Close()
}

// Reset re-initalizes the database back to the genesis state.
func (db *Database) Reset() error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := db.serializer.Reset(); err != nil {
		return err
	}

	db.latestBlock = Block{}
	db.accounts = make(map[AccountID]Account)

	return db.resetAccountsToGenesis()
}

// resetAccountsToGenesis seeds the account set from the genesis balances.
func (db *Database) resetAccountsToGenesis() error {
	for accountStr, balance := range db.genesis.Balances {
		accountID, err := ToAccountID(accountStr)
		if err != nil {
			return fmt.Errorf("account %q in genesis: %w", accountStr, err)
		}

		db.accounts[accountID] = newAccount(accountID, uint256.NewInt(balance))
	}

	return nil
}

// Account retrieves a copy of the specified account and reports whether it
// exists.
func (db *Database) Account(accountID AccountID) (Account, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	account, exists := db.accounts[accountID]
	if !exists {
		return Account{}, false
	}

	return account.Clone(), true
}

// CopyAccounts makes a deep copy of the current accounts in the database.
// This is the seed for the copy-on-write view every validation pass runs
// against.
func (db *Database) CopyAccounts() map[AccountID]Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	accounts := make(map[AccountID]Account, len(db.accounts))
	for accountID, account := range db.accounts {
		accounts[accountID] = account.Clone()
	}

	return accounts
}

// ApplyOverlay replaces the stored accounts with the specified set in one
// atomic swap. Only a validation pass that ran to completion may call this.
func (db *Database) ApplyOverlay(accounts map[AccountID]*Account) {
	db.mu.Lock()
	defer db.mu.Unlock()

	for accountID, account := range accounts {
		db.accounts[accountID] = account.Clone()
	}
}

// UpdateLatestBlock provides safe access to update the latest block.
func (db *Database) UpdateLatestBlock(block Block) {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.latestBlock = block
}

// LatestBlock returns the latest block.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// Write adds a new block to the chain.
func (db *Database) Write(block Block) error {
	return db.serializer.Write(NewBlockData(block))
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.serializer.ForEach()}
}

// GetBlock searches the blockchain on disk to locate and return the
// contents of the specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.serializer.GetBlock(num)
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData), nil
}
