// Package mempool maintains the mempool for the blockchain.
package mempool

import (
	"fmt"
	"strings"
	"sync"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/mempool/selector"
	"github.com/holiman/uint256"
)

// Mempool represents a cache of transactions organized by account with a
// second key on the transaction nonce.
type Mempool struct {
	pool     map[string]database.BlockTx
	mu       sync.RWMutex
	selectFn selector.Func
}

// New constructs a new mempool using the default sort strategy.
func New() (*Mempool, error) {
	return NewWithStrategy(selector.StrategyTip)
}

// NewWithStrategy constructs a new mempool with specified sort strategy.
func NewWithStrategy(strategy string) (*Mempool, error) {
	selectFn, err := selector.Retrieve(strategy)
	if err != nil {
		return nil, err
	}

	mp := Mempool{
		pool:     make(map[string]database.BlockTx),
		selectFn: selectFn,
	}

	return &mp, nil
}

// Count returns the current number of transactions in the pool.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.pool)
}

// Upsert adds or replaces a transaction in the mempool.
func (mp *Mempool) Upsert(tx database.BlockTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return 0, err
	}

	mp.pool[key] = tx

	return len(mp.pool), nil
}

// Delete removes a transaction from the mempool.
func (mp *Mempool) Delete(tx database.BlockTx) error {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key, err := mapKey(tx)
	if err != nil {
		return err
	}

	delete(mp.pool, key)

	return nil
}

// Truncate clears all the transactions from the pool.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.pool = make(map[string]database.BlockTx)
}

// PickBest uses the configured sort strategy to return the next set of
// transactions for the next block, ranked under the specified base fee.
func (mp *Mempool) PickBest(baseFee *uint256.Int, howMany int) []database.BlockTx {

	// Group the transactions by account.
	m := make(map[database.AccountID][]database.BlockTx)
	mp.mu.RLock()
	{
		if howMany == -1 {
			howMany = len(mp.pool)
		}

		for key, tx := range mp.pool {
			accountID := accountFromMapKey(key)
			m[accountID] = append(m[accountID], tx)
		}
	}
	mp.mu.RUnlock()

	return mp.selectFn(m, baseFee, howMany)
}

// =============================================================================

// mapKey is used to generate the map key.
func mapKey(tx database.BlockTx) (string, error) {
	accountID, err := tx.FromAccount()
	if err != nil {
		return "", fmt.Errorf("map key: %w", err)
	}

	return fmt.Sprintf("%s:%d", accountID, tx.Nonce), nil
}

// accountFromMapKey extracts the account id from the map key.
func accountFromMapKey(key string) database.AccountID {
	return database.AccountID(strings.Split(key, ":")[0])
}
