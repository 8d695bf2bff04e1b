package state

import (
	"fmt"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/genesis"
	"github.com/holiman/uint256"
)

// Genesis returns a copy of the genesis information.
func (s *State) Genesis() genesis.Genesis {
	return s.genesis
}

// LatestBlock returns a copy of the current latest block.
func (s *State) LatestBlock() database.Block {
	return s.db.LatestBlock()
}

// Mempool returns a copy of the mempool.
func (s *State) Mempool() []database.BlockTx {
	return s.mempool.PickBest(s.baseFeeView(), -1)
}

// MempoolLength returns the current length of the mempool.
func (s *State) MempoolLength() int {
	return s.mempool.Count()
}

// Accounts returns a copy of the database accounts.
func (s *State) Accounts() map[database.AccountID]database.Account {
	return s.db.CopyAccounts()
}

// QueryAccount returns a copy of the account from the database.
func (s *State) QueryAccount(account database.AccountID) (database.Account, bool) {
	return s.db.Account(account)
}

// QueryBlocksByNumber returns the set of blocks based on block numbers. This
// function reads the blockchain from storage first.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) ([]database.Block, error) {
	if from == QueryLatest {
		latest := s.db.LatestBlock()
		from = latest.Header.Number
		to = from
	}

	var out []database.Block
	iter := s.db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, fmt.Errorf("reading block from storage: %w", err)
		}

		if block.Header.Number >= from && block.Header.Number <= to {
			out = append(out, block)
		}
	}

	return out, nil
}

// NextBaseFee returns the base fee the next block is required to declare.
func (s *State) NextBaseFee() (*uint256.Int, error) {
	return s.nextBaseFee(s.db.LatestBlock())
}

// QueryLatest represents to query the latest block in the chain.
const QueryLatest = ^uint64(0) >> 1

// baseFeeView gives the mempool a ranking base fee even when the chain is
// between the genesis block and the fork.
func (s *State) baseFeeView() *uint256.Int {
	baseFee, err := s.nextBaseFee(s.db.LatestBlock())
	if err != nil {
		return uint256.NewInt(s.genesis.InitialBaseFee)
	}
	return baseFee
}
