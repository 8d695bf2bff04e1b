// Package commands contains the admin tool commands. Each command rebuilds
// the chain state from disk through the same validation path the node uses,
// so what the tool prints is what a node would load.
package commands

import (
	"fmt"

	"github.com/ardanlabs/feechain/foundation/blockchain/database/storage"
	"github.com/ardanlabs/feechain/foundation/blockchain/mempool/selector"
	"github.com/ardanlabs/feechain/foundation/blockchain/state"
)

const dbPath = "zblock/blocks/"

// loadState rebuilds the chain state from the blocks on disk.
func loadState() (*state.State, error) {
	strg, err := storage.NewDisk(dbPath)
	if err != nil {
		return nil, err
	}

	return state.New(state.Config{
		Storage:        strg,
		SelectStrategy: selector.StrategyTip,
	})
}

// Balances prints the current set of balances.
func Balances(args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	defer st.Shutdown()

	var onlyAct string
	if len(args) == 3 {
		onlyAct = args[2]
	}

	fmt.Printf("LatestBlockHash: %s\n\n", st.LatestBlock().Hash())

	for accountID, account := range st.Accounts() {
		if onlyAct != "" && onlyAct != string(accountID) {
			continue
		}
		fmt.Printf("Account: %s  Balance: %s  Nonce: %d\n", accountID, account.Balance, account.Nonce)
	}

	return nil
}

// Blocks prints the blocks stored on disk.
func Blocks(args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	defer st.Shutdown()

	blocks, err := st.QueryBlocksByNumber(1, state.QueryLatest)
	if err != nil {
		return err
	}
	for _, block := range blocks {
		fmt.Printf("Block: %d  Hash: %s  Txs: %d  GasUsed: %d  BaseFee: %s\n",
			block.Header.Number, block.Hash(), len(block.Trans), block.Header.GasUsed, block.Header.BaseFee)
	}

	return nil
}

// BaseFee prints the base fee the next block must declare.
func BaseFee(args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	defer st.Shutdown()

	baseFee, err := st.NextBaseFee()
	if err != nil {
		return err
	}

	fmt.Printf("NextBaseFee: %s\n", baseFee)
	return nil
}
