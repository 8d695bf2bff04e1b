package state

import (
	"fmt"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/genesis"
	"github.com/ardanlabs/feechain/foundation/blockchain/validate"
	"github.com/holiman/uint256"
)

// overlay is the copy-on-write view of chain state one validation pass runs
// against. It implements the validate.World interface. All account
// mutations land in the overlay's private copies; nothing reaches the
// database until Commit, and a discarded overlay leaves no trace. This is
// what lets validation of competing blocks run side by side.
type overlay struct {
	db       *database.Database
	genesis  genesis.Genesis
	accounts map[database.AccountID]*database.Account
	ev       EventHandler
}

// newOverlay constructs a copy-on-write view over the database.
func newOverlay(db *database.Database, genesis genesis.Genesis, ev EventHandler) *overlay {
	return &overlay{
		db:       db,
		genesis:  genesis,
		accounts: make(map[database.AccountID]*database.Account),
		ev:       ev,
	}
}

// Commit applies every staged account mutation to the database in one
// atomic swap. Only called after a validation pass ran to completion.
func (ov *overlay) Commit() {
	ov.db.ApplyOverlay(ov.accounts)
}

// =============================================================================

// Parent resolves the block's parent against our view of the chain. Only a
// block extending the latest block has a known parent here; anything else
// is the caller's sync problem.
func (ov *overlay) Parent(block database.Block) (database.Block, error) {
	latest := ov.db.LatestBlock()

	if block.Header.Number != latest.Header.Number+1 {
		return database.Block{}, fmt.Errorf("block %d does not extend block %d: %w", block.Header.Number, latest.Header.Number, validate.ErrUnknownParent)
	}

	if block.Header.ParentHash != latest.Hash() {
		return database.Block{}, fmt.Errorf("parent hash %s is not latest block %s: %w", block.Header.ParentHash, latest.Hash(), validate.ErrUnknownParent)
	}

	// The zero value latest block stands in for the genesis block. It
	// predates the fee market, so the gas target baseline comes from the
	// genesis file.
	if latest.Header.Number == 0 {
		latest.Header.GasTarget = ov.genesis.GasTarget
	}

	return latest, nil
}

// BlockHash returns the unique hash for the specified block.
func (ov *overlay) BlockHash(block database.Block) string {
	return block.Hash()
}

// Transactions returns the block's transactions in inclusion order.
func (ov *overlay) Transactions(block database.Block) []database.BlockTx {
	return block.Trans
}

// ExecuteTransaction runs the transaction and reports the gas it consumed.
// The effective gas price is what any in-execution price observer sees.
// Moving the value to the destination and bumping the signer nonce are
// execution effects, so they live here and not in the fee accounting.
func (ov *overlay) ExecuteTransaction(tx database.BlockTx, effectiveGasPrice *uint256.Int) (uint64, error) {
	fromID, err := tx.FromAccount()
	if err != nil {
		return 0, fmt.Errorf("execute: resolve signer: %w", err)
	}

	ov.ev("state: execute: tx[%s]: gas price %v", tx, effectiveGasPrice)

	signer := ov.Account(fromID)
	signer.Nonce = tx.Nonce

	if tx.Value != nil {
		to := ov.Account(tx.ToID)
		if _, overflow := to.Balance.AddOverflow(to.Balance, tx.Value); overflow {
			return 0, fmt.Errorf("execute: credit destination: overflow")
		}
	}

	return consumedGas(tx), nil
}

// TransactionSignerAccount resolves the transaction's signature to the
// signing account.
func (ov *overlay) TransactionSignerAccount(tx database.BlockTx) (*database.Account, error) {
	fromID, err := tx.FromAccount()
	if err != nil {
		return nil, err
	}

	return ov.Account(fromID), nil
}

// Account returns the mutable staged copy for the specified account,
// pulling it from the database on first touch.
func (ov *overlay) Account(accountID database.AccountID) *database.Account {
	if account, exists := ov.accounts[accountID]; exists {
		return account
	}

	account, exists := ov.db.Account(accountID)
	if !exists {
		account = database.Account{AccountID: accountID, Balance: new(uint256.Int)}
	}

	staged := account.Clone()
	ov.accounts[accountID] = &staged

	return &staged
}

// =============================================================================

// Gas pricing for execution. The chain prices a transaction by its payload
// the way Ethereum prices calldata: a flat charge plus a per byte charge
// that discounts zero bytes.
const (
	txGas            = 21_000
	txDataNonZeroGas = 16
	txDataZeroGas    = 4
)

// consumedGas deterministically computes the gas a transaction consumes,
// bounded by its own gas limit.
func consumedGas(tx database.BlockTx) uint64 {
	gas := uint64(txGas)

	for _, byt := range tx.Data {
		if byt == 0 {
			gas += txDataZeroGas
			continue
		}
		gas += txDataNonZeroGas
	}

	if gas > tx.GasLimit {
		gas = tx.GasLimit
	}

	return gas
}
