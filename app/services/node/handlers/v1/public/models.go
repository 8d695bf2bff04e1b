package public

import (
	"math/big"

	"github.com/ardanlabs/feechain/business/sys/validate"
	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// newTx is what a wallet posts to submit a transaction. The gas price is
// present for legacy shaped transactions, the tip and fee caps for fee
// market shaped ones.
type newTx struct {
	Type      uint8              `json:"type"`
	ChainID   uint16             `json:"chain_id" validate:"required"`
	Nonce     uint64             `json:"nonce" validate:"required"`
	ToID      database.AccountID `json:"to" validate:"required"`
	Value     *uint256.Int       `json:"value"`
	GasLimit  uint64             `json:"gas_limit" validate:"required"`
	GasPrice  *uint256.Int       `json:"gas_price,omitempty"`
	GasTipCap *uint256.Int       `json:"gas_tip_cap,omitempty"`
	GasFeeCap *uint256.Int       `json:"gas_fee_cap,omitempty"`
	Data      []byte             `json:"data"`
	V         *big.Int           `json:"v" validate:"required"`
	R         *big.Int           `json:"r" validate:"required"`
	S         *big.Int           `json:"s" validate:"required"`
}

// Validate checks the data in the model is considered clean.
func (tx newTx) Validate() error {
	return validate.Check(tx)
}

// toSignedTx converts the request model into the business transaction.
func (tx newTx) toSignedTx() database.SignedTx {
	return database.SignedTx{
		Tx: database.Tx{
			Type:      tx.Type,
			ChainID:   tx.ChainID,
			Nonce:     tx.Nonce,
			ToID:      tx.ToID,
			Value:     tx.Value,
			GasLimit:  tx.GasLimit,
			GasPrice:  tx.GasPrice,
			GasTipCap: tx.GasTipCap,
			GasFeeCap: tx.GasFeeCap,
			Data:      tx.Data,
		},
		V: tx.V,
		R: tx.R,
		S: tx.S,
	}
}

// =============================================================================

// tx is the response model for transactions in the mempool.
type tx struct {
	FromAccount database.AccountID `json:"from"`
	FromName    string             `json:"from_name"`
	To          database.AccountID `json:"to"`
	ToName      string             `json:"to_name"`
	Type        uint8              `json:"type"`
	Nonce       uint64             `json:"nonce"`
	Value       *uint256.Int       `json:"value"`
	GasLimit    uint64             `json:"gas_limit"`
	GasPrice    *uint256.Int       `json:"gas_price,omitempty"`
	GasTipCap   *uint256.Int       `json:"gas_tip_cap,omitempty"`
	GasFeeCap   *uint256.Int       `json:"gas_fee_cap,omitempty"`
	Data        []byte             `json:"data"`
	TimeStamp   uint64             `json:"timestamp"`
	Sig         string             `json:"sig"`
}

// info is the response model for account information.
type info struct {
	Account database.AccountID `json:"account"`
	Name    string             `json:"name"`
	Balance *uint256.Int       `json:"balance"`
	Nonce   uint64             `json:"nonce"`
}

// actInfo is the response envelope for the accounts endpoint.
type actInfo struct {
	LatestBlock string `json:"latest_block"`
	Uncommitted int    `json:"uncommitted"`
	Accounts    []info `json:"accounts"`
}
