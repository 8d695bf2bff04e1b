package database

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ardanlabs/feechain/foundation/blockchain/signature"
	"github.com/holiman/uint256"
)

// Set of transaction types supported by the chain. Any other value is an
// unknown shape and is rejected by Normalize.
const (
	TxTypeLegacy    = 0x0
	TxTypeFeeMarket = 0x2
)

// ErrInvalidTxShape is returned when a transaction carries a type tag
// outside the two known transaction shapes.
var ErrInvalidTxShape = errors.New("transaction is not a known shape")

// =============================================================================

// Tx is the transactional information between two parties. The Type field
// tags which shape the transaction takes: a legacy transaction carries a
// single gas price, a fee-market transaction carries a fee cap and a tip cap.
type Tx struct {
	Type      uint8        `json:"type"`                  // Shape of the transaction, legacy or fee market.
	ChainID   uint16       `json:"chain_id"`              // The chain id that is listed in the genesis file.
	Nonce     uint64       `json:"nonce"`                 // Unique id for the transaction supplied by the user.
	ToID      AccountID    `json:"to"`                    // Account receiving the benefit of the transaction.
	Value     *uint256.Int `json:"value"`                 // Monetary value received from this transaction.
	GasLimit  uint64       `json:"gas_limit"`             // Maximum amount of gas the sender pays for.
	GasPrice  *uint256.Int `json:"gas_price,omitempty"`   // Legacy: single price paid per unit of gas.
	GasTipCap *uint256.Int `json:"gas_tip_cap,omitempty"` // Fee market: maximum tip per gas paid to the beneficiary.
	GasFeeCap *uint256.Int `json:"gas_fee_cap,omitempty"` // Fee market: maximum total price per gas, base fee included.
	Data      []byte       `json:"data"`                  // Extra data related to the transaction.
}

// NewTx constructs a new fee-market transaction.
func NewTx(chainID uint16, nonce uint64, toID AccountID, value *uint256.Int, gasLimit uint64, gasTipCap *uint256.Int, gasFeeCap *uint256.Int, data []byte) (Tx, error) {
	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		Type:      TxTypeFeeMarket,
		ChainID:   chainID,
		Nonce:     nonce,
		ToID:      toID,
		Value:     value,
		GasLimit:  gasLimit,
		GasTipCap: gasTipCap,
		GasFeeCap: gasFeeCap,
		Data:      data,
	}

	return tx, nil
}

// NewLegacyTx constructs a new legacy transaction carrying a single gas price.
func NewLegacyTx(chainID uint16, nonce uint64, toID AccountID, value *uint256.Int, gasLimit uint64, gasPrice *uint256.Int, data []byte) (Tx, error) {
	if !toID.IsAccountID() {
		return Tx{}, fmt.Errorf("to account is not properly formatted")
	}

	tx := Tx{
		Type:     TxTypeLegacy,
		ChainID:  chainID,
		Nonce:    nonce,
		ToID:     toID,
		Value:    value,
		GasLimit: gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	}

	return tx, nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// Validate the to account address is a valid address.
	if !tx.ToID.IsAccountID() {
		return SignedTx{}, fmt.Errorf("to account is not properly formatted")
	}

	// Sign the transaction with the private key to produce a signature.
	v, r, s, err := signature.Sign(tx, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	// Construct the signed transaction by adding the signature
	// in the [R|S|V] format.
	signedTx := SignedTx{
		Tx: tx,
		V:  v,
		R:  r,
		S:  s,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain.
type SignedTx struct {
	Tx
	V *big.Int `json:"v"` // Recovery identifier, either 29 or 30 with feechainID.
	R *big.Int `json:"r"` // First coordinate of the ECDSA signature.
	S *big.Int `json:"s"` // Second coordinate of the ECDSA signature.
}

// Validate verifies the transaction has a proper signature that conforms to
// our standards and is associated with the data claimed to be signed. It
// also checks the format of the to account.
func (tx SignedTx) Validate(chainID uint16) error {
	if tx.ChainID != chainID {
		return fmt.Errorf("invalid chain id, got[%d] exp[%d]", tx.ChainID, chainID)
	}

	if !tx.ToID.IsAccountID() {
		return errors.New("invalid account for to account")
	}

	if err := signature.VerifySignature(tx.Tx, tx.V, tx.R, tx.S); err != nil {
		return err
	}

	return nil
}

// FromAccount extracts the account id that signed the transaction.
func (tx SignedTx) FromAccount() (AccountID, error) {
	address, err := signature.FromAddress(tx.Tx, tx.V, tx.R, tx.S)
	return AccountID(address), err
}

// SignatureString returns the signature as a string.
func (tx SignedTx) SignatureString() string {
	return signature.SignatureString(tx.V, tx.R, tx.S)
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	from, err := tx.FromAccount()
	if err != nil {
		from = "unknown"
	}

	return fmt.Sprintf("%s:%d", from, tx.Nonce)
}

// =============================================================================

// BlockTx represents the transaction as it's recorded inside a block. This
// includes a timestamp of when it was received.
type BlockTx struct {
	SignedTx
	TimeStamp uint64 `json:"timestamp"` // The time the transaction was received.
}

// NewBlockTx constructs a new block transaction.
func NewBlockTx(signedTx SignedTx) BlockTx {
	return BlockTx{
		SignedTx:  signedTx,
		TimeStamp: uint64(time.Now().UTC().Unix()),
	}
}

// Normalize maps any transaction shape into the canonical fee-market shape
// the accounting rules operate on. A legacy transaction is mapped by setting
// both the tip cap and the fee cap to its single gas price, so a legacy
// sender always pays their declared price regardless of the base fee. A
// fee-market transaction is returned unchanged. Any other shape fails with
// ErrInvalidTxShape.
func (tx BlockTx) Normalize() (BlockTx, error) {
	switch tx.Type {
	case TxTypeFeeMarket:
		return tx, nil

	case TxTypeLegacy:
		norm := tx
		norm.Type = TxTypeFeeMarket
		norm.GasTipCap = tx.GasPrice
		norm.GasFeeCap = tx.GasPrice
		norm.GasPrice = nil
		return norm, nil

	default:
		return BlockTx{}, fmt.Errorf("normalize transaction type %d: %w", tx.Type, ErrInvalidTxShape)
	}
}

// Hash returns a unique hash of the block transaction.
func (tx BlockTx) Hash() ([]byte, error) {
	str := signature.Hash(tx)
	return hex.DecodeString(str[2:])
}

// Equals provides an equality check between two block transactions. If the
// nonce and signatures are the same, the two transactions are the same.
func (tx BlockTx) Equals(otherTx BlockTx) bool {
	txSig := signature.ToSignatureBytes(tx.V, tx.R, tx.S)
	otherTxSig := signature.ToSignatureBytes(otherTx.V, otherTx.R, otherTx.S)

	return tx.Nonce == otherTx.Nonce && bytes.Equal(txSig, otherTxSig)
}
