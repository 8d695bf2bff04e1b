// Package validate implements the fee market consensus rules for accepting
// a block into the chain. A single Validator instance performs one
// validation pass over one block and is then discarded. The pass is
// fail-fast: the first violated rule rejects the block and no further
// checks run.
//
// The validator never touches storage directly. Everything it needs from
// the surrounding chain state is supplied through the World capability
// interface, and every balance it mutates belongs to the World. Running a
// pass against a copy-on-write World keeps a rejected block from leaving
// any trace.
package validate

import (
	"fmt"
	"math"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/feemarket"
	"github.com/holiman/uint256"
)

// EventHandler defines a function that is called when events occur in the
// processing of blocks and transactions.
type EventHandler func(v string, args ...any)

// World represents the set of chain state capabilities the validator needs.
// The accounts returned are mutable references owned by the World; the
// validator adjusts balances through them and nothing else.
type World interface {
	Parent(block database.Block) (database.Block, error)
	BlockHash(block database.Block) string
	Transactions(block database.Block) []database.BlockTx
	ExecuteTransaction(tx database.BlockTx, effectiveGasPrice *uint256.Int) (gasUsed uint64, err error)
	TransactionSignerAccount(tx database.BlockTx) (*database.Account, error)
	Account(accountID database.AccountID) *database.Account
}

// =============================================================================

// Config represents the required settings to construct a Validator.
type Config struct {
	World           World
	ForkBlockNumber uint64
	InitialBaseFee  *uint256.Int
	EvHandler       EventHandler
}

// Validator performs one fee market validation pass over one block.
type Validator struct {
	world           World
	forkBlockNumber uint64
	initialBaseFee  *uint256.Int
	evHandler       EventHandler
}

// New constructs a Validator for a single validation pass.
func New(cfg Config) (*Validator, error) {
	if cfg.World == nil {
		return nil, fmt.Errorf("world capabilities are required")
	}

	if cfg.InitialBaseFee == nil {
		return nil, fmt.Errorf("initial base fee is required")
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	v := Validator{
		world:           cfg.World,
		forkBlockNumber: cfg.ForkBlockNumber,
		initialBaseFee:  cfg.InitialBaseFee,
		evHandler:       ev,
	}

	return &v, nil
}

// ValidateBlock runs the full set of consensus checks against the block and
// accounts for every transaction it carries. Any error rejects the block as
// a whole; the caller owns discarding the balance mutations already staged.
func (v *Validator) ValidateBlock(block database.Block) error {
	v.evHandler("validate: blk[%d]: check: parent is known", block.Header.Number)

	parent, err := v.world.Parent(block)
	if err != nil {
		return fmt.Errorf("lookup parent of block %d: %w", block.Header.Number, err)
	}

	v.evHandler("validate: blk[%d]: parent[%s]: check: gas used within elasticity bound", block.Header.Number, v.world.BlockHash(parent))

	maxGas, err := feemarket.MaxBlockGas(block.Header.GasTarget)
	if err != nil {
		return err
	}
	if block.Header.GasUsed > maxGas {
		return fmt.Errorf("block gas used %d exceeds %d: %w", block.Header.GasUsed, maxGas, ErrGasUsedTooHigh)
	}

	v.evHandler("validate: blk[%d]: check: gas target drift within bounds", block.Header.Number)

	if err := feemarket.VerifyGasTarget(parent.Header.GasTarget, block.Header.GasTarget); err != nil {
		return fmt.Errorf("gas target %d from parent %d: %w", block.Header.GasTarget, parent.Header.GasTarget, err)
	}

	v.evHandler("validate: blk[%d]: check: declared base fee matches protocol", block.Header.Number)

	expectedBaseFee, err := v.expectedBaseFee(block, parent)
	if err != nil {
		return err
	}
	if block.Header.BaseFee == nil || !block.Header.BaseFee.Eq(expectedBaseFee) {
		return fmt.Errorf("block base fee %v, expected %v: %w", block.Header.BaseFee, expectedBaseFee, ErrBaseFeeMismatch)
	}

	v.evHandler("validate: blk[%d]: accounting transactions", block.Header.Number)

	var totalGasUsed uint64
	for i, tx := range v.world.Transactions(block) {
		gasUsed, err := v.applyTransaction(block, tx)
		if err != nil {
			return fmt.Errorf("transaction[%d] %s: %w", i, tx, err)
		}

		if totalGasUsed > math.MaxUint64-gasUsed {
			return fmt.Errorf("accumulating block gas: %w", feemarket.ErrArithmetic)
		}
		totalGasUsed += gasUsed
	}

	if totalGasUsed != block.Header.GasUsed {
		return fmt.Errorf("block declares gas used %d, accounted %d: %w", block.Header.GasUsed, totalGasUsed, ErrGasUsedMismatch)
	}

	v.evHandler("validate: blk[%d]: valid: gas used %d", block.Header.Number, totalGasUsed)

	return nil
}

// expectedBaseFee computes the base fee the block must declare. The first
// block at the fork number has no fee market parent to derive from, so it
// uses the protocol's initial base fee.
func (v *Validator) expectedBaseFee(block database.Block, parent database.Block) (*uint256.Int, error) {
	if block.Header.Number == v.forkBlockNumber {
		return v.initialBaseFee.Clone(), nil
	}

	parentBaseFee := parent.Header.BaseFee
	if parentBaseFee == nil {
		parentBaseFee = new(uint256.Int)
	}

	return feemarket.ExpectedBaseFee(parentBaseFee, parent.Header.GasUsed, parent.Header.GasTarget)
}

// applyTransaction performs the balance accounting for a single
// transaction: the signer pays the value up front, pre-pays for the gas
// limit at the effective price, is refunded for unused gas, and the
// beneficiary is credited the tip portion only. The base fee portion is
// paid by the signer and credited to no account, which burns it.
func (v *Validator) applyTransaction(block database.Block, tx database.BlockTx) (uint64, error) {

	// Identity comes first: the signer must resolve from the transaction
	// exactly as it was signed, before any field substitution occurs.
	signer, err := v.world.TransactionSignerAccount(tx)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrUnknownSigner, err)
	}

	value := tx.Value
	if value == nil {
		value = new(uint256.Int)
	}

	if signer.Balance.Lt(value) {
		return 0, fmt.Errorf("balance %v, value %v: %w", signer.Balance, value, ErrInsufficientFundsForValue)
	}
	signer.Balance.Sub(signer.Balance, value)

	norm, err := tx.Normalize()
	if err != nil {
		return 0, err
	}

	baseFee := block.Header.BaseFee

	if norm.GasFeeCap == nil || norm.GasFeeCap.Lt(baseFee) {
		return 0, fmt.Errorf("fee cap %v, base fee %v: %w", norm.GasFeeCap, baseFee, ErrFeeCapBelowBaseFee)
	}

	// The base fee is satisfied before any tip: the tip per gas is clamped
	// to whatever headroom the fee cap leaves above the base fee.
	tipPerGas := norm.GasTipCap
	if tipPerGas == nil {
		tipPerGas = new(uint256.Int)
	}
	headroom := new(uint256.Int).Sub(norm.GasFeeCap, baseFee)
	if headroom.Lt(tipPerGas) {
		tipPerGas = headroom
	}

	effectiveGasPrice := new(uint256.Int)
	if _, overflow := effectiveGasPrice.AddOverflow(tipPerGas, baseFee); overflow {
		return 0, fmt.Errorf("effective gas price: %w", feemarket.ErrArithmetic)
	}

	// Pre-charge for the worst case before execution runs.
	prepay := new(uint256.Int)
	if _, overflow := prepay.MulOverflow(uint256.NewInt(norm.GasLimit), effectiveGasPrice); overflow {
		return 0, fmt.Errorf("gas pre-charge: %w", feemarket.ErrArithmetic)
	}
	if signer.Balance.Lt(prepay) {
		return 0, fmt.Errorf("balance %v, gas cost %v: %w", signer.Balance, prepay, ErrInsufficientFundsForGas)
	}
	signer.Balance.Sub(signer.Balance, prepay)

	gasUsed, err := v.world.ExecuteTransaction(tx, effectiveGasPrice)
	if err != nil {
		return 0, fmt.Errorf("execute transaction: %w", err)
	}
	if gasUsed > norm.GasLimit {
		return 0, fmt.Errorf("execution consumed %d of limit %d: %w", gasUsed, norm.GasLimit, feemarket.ErrArithmetic)
	}

	// Refund the unused portion of the pre-charge.
	refund := new(uint256.Int)
	if _, overflow := refund.MulOverflow(uint256.NewInt(norm.GasLimit-gasUsed), effectiveGasPrice); overflow {
		return 0, fmt.Errorf("gas refund: %w", feemarket.ErrArithmetic)
	}
	if _, overflow := signer.Balance.AddOverflow(signer.Balance, refund); overflow {
		return 0, fmt.Errorf("refund credit: %w", feemarket.ErrArithmetic)
	}

	// The beneficiary earns the tip portion only. The base fee portion of
	// what the signer paid is credited to no account.
	tip := new(uint256.Int)
	if _, overflow := tip.MulOverflow(uint256.NewInt(gasUsed), tipPerGas); overflow {
		return 0, fmt.Errorf("beneficiary tip: %w", feemarket.ErrArithmetic)
	}

	beneficiary := v.world.Account(block.Header.BeneficiaryID)
	if _, overflow := beneficiary.Balance.AddOverflow(beneficiary.Balance, tip); overflow {
		return 0, fmt.Errorf("beneficiary credit: %w", feemarket.ErrArithmetic)
	}

	v.evHandler("validate: blk[%d]: tx[%s]: gas used %d, effective price %v, tip %v", block.Header.Number, tx, gasUsed, effectiveGasPrice, tipPerGas)

	return gasUsed, nil
}
