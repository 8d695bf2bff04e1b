package validate

import "errors"

// Set of failure reasons a validation pass can reject a block with. Each is
// terminal for the pass: nothing is retried and nothing is partially
// accepted. The drift, arithmetic, and transaction shape failures carry the
// sentinel errors of the packages that own those rules
// (feemarket.ErrGasTargetDrift, feemarket.ErrArithmetic,
// database.ErrInvalidTxShape).
var (
	// ErrUnknownParent is returned when the block's parent cannot be
	// resolved. Chasing the missing parent is the caller's sync concern.
	ErrUnknownParent = errors.New("parent block is not known")

	// ErrGasUsedTooHigh is returned when a block declares more gas than
	// the elasticity bound allows for its gas target.
	ErrGasUsedTooHigh = errors.New("gas used exceeds elasticity bound")

	// ErrBaseFeeMismatch is returned when a block declares a base fee
	// other than the protocol mandated value derived from its parent.
	ErrBaseFeeMismatch = errors.New("declared base fee does not match protocol")

	// ErrUnknownSigner is returned when a transaction's signature does not
	// resolve to an account.
	ErrUnknownSigner = errors.New("transaction signer is not known")

	// ErrInsufficientFundsForValue is returned when the signer cannot
	// cover the transaction's value amount.
	ErrInsufficientFundsForValue = errors.New("insufficient funds for value")

	// ErrInsufficientFundsForGas is returned when the signer cannot cover
	// the worst case gas pre-charge.
	ErrInsufficientFundsForGas = errors.New("insufficient funds for gas")

	// ErrFeeCapBelowBaseFee is returned when a transaction's fee cap
	// cannot cover the block's base fee.
	ErrFeeCapBelowBaseFee = errors.New("fee cap below block base fee")

	// ErrGasUsedMismatch is returned when the gas accounted across all
	// transactions does not equal what the block declares.
	ErrGasUsedMismatch = errors.New("accounted gas does not match block header")
)
