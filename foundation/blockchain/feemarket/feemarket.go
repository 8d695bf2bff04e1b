// Package feemarket implements the protocol rules for the block base fee
// and the gas target. These are pure functions shared by block validation
// and block proposing, so both sides of the network compute the exact same
// values.
package feemarket

import (
	"errors"

	"github.com/holiman/uint256"
)

// Protocol constants for the fee market. These are consensus rules, not
// runtime configuration.
const (
	// BaseFeeChangeDenominator bounds the base fee adjustment to at most
	// 1/8th (12.5%) per block in either direction.
	BaseFeeChangeDenominator = 8

	// ElasticityMultiplier bounds how far a single block may exceed the
	// gas target.
	ElasticityMultiplier = 2

	// GasTargetBoundDivisor bounds how much the gas target may drift from
	// one block to the next.
	GasTargetBoundDivisor = 1024
)

// ErrGasTargetDrift is returned when a block moves its gas target further
// from its parent's than the protocol allows.
var ErrGasTargetDrift = errors.New("gas target out of bounds from parent")

// ErrArithmetic is returned when a fee or balance calculation would wrap or
// divide by zero. This is never a valid protocol state. Seeing it means the
// caller handed in values the protocol bounds away, so it indicates a bug,
// not a bad block.
var ErrArithmetic = errors.New("arithmetic invariant violation")

// =============================================================================

// VerifyGasTarget checks the candidate block's gas target stays within
// 1/1024th of the parent's gas target, boundary inclusive.
func VerifyGasTarget(parentGasTarget uint64, gasTarget uint64) error {
	if parentGasTarget == 0 {
		return ErrArithmetic
	}

	bound := parentGasTarget / GasTargetBoundDivisor

	if gasTarget > parentGasTarget+bound {
		return ErrGasTargetDrift
	}

	if gasTarget < parentGasTarget-bound {
		return ErrGasTargetDrift
	}

	return nil
}

// ExpectedBaseFee computes the mandatory base fee for the block that
// follows a parent with the specified base fee, gas used and gas target.
// The base fee holds at the target, rises by at least one unit when the
// parent ran over target, and falls (possibly by zero) when it ran under.
func ExpectedBaseFee(parentBaseFee *uint256.Int, parentGasUsed uint64, parentGasTarget uint64) (*uint256.Int, error) {
	if parentGasTarget == 0 {
		return nil, ErrArithmetic
	}

	// The base fee is a fixed point at the gas target.
	if parentGasUsed == parentGasTarget {
		return parentBaseFee.Clone(), nil
	}

	target := uint256.NewInt(parentGasTarget)
	denominator := uint256.NewInt(BaseFeeChangeDenominator)

	if parentGasUsed > parentGasTarget {

		// feeDelta = max(1, parentBaseFee * (gasUsed - gasTarget) / gasTarget / 8)
		feeDelta := uint256.NewInt(parentGasUsed - parentGasTarget)
		if _, overflow := feeDelta.MulOverflow(feeDelta, parentBaseFee); overflow {
			return nil, ErrArithmetic
		}
		feeDelta.Div(feeDelta, target)
		feeDelta.Div(feeDelta, denominator)

		if feeDelta.IsZero() {
			feeDelta.SetOne()
		}

		baseFee := new(uint256.Int)
		if _, overflow := baseFee.AddOverflow(parentBaseFee, feeDelta); overflow {
			return nil, ErrArithmetic
		}
		return baseFee, nil
	}

	// feeDelta = parentBaseFee * (gasTarget - gasUsed) / gasTarget / 8
	feeDelta := uint256.NewInt(parentGasTarget - parentGasUsed)
	if _, overflow := feeDelta.MulOverflow(feeDelta, parentBaseFee); overflow {
		return nil, ErrArithmetic
	}
	feeDelta.Div(feeDelta, target)
	feeDelta.Div(feeDelta, denominator)

	// By construction feeDelta <= parentBaseFee/8, so this subtraction can
	// never go negative. If it does, the inputs were corrupt.
	baseFee := new(uint256.Int)
	if _, underflow := baseFee.SubOverflow(parentBaseFee, feeDelta); underflow {
		return nil, ErrArithmetic
	}
	return baseFee, nil
}

// MaxBlockGas returns the hard cap on gas a block may consume for the
// specified gas target, applying the elasticity multiplier with an
// overflow check.
func MaxBlockGas(gasTarget uint64) (uint64, error) {
	max := new(uint256.Int)
	if _, overflow := max.MulOverflow(uint256.NewInt(gasTarget), uint256.NewInt(ElasticityMultiplier)); overflow {
		return 0, ErrArithmetic
	}
	if !max.IsUint64() {
		return 0, ErrArithmetic
	}
	return max.Uint64(), nil
}
