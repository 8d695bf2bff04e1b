package feemarket_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/feechain/foundation/blockchain/feemarket"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_ExpectedBaseFee(t *testing.T) {
	type table struct {
		name      string
		baseFee   uint64
		gasUsed   uint64
		gasTarget uint64
		expected  uint64
	}

	tt := []table{
		{name: "equilibrium", baseFee: 100, gasUsed: 1000, gasTarget: 1000, expected: 100},
		{name: "over-target", baseFee: 100, gasUsed: 1500, gasTarget: 1000, expected: 106},
		{name: "under-target", baseFee: 100, gasUsed: 500, gasTarget: 1000, expected: 94},
		{name: "over-target-min-increase", baseFee: 1, gasUsed: 1001, gasTarget: 1000, expected: 2},
		{name: "under-target-zero-decrease", baseFee: 1, gasUsed: 999, gasTarget: 1000, expected: 1},
		{name: "zero-fee-over-target", baseFee: 0, gasUsed: 2000, gasTarget: 1000, expected: 1},
		{name: "zero-fee-under-target", baseFee: 0, gasUsed: 0, gasTarget: 1000, expected: 0},
		{name: "full-drop", baseFee: 80, gasUsed: 0, gasTarget: 1000, expected: 70},
	}

	t.Log("Given the need to compute the next block's base fee.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling parent fee %d, used %d, target %d.", testID, tst.baseFee, tst.gasUsed, tst.gasTarget)
			{
				f := func(t *testing.T) {
					baseFee, err := feemarket.ExpectedBaseFee(uint256.NewInt(tst.baseFee), tst.gasUsed, tst.gasTarget)
					if err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould be able to compute the base fee: %v", failed, testID, err)
					}
					t.Logf("\t%s\tTest %d:\tShould be able to compute the base fee.", success, testID)

					if !baseFee.Eq(uint256.NewInt(tst.expected)) {
						t.Logf("\t\tTest %d:\tgot: %s", testID, baseFee)
						t.Logf("\t\tTest %d:\texp: %d", testID, tst.expected)
						t.Fatalf("\t%s\tTest %d:\tShould get the expected base fee.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould get the expected base fee.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_ExpectedBaseFeeFixedPoint(t *testing.T) {
	t.Log("Given the need to validate the base fee holds at the gas target.")
	{
		for _, fee := range []uint64{1, 7, 100, 1_000_000_000} {
			baseFee, err := feemarket.ExpectedBaseFee(uint256.NewInt(fee), 15_000_000, 15_000_000)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to compute the base fee: %v", failed, err)
			}

			if !baseFee.Eq(uint256.NewInt(fee)) {
				t.Logf("\t\tgot: %s", baseFee)
				t.Logf("\t\texp: %d", fee)
				t.Fatalf("\t%s\tShould hold the base fee at the target.", failed)
			}
		}
		t.Logf("\t%s\tShould hold the base fee at the target for all fees.", success)
	}
}

func Test_ExpectedBaseFeeBounds(t *testing.T) {
	t.Log("Given the need to bound the base fee change to 1/8th per block.")
	{
		baseFee := uint64(8000)
		gasTarget := uint64(1000)

		// A block at the elasticity cap moves the fee up by exactly 1/8th.
		up, err := feemarket.ExpectedBaseFee(uint256.NewInt(baseFee), 2000, gasTarget)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the base fee: %v", failed, err)
		}
		if !up.Eq(uint256.NewInt(9000)) {
			t.Fatalf("\t%s\tShould cap the increase at 1/8th: got %s", failed, up)
		}
		t.Logf("\t%s\tShould cap the increase at 1/8th.", success)

		// An empty block moves the fee down by exactly 1/8th.
		down, err := feemarket.ExpectedBaseFee(uint256.NewInt(baseFee), 0, gasTarget)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the base fee: %v", failed, err)
		}
		if !down.Eq(uint256.NewInt(7000)) {
			t.Fatalf("\t%s\tShould cap the decrease at 1/8th: got %s", failed, down)
		}
		t.Logf("\t%s\tShould cap the decrease at 1/8th.", success)
	}
}

func Test_ExpectedBaseFeeZeroTarget(t *testing.T) {
	t.Log("Given the need to reject a zero gas target.")
	{
		if _, err := feemarket.ExpectedBaseFee(uint256.NewInt(100), 500, 0); !errors.Is(err, feemarket.ErrArithmetic) {
			t.Fatalf("\t%s\tShould get ErrArithmetic for a zero gas target: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrArithmetic for a zero gas target.", success)
	}
}

func Test_VerifyGasTarget(t *testing.T) {
	type table struct {
		name      string
		parent    uint64
		candidate uint64
		valid     bool
	}

	tt := []table{
		{name: "same", parent: 1_024_000, candidate: 1_024_000, valid: true},
		{name: "upper-boundary", parent: 1_024_000, candidate: 1_025_000, valid: true},
		{name: "lower-boundary", parent: 1_024_000, candidate: 1_023_000, valid: true},
		{name: "above-upper", parent: 1_024_000, candidate: 1_025_001, valid: false},
		{name: "below-lower", parent: 1_024_000, candidate: 1_022_999, valid: false},
		{name: "tiny-parent", parent: 1000, candidate: 1000, valid: true},
		{name: "tiny-parent-up", parent: 1000, candidate: 1001, valid: false},
	}

	t.Log("Given the need to bound the gas target drift between blocks.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling parent target %d and candidate target %d.", testID, tst.parent, tst.candidate)
			{
				f := func(t *testing.T) {
					err := feemarket.VerifyGasTarget(tst.parent, tst.candidate)

					switch tst.valid {
					case true:
						if err != nil {
							t.Fatalf("\t%s\tTest %d:\tShould accept the gas target: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould accept the gas target.", success, testID)

					case false:
						if !errors.Is(err, feemarket.ErrGasTargetDrift) {
							t.Fatalf("\t%s\tTest %d:\tShould reject with ErrGasTargetDrift: %v", failed, testID, err)
						}
						t.Logf("\t%s\tTest %d:\tShould reject with ErrGasTargetDrift.", success, testID)
					}
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_VerifyGasTargetZeroParent(t *testing.T) {
	t.Log("Given the need to reject a zero parent gas target.")
	{
		if err := feemarket.VerifyGasTarget(0, 1000); !errors.Is(err, feemarket.ErrArithmetic) {
			t.Fatalf("\t%s\tShould get ErrArithmetic for a zero parent gas target: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrArithmetic for a zero parent gas target.", success)
	}
}

func Test_MaxBlockGas(t *testing.T) {
	t.Log("Given the need to apply the elasticity multiplier to the gas target.")
	{
		max, err := feemarket.MaxBlockGas(1000)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the block gas cap: %v", failed, err)
		}
		if max != 2000 {
			t.Fatalf("\t%s\tShould get a cap of 2000: got %d", failed, max)
		}
		t.Logf("\t%s\tShould get a cap of 2000.", success)

		if _, err := feemarket.MaxBlockGas(math.MaxUint64); !errors.Is(err, feemarket.ErrArithmetic) {
			t.Fatalf("\t%s\tShould get ErrArithmetic when the cap overflows: %v", failed, err)
		}
		t.Logf("\t%s\tShould get ErrArithmetic when the cap overflows.", success)
	}
}
