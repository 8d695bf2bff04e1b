// Package selector provides different transaction selecting algorithms.
// Selection is a miner policy, not a protocol rule: two nodes are free to
// order pending transactions differently and still agree on every block.
package selector

import (
	"fmt"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// List of different select strategies.
const (
	StrategyTip = "tip"
)

// Map of different select strategies with functions.
var strategies = map[string]Func{
	StrategyTip: tipSelect,
}

// Func defines a function that takes a mempool of transactions grouped by
// account and selects howMany of them in an order based on the function's
// strategy. The base fee is supplied so a strategy can rank by what the
// beneficiary would actually earn. All selector functions MUST respect
// nonce ordering. Receiving -1 for howMany must return all the
// transactions in the strategy's ordering.
type Func func(transactions map[database.AccountID][]database.BlockTx, baseFee *uint256.Int, howMany int) []database.BlockTx

// Retrieve returns the specified select strategy function.
func Retrieve(strategy string) (Func, error) {
	fn, exists := strategies[strategy]
	if !exists {
		return nil, fmt.Errorf("strategy %q does not exist", strategy)
	}
	return fn, nil
}

// =============================================================================

// effectiveTip computes what the beneficiary would earn per unit of gas
// from this transaction under the specified base fee. A transaction whose
// fee cap cannot cover the base fee earns nothing.
func effectiveTip(tx database.BlockTx, baseFee *uint256.Int) *uint256.Int {
	norm, err := tx.Normalize()
	if err != nil {
		return new(uint256.Int)
	}

	if norm.GasFeeCap == nil || norm.GasFeeCap.Lt(baseFee) {
		return new(uint256.Int)
	}

	headroom := new(uint256.Int).Sub(norm.GasFeeCap, baseFee)

	tip := norm.GasTipCap
	if tip == nil {
		tip = new(uint256.Int)
	}
	if headroom.Lt(tip) {
		return headroom
	}

	return tip.Clone()
}

// =============================================================================

// byNonce provides sorting support by the transaction nonce value.
type byNonce []database.BlockTx

// Len returns the number of transactions in the list.
func (bn byNonce) Len() int {
	return len(bn)
}

// Less helps to sort the list by nonce in ascending order to keep the
// transactions in the right order of processing.
func (bn byNonce) Less(i, j int) bool {
	return bn[i].Nonce < bn[j].Nonce
}

// Swap moves transactions in the order of the nonce value.
func (bn byNonce) Swap(i, j int) {
	bn[i], bn[j] = bn[j], bn[i]
}

// =============================================================================

// byEffectiveTip provides sorting support by what the beneficiary earns
// under a given base fee.
type byEffectiveTip struct {
	trans   []database.BlockTx
	baseFee *uint256.Int
}

// Len returns the number of transactions in the list.
func (bt byEffectiveTip) Len() int {
	return len(bt.trans)
}

// Less helps to sort the list by effective tip in descending order to pick
// the transactions that provide the best reward.
func (bt byEffectiveTip) Less(i, j int) bool {
	return effectiveTip(bt.trans[i], bt.baseFee).Gt(effectiveTip(bt.trans[j], bt.baseFee))
}

// Swap moves transactions in the order of the effective tip value.
func (bt byEffectiveTip) Swap(i, j int) {
	bt.trans[i], bt.trans[j] = bt.trans[j], bt.trans[i]
}
