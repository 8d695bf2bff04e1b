// Package genesis maintains access to the genesis file.
package genesis

import (
	"encoding/json"
	"os"
	"time"
)

// Genesis represents the genesis file.
type Genesis struct {
	Date            time.Time         `json:"date"`
	ChainID         uint16            `json:"chain_id"`          // The chain id represents an unique id for this running instance.
	TransPerBlock   uint16            `json:"trans_per_block"`   // The maximum number of transactions that can be in a block.
	GasTarget       uint64            `json:"gas_target"`        // The capacity baseline each block's base fee adjusts toward.
	InitialBaseFee  uint64            `json:"initial_base_fee"`  // The base fee for the first block at or past the fork number.
	ForkBlockNumber uint64            `json:"fork_block_number"` // The height at which fee market validation activates.
	Balances        map[string]uint64 `json:"balances"`
}

// =============================================================================

// Load opens and consumes the genesis file.
func Load() (Genesis, error) {
	path := "zblock/genesis.json"
	content, err := os.ReadFile(path)
	if err != nil {
		return Genesis{}, err
	}

	var genesis Genesis
	err = json.Unmarshal(content, &genesis)
	if err != nil {
		return Genesis{}, err
	}

	return genesis, nil
}
