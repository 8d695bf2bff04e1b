package state

import (
	"errors"
	"fmt"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/feemarket"
	"github.com/ardanlabs/feechain/foundation/blockchain/validate"
	"github.com/holiman/uint256"
)

// ErrNoTransactions is returned from ProposeBlock when there are no
// pending transactions to fill a block with.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// ProposeBlock assembles the best pending transactions into a new block,
// validates it through the same rules any received block passes, and
// commits it to the chain.
func (s *State) ProposeBlock() (database.Block, error) {
	s.evHandler("state: ProposeBlock: started")
	defer s.evHandler("state: ProposeBlock: completed")

	latest := s.db.LatestBlock()

	baseFee, err := s.nextBaseFee(latest)
	if err != nil {
		return database.Block{}, err
	}

	gasTarget := s.genesis.GasTarget
	maxGas, err := feemarket.MaxBlockGas(gasTarget)
	if err != nil {
		return database.Block{}, err
	}

	// Pick the best paying transactions and keep them while the block has
	// gas capacity left.
	picked := s.mempool.PickBest(baseFee, int(s.genesis.TransPerBlock))
	if len(picked) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	var trans []database.BlockTx
	var gasUsed uint64
	for _, tx := range picked {
		gas := consumedGas(tx)
		if gasUsed+gas > maxGas {
			break
		}
		gasUsed += gas
		trans = append(trans, tx)
	}

	block, err := database.NewBlock(s.beneficiaryID, latest, gasTarget, gasUsed, baseFee, trans)
	if err != nil {
		return database.Block{}, err
	}

	s.evHandler("state: ProposeBlock: proposed: blk[%d]: txs[%d] gas[%d] basefee[%v]", block.Header.Number, len(trans), gasUsed, baseFee)

	if err := s.commitBlock(block); err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ProcessProposedBlock takes a block received from another node, validates
// it and if that passes, writes the block to the chain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: blk[%d]", block.Header.Number)
	defer s.evHandler("state: ProcessProposedBlock: completed")

	return s.commitBlock(block)
}

// =============================================================================

// commitBlock runs the block through full validation and applies it to the
// chain under the state lock so concurrent proposals serialize.
func (s *State) commitBlock(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.applyBlock(block, true); err != nil {
		return err
	}

	// Remove the transactions in this block from the mempool.
	for _, tx := range block.Trans {
		s.mempool.Delete(tx)
	}

	return nil
}

// applyBlock stages the block's balance mutations in a copy-on-write
// overlay, validates the block against the fee market rules, and only on
// full success applies the overlay and the block atomically. Any failure
// discards the overlay whole: there is no partial acceptance.
func (s *State) applyBlock(block database.Block, persist bool) error {
	if block.Header.Number < s.genesis.ForkBlockNumber {
		return fmt.Errorf("block %d predates the fee market fork at %d", block.Header.Number, s.genesis.ForkBlockNumber)
	}

	if err := block.ValidateChainLink(s.db.LatestBlock()); err != nil {
		return err
	}

	if err := block.ValidateTransRoot(); err != nil {
		return err
	}

	overlay := newOverlay(s.db, s.genesis, s.evHandler)

	v, err := validate.New(validate.Config{
		World:           overlay,
		ForkBlockNumber: s.genesis.ForkBlockNumber,
		InitialBaseFee:  uint256.NewInt(s.genesis.InitialBaseFee),
		EvHandler:       validate.EventHandler(s.evHandler),
	})
	if err != nil {
		return err
	}

	if err := v.ValidateBlock(block); err != nil {
		return err
	}

	overlay.Commit()

	if persist {
		if err := s.db.Write(block); err != nil {
			return err
		}
	}

	s.db.UpdateLatestBlock(block)

	return nil
}

// nextBaseFee computes the base fee the next block must declare.
func (s *State) nextBaseFee(latest database.Block) (*uint256.Int, error) {
	if latest.Header.Number+1 == s.genesis.ForkBlockNumber {
		return uint256.NewInt(s.genesis.InitialBaseFee), nil
	}

	parentBaseFee := latest.Header.BaseFee
	if parentBaseFee == nil {
		parentBaseFee = new(uint256.Int)
	}

	parentGasTarget := latest.Header.GasTarget
	if latest.Header.Number == 0 {
		parentGasTarget = s.genesis.GasTarget
	}

	return feemarket.ExpectedBaseFee(parentBaseFee, latest.Header.GasUsed, parentGasTarget)
}
