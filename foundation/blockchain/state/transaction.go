package state

import (
	"fmt"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
)

// UpsertWalletTransaction accepts a transaction from a wallet for inclusion
// into the blockchain. It performs the up-front checks a node can make
// without running full block validation, then hands the transaction to the
// mempool and signals the worker to start proposing.
func (s *State) UpsertWalletTransaction(signedTx database.SignedTx) error {
	if err := signedTx.Validate(s.genesis.ChainID); err != nil {
		return err
	}

	fromID, err := signedTx.FromAccount()
	if err != nil {
		return err
	}

	// The nonce must move forward from the signer's committed nonce.
	// Anything at or below it can never make it into a block.
	if account, exists := s.db.Account(fromID); exists {
		if signedTx.Nonce <= account.Nonce {
			return fmt.Errorf("invalid nonce, got %d, must be greater than %d", signedTx.Nonce, account.Nonce)
		}
	}

	// Reject unknown shapes at the door rather than letting them sit in
	// the pool until block validation throws them out.
	tx := database.NewBlockTx(signedTx)
	if _, err := tx.Normalize(); err != nil {
		return err
	}

	n, err := s.mempool.Upsert(tx)
	if err != nil {
		return err
	}

	s.evHandler("state: UpsertWalletTransaction: mempool count %d", n)

	if n >= int(s.genesis.TransPerBlock) {
		s.Worker.SignalStartProposing()
	}

	return nil
}
