package worker

import (
	"errors"
	"time"

	"github.com/ardanlabs/feechain/foundation/blockchain/state"
)

// proposingOperations handles block proposing.
func (w *Worker) proposingOperations() {
	w.evHandler("worker: proposingOperations: G started")
	defer w.evHandler("worker: proposingOperations: G completed")

	for {
		select {
		case <-w.startProposing:
			if !w.isShutdown() {
				w.runProposingOperation()
			}
		case <-w.ticker.C:
			if !w.isShutdown() && w.state.MempoolLength() > 0 {
				w.runProposingOperation()
			}
		case <-w.shut:
			w.evHandler("worker: proposingOperations: received shut signal")
			return
		}
	}
}

// runProposingOperation takes the best transactions from the mempool and
// writes a new validated block to the database.
func (w *Worker) runProposingOperation() {
	w.evHandler("worker: runProposingOperation: PROPOSING: started")
	defer w.evHandler("worker: runProposingOperation: PROPOSING: completed")

	// Make sure there are transactions in the mempool.
	length := w.state.MempoolLength()
	if length == 0 {
		w.evHandler("worker: runProposingOperation: PROPOSING: no transactions to propose: Txs[%d]", length)
		return
	}

	// After running a proposing operation, check if a new operation should
	// be signaled again.
	defer func() {
		length := w.state.MempoolLength()
		if length > 0 {
			w.evHandler("worker: runProposingOperation: PROPOSING: signal new proposing operation: Txs[%d]", length)
			w.SignalStartProposing()
		}
	}()

	// If proposing was cancelled while we ran, we can't pick up new work
	// until the canceller releases us.
	select {
	case wait := <-w.cancelProposing:
		w.evHandler("worker: runProposingOperation: PROPOSING: CANCEL: requested")
		<-wait
		w.evHandler("worker: runProposingOperation: PROPOSING: CANCEL: released")
		return
	default:
	}

	t := time.Now()
	block, err := w.state.ProposeBlock()
	duration := time.Since(t)

	w.evHandler("worker: runProposingOperation: PROPOSING: proposing duration[%v]", duration)

	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoTransactions):
			w.evHandler("worker: runProposingOperation: PROPOSING: WARNING: no transactions in mempool")
		default:
			w.evHandler("worker: runProposingOperation: PROPOSING: ERROR: %s", err)
		}
		return
	}

	w.evHandler("worker: runProposingOperation: PROPOSING: proposed block[%d] txs[%d]", block.Header.Number, len(block.Trans))
}
