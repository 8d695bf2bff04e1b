// Package worker implements block proposing for the blockchain.
package worker

import (
	"sync"
	"time"

	"github.com/ardanlabs/feechain/foundation/blockchain/state"
)

// proposeInterval represents the interval at which the worker checks the
// mempool for pending transactions on its own, independent of signals.
const proposeInterval = time.Minute

// =============================================================================

// Worker manages the block proposing workflow for the blockchain.
type Worker struct {
	state           *state.State
	wg              sync.WaitGroup
	ticker          time.Ticker
	shut            chan struct{}
	startProposing  chan bool
	cancelProposing chan chan struct{}
	evHandler       state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	w := Worker{
		state:           st,
		ticker:          *time.NewTicker(proposeInterval),
		shut:            make(chan struct{}),
		startProposing:  make(chan bool, 1),
		cancelProposing: make(chan chan struct{}, 1),
		evHandler:       evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.proposingOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: stop ticker")
	w.ticker.Stop()

	w.evHandler("worker: shutdown: signal cancel proposing")
	done := w.SignalCancelProposing()
	done()

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartProposing starts a proposing operation. If there is already a
// signal pending in the channel, just return since a proposing operation
// will start.
func (w *Worker) SignalStartProposing() {
	select {
	case w.startProposing <- true:
	default:
	}
	w.evHandler("worker: SignalStartProposing: proposing signaled")
}

// SignalCancelProposing signals the G executing the runProposingOperation
// function to stop immediately. The returned function must be called to
// release the proposing G once the caller is ready for new work.
func (w *Worker) SignalCancelProposing() (done func()) {
	wait := make(chan struct{})

	select {
	case w.cancelProposing <- wait:
	default:
		close(wait)
		return func() {}
	}
	w.evHandler("worker: SignalCancelProposing: PROPOSING: CANCEL: signaled")

	return func() { close(wait) }
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
