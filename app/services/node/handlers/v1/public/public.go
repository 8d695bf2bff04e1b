// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"time"

	v1 "github.com/ardanlabs/feechain/business/web/v1"
	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/state"
	"github.com/ardanlabs/feechain/foundation/events"
	"github.com/ardanlabs/feechain/foundation/nameservice"
	"github.com/ardanlabs/feechain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	NS    *nameservice.NameService
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitWalletTransaction adds new user transactions to the mempool.
func (h Handlers) SubmitWalletTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var ntx newTx
	if err := web.Decode(r, &ntx); err != nil {
		return fmt.Errorf("unable to decode payload: %w", err)
	}

	signedTx := ntx.toSignedTx()

	h.Log.Infow("add user tran", "traceid", v.TraceID, "from:nonce", signedTx, "to", signedTx.ToID, "value", signedTx.Value)
	if err := h.State.UpsertWalletTransaction(signedTx); err != nil {
		return v1.NewRequestError(err, http.StatusBadRequest)
	}

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "transaction added to mempool",
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Genesis returns the genesis information.
func (h Handlers) Genesis(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	gen := h.State.Genesis()
	return web.Respond(ctx, w, gen, http.StatusOK)
}

// NextBaseFee returns the base fee the next block must declare.
func (h Handlers) NextBaseFee(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	baseFee, err := h.State.NextBaseFee()
	if err != nil {
		return v1.NewRequestError(err, http.StatusConflict)
	}

	resp := struct {
		BaseFee string `json:"base_fee"`
	}{
		BaseFee: baseFee.Dec(),
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Mempool returns the set of uncommitted transactions.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	acct := web.Param(r, "account")

	mempool := h.State.Mempool()

	trans := []tx{}
	for _, tran := range mempool {
		account, _ := tran.FromAccount()

		if acct != "" && (acct != string(account)) && (acct != string(tran.ToID)) {
			continue
		}

		trans = append(trans, tx{
			FromAccount: account,
			FromName:    h.NS.Lookup(account),
			To:          tran.ToID,
			ToName:      h.NS.Lookup(tran.ToID),
			Type:        tran.Type,
			Nonce:       tran.Nonce,
			Value:       tran.Value,
			GasLimit:    tran.GasLimit,
			GasPrice:    tran.GasPrice,
			GasTipCap:   tran.GasTipCap,
			GasFeeCap:   tran.GasFeeCap,
			Data:        tran.Data,
			TimeStamp:   tran.TimeStamp,
			Sig:         tran.SignatureString(),
		})
	}

	return web.Respond(ctx, w, trans, http.StatusOK)
}

// Accounts returns the current balances for all users.
func (h Handlers) Accounts(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	account := web.Param(r, "account")

	var blkAccounts map[database.AccountID]database.Account
	switch account {
	case "":
		blkAccounts = h.State.Accounts()

	default:
		accountID, err := database.ToAccountID(account)
		if err != nil {
			return v1.NewRequestError(err, http.StatusBadRequest)
		}

		blkAccounts = make(map[database.AccountID]database.Account)
		if act, exists := h.State.QueryAccount(accountID); exists {
			blkAccounts[accountID] = act
		}
	}

	acts := make([]info, 0, len(blkAccounts))
	for accountID, blkAccount := range blkAccounts {
		act := info{
			Account: accountID,
			Name:    h.NS.Lookup(accountID),
			Balance: blkAccount.Balance,
			Nonce:   blkAccount.Nonce,
		}
		acts = append(acts, act)
	}

	ai := actInfo{
		LatestBlock: h.State.LatestBlock().Hash(),
		Uncommitted: h.State.MempoolLength(),
		Accounts:    acts,
	}

	return web.Respond(ctx, w, ai, http.StatusOK)
}
