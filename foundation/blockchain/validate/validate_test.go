package validate_test

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/feemarket"
	"github.com/ardanlabs/feechain/foundation/blockchain/validate"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	signerID = database.AccountID("0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4")
	minerID  = database.AccountID("0xFef311483Cc040e1A89fb9bb469eeB8A70935EF8")
	toID     = database.AccountID("0xF01813E4B85e178A83e29B8E7bF26BD830a25f32")
)

// =============================================================================

// chainWorld is a World implementation for testing that resolves signers
// from a fixed table and consumes a fixed amount of gas per transaction.
type chainWorld struct {
	parent    database.Block
	parentErr error
	accounts  map[database.AccountID]*database.Account
	signers   map[uint64]database.AccountID
	gasUsed   uint64
	observed  []*uint256.Int
}

func (w *chainWorld) Parent(block database.Block) (database.Block, error) {
	if w.parentErr != nil {
		return database.Block{}, w.parentErr
	}
	return w.parent, nil
}

func (w *chainWorld) BlockHash(block database.Block) string {
	return block.Hash()
}

func (w *chainWorld) Transactions(block database.Block) []database.BlockTx {
	return block.Trans
}

func (w *chainWorld) ExecuteTransaction(tx database.BlockTx, effectiveGasPrice *uint256.Int) (uint64, error) {
	w.observed = append(w.observed, effectiveGasPrice.Clone())
	return w.gasUsed, nil
}

func (w *chainWorld) TransactionSignerAccount(tx database.BlockTx) (*database.Account, error) {
	accountID, exists := w.signers[tx.Nonce]
	if !exists {
		return nil, errors.New("no signer for transaction")
	}
	return w.Account(accountID), nil
}

func (w *chainWorld) Account(accountID database.AccountID) *database.Account {
	account, exists := w.accounts[accountID]
	if !exists {
		account = &database.Account{AccountID: accountID, Balance: new(uint256.Int)}
		w.accounts[accountID] = account
	}
	return account
}

// =============================================================================

// feeMarketTx builds a signed-looking fee market transaction. The signature
// values are placeholders since signer resolution goes through the World.
func feeMarketTx(nonce uint64, value uint64, gasLimit uint64, tipCap uint64, feeCap uint64) database.BlockTx {
	return database.BlockTx{
		SignedTx: database.SignedTx{
			Tx: database.Tx{
				Type:      database.TxTypeFeeMarket,
				ChainID:   1,
				Nonce:     nonce,
				ToID:      toID,
				Value:     uint256.NewInt(value),
				GasLimit:  gasLimit,
				GasTipCap: uint256.NewInt(tipCap),
				GasFeeCap: uint256.NewInt(feeCap),
			},
			V: big.NewInt(29),
			R: big.NewInt(1),
			S: big.NewInt(1),
		},
	}
}

// legacyTx builds a signed-looking legacy transaction.
func legacyTx(nonce uint64, value uint64, gasLimit uint64, gasPrice uint64) database.BlockTx {
	return database.BlockTx{
		SignedTx: database.SignedTx{
			Tx: database.Tx{
				Type:     database.TxTypeLegacy,
				ChainID:  1,
				Nonce:    nonce,
				ToID:     toID,
				Value:    uint256.NewInt(value),
				GasLimit: gasLimit,
				GasPrice: uint256.NewInt(gasPrice),
			},
			V: big.NewInt(29),
			R: big.NewInt(1),
			S: big.NewInt(1),
		},
	}
}

// newWorld builds a World with an equilibrium parent block so the expected
// base fee equals the parent base fee.
func newWorld(signerBalance uint64, gasUsedPerTx uint64, baseFee uint64) *chainWorld {
	parent := database.Block{
		Header: database.BlockHeader{
			Number:    5,
			GasTarget: 1000,
			GasUsed:   1000,
			BaseFee:   uint256.NewInt(baseFee),
		},
	}

	return &chainWorld{
		parent: parent,
		accounts: map[database.AccountID]*database.Account{
			signerID: {AccountID: signerID, Balance: uint256.NewInt(signerBalance)},
			minerID:  {AccountID: minerID, Balance: new(uint256.Int)},
		},
		signers: map[uint64]database.AccountID{1: signerID, 2: signerID},
		gasUsed: gasUsedPerTx,
	}
}

// newBlock builds a candidate child of the world's parent block.
func newBlock(w *chainWorld, gasUsed uint64, baseFee uint64, trans []database.BlockTx) database.Block {
	return database.Block{
		Header: database.BlockHeader{
			ParentHash:    w.parent.Hash(),
			BeneficiaryID: minerID,
			Number:        w.parent.Header.Number + 1,
			GasTarget:     w.parent.Header.GasTarget,
			GasUsed:       gasUsed,
			BaseFee:       uint256.NewInt(baseFee),
		},
		Trans: trans,
	}
}

func newValidator(t *testing.T, w *chainWorld) *validate.Validator {
	t.Helper()

	v, err := validate.New(validate.Config{
		World:           w,
		ForkBlockNumber: 1,
		InitialBaseFee:  uint256.NewInt(100),
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the validator: %v", failed, err)
	}

	return v
}

// =============================================================================

func Test_RequiredConfig(t *testing.T) {
	t.Log("Given the need to reject a validator configuration missing capabilities.")
	{
		if _, err := validate.New(validate.Config{InitialBaseFee: uint256.NewInt(100)}); err == nil {
			t.Fatalf("\t%s\tShould reject a configuration without a world.", failed)
		}
		t.Logf("\t%s\tShould reject a configuration without a world.", success)

		if _, err := validate.New(validate.Config{World: newWorld(0, 0, 45)}); err == nil {
			t.Fatalf("\t%s\tShould reject a configuration without an initial base fee.", failed)
		}
		t.Logf("\t%s\tShould reject a configuration without an initial base fee.", success)
	}
}

func Test_ValidBlockAccounting(t *testing.T) {
	t.Log("Given the need to account a valid block's payment split.")
	{
		w := newWorld(100_000, 80, 45)
		block := newBlock(w, 80, 45, []database.BlockTx{feeMarketTx(1, 200, 100, 10, 50)})

		if err := newValidator(t, w).ValidateBlock(block); err != nil {
			t.Fatalf("\t%s\tShould be able to validate the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to validate the block.", success)

		// tip per gas = min(10, 50-45) = 5, effective price = 50.
		// signer: 100000 - 200 value - 80*50 gas = 95800.
		signer := w.accounts[signerID]
		if !signer.Balance.Eq(uint256.NewInt(95_800)) {
			t.Logf("\t\tgot: %s", signer.Balance)
			t.Logf("\t\texp: %d", 95_800)
			t.Fatalf("\t%s\tShould charge the signer value plus gas at the effective price.", failed)
		}
		t.Logf("\t%s\tShould charge the signer value plus gas at the effective price.", success)

		// miner: 80 gas * 5 tip = 400. The base fee portion 80*45 = 3600 is
		// credited to no account.
		miner := w.accounts[minerID]
		if !miner.Balance.Eq(uint256.NewInt(400)) {
			t.Logf("\t\tgot: %s", miner.Balance)
			t.Logf("\t\texp: %d", 400)
			t.Fatalf("\t%s\tShould credit the beneficiary the tip portion only.", failed)
		}
		t.Logf("\t%s\tShould credit the beneficiary the tip portion only.", success)

		if len(w.observed) != 1 || !w.observed[0].Eq(uint256.NewInt(50)) {
			t.Fatalf("\t%s\tShould expose the effective gas price to execution: %v", failed, w.observed)
		}
		t.Logf("\t%s\tShould expose the effective gas price to execution.", success)
	}
}

func Test_LegacyTransactionAccounting(t *testing.T) {
	t.Log("Given the need to account a legacy transaction through normalization.")
	{
		w := newWorld(100_000, 80, 45)
		block := newBlock(w, 80, 45, []database.BlockTx{legacyTx(1, 200, 100, 50)})

		if err := newValidator(t, w).ValidateBlock(block); err != nil {
			t.Fatalf("\t%s\tShould be able to validate the block: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to validate the block.", success)

		// A legacy price of 50 normalizes to tip cap = fee cap = 50, so the
		// tip clamps to 50-45 = 5 and the effective price is the declared 50.
		signer := w.accounts[signerID]
		if !signer.Balance.Eq(uint256.NewInt(95_800)) {
			t.Fatalf("\t%s\tShould charge the legacy signer their declared price: got %s", failed, signer.Balance)
		}
		t.Logf("\t%s\tShould charge the legacy signer their declared price.", success)

		miner := w.accounts[minerID]
		if !miner.Balance.Eq(uint256.NewInt(400)) {
			t.Fatalf("\t%s\tShould credit the beneficiary the clamped tip: got %s", failed, miner.Balance)
		}
		t.Logf("\t%s\tShould credit the beneficiary the clamped tip.", success)
	}
}

func Test_Idempotence(t *testing.T) {
	t.Log("Given the need to produce identical results for identical inputs.")
	{
		run := func() (*uint256.Int, *uint256.Int, error) {
			w := newWorld(100_000, 80, 45)
			block := newBlock(w, 160, 45, []database.BlockTx{
				feeMarketTx(1, 200, 100, 10, 50),
				feeMarketTx(2, 100, 100, 3, 60),
			})
			err := newValidator(t, w).ValidateBlock(block)
			return w.accounts[signerID].Balance, w.accounts[minerID].Balance, err
		}

		signer1, miner1, err1 := run()
		signer2, miner2, err2 := run()

		if err1 != nil || err2 != nil {
			t.Fatalf("\t%s\tShould be able to validate the block both times: %v %v", failed, err1, err2)
		}
		t.Logf("\t%s\tShould be able to validate the block both times.", success)

		if !signer1.Eq(signer2) || !miner1.Eq(miner2) {
			t.Fatalf("\t%s\tShould get identical balances on both runs.", failed)
		}
		t.Logf("\t%s\tShould get identical balances on both runs.", success)
	}
}

func Test_RejectionReasons(t *testing.T) {
	type table struct {
		name  string
		world func() *chainWorld
		block func(w *chainWorld) database.Block
		err   error
	}

	tt := []table{
		{
			name:  "unknown-parent",
			world: func() *chainWorld { w := newWorld(100_000, 80, 45); w.parentErr = validate.ErrUnknownParent; return w },
			block: func(w *chainWorld) database.Block { return newBlock(w, 0, 45, nil) },
			err:   validate.ErrUnknownParent,
		},
		{
			name:  "gas-used-too-high",
			world: func() *chainWorld { return newWorld(100_000, 80, 45) },
			block: func(w *chainWorld) database.Block { return newBlock(w, 2100, 45, nil) },
			err:   validate.ErrGasUsedTooHigh,
		},
		{
			name:  "gas-target-drift",
			world: func() *chainWorld { return newWorld(100_000, 80, 45) },
			block: func(w *chainWorld) database.Block {
				block := newBlock(w, 0, 45, nil)
				block.Header.GasTarget = 1001
				return block
			},
			err: feemarket.ErrGasTargetDrift,
		},
		{
			name:  "base-fee-mismatch",
			world: func() *chainWorld { return newWorld(100_000, 80, 45) },
			block: func(w *chainWorld) database.Block { return newBlock(w, 0, 46, nil) },
			err:   validate.ErrBaseFeeMismatch,
		},
		{
			name:  "unknown-signer",
			world: func() *chainWorld { w := newWorld(100_000, 80, 45); w.signers = nil; return w },
			block: func(w *chainWorld) database.Block {
				return newBlock(w, 80, 45, []database.BlockTx{feeMarketTx(1, 200, 100, 10, 50)})
			},
			err: validate.ErrUnknownSigner,
		},
		{
			name:  "insufficient-funds-for-value",
			world: func() *chainWorld { return newWorld(100, 80, 45) },
			block: func(w *chainWorld) database.Block {
				return newBlock(w, 80, 45, []database.BlockTx{feeMarketTx(1, 200, 100, 10, 50)})
			},
			err: validate.ErrInsufficientFundsForValue,
		},
		{
			name:  "insufficient-funds-for-gas",
			world: func() *chainWorld { return newWorld(250, 80, 45) },
			block: func(w *chainWorld) database.Block {
				return newBlock(w, 80, 45, []database.BlockTx{feeMarketTx(1, 200, 100, 10, 50)})
			},
			err: validate.ErrInsufficientFundsForGas,
		},
		{
			name:  "fee-cap-below-base-fee",
			world: func() *chainWorld { return newWorld(100_000, 80, 45) },
			block: func(w *chainWorld) database.Block {
				return newBlock(w, 80, 45, []database.BlockTx{feeMarketTx(1, 200, 100, 10, 40)})
			},
			err: validate.ErrFeeCapBelowBaseFee,
		},
		{
			name:  "invalid-transaction-shape",
			world: func() *chainWorld { return newWorld(100_000, 80, 45) },
			block: func(w *chainWorld) database.Block {
				tx := feeMarketTx(1, 200, 100, 10, 50)
				tx.Type = 9
				return newBlock(w, 80, 45, []database.BlockTx{tx})
			},
			err: database.ErrInvalidTxShape,
		},
		{
			name:  "gas-used-mismatch",
			world: func() *chainWorld { return newWorld(100_000, 80, 45) },
			block: func(w *chainWorld) database.Block {
				return newBlock(w, 81, 45, []database.BlockTx{feeMarketTx(1, 200, 100, 10, 50)})
			},
			err: validate.ErrGasUsedMismatch,
		},
	}

	t.Log("Given the need to reject invalid blocks with the right reason.")
	{
		for testID, tst := range tt {
			t.Logf("\tTest %d:\tWhen handling an invalid block: %s.", testID, tst.name)
			{
				f := func(t *testing.T) {
					w := tst.world()
					err := newValidator(t, w).ValidateBlock(tst.block(w))

					if !errors.Is(err, tst.err) {
						t.Logf("\t\tTest %d:\tgot: %v", testID, err)
						t.Logf("\t\tTest %d:\texp: %v", testID, tst.err)
						t.Fatalf("\t%s\tTest %d:\tShould reject with the expected reason.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould reject with the expected reason.", success, testID)
				}

				t.Run(tst.name, f)
			}
		}
	}
}

func Test_ForkActivationBaseFee(t *testing.T) {
	t.Log("Given the need to use the initial base fee at the fork block.")
	{
		w := newWorld(100_000, 80, 45)
		w.parent = database.Block{
			Header: database.BlockHeader{
				Number:    0,
				GasTarget: 1000,
			},
		}

		block := database.Block{
			Header: database.BlockHeader{
				BeneficiaryID: minerID,
				Number:        1,
				GasTarget:     1000,
				GasUsed:       0,
				BaseFee:       uint256.NewInt(100),
			},
		}

		if err := newValidator(t, w).ValidateBlock(block); err != nil {
			t.Fatalf("\t%s\tShould accept the initial base fee at the fork block: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept the initial base fee at the fork block.", success)

		block.Header.BaseFee = uint256.NewInt(99)
		if err := newValidator(t, w).ValidateBlock(block); !errors.Is(err, validate.ErrBaseFeeMismatch) {
			t.Fatalf("\t%s\tShould reject any other base fee at the fork block: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject any other base fee at the fork block.", success)
	}
}
