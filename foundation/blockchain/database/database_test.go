package database_test

import (
	"errors"
	"testing"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ardanlabs/feechain/foundation/blockchain/database/storage"
	"github.com/ardanlabs/feechain/foundation/blockchain/genesis"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const (
	signerHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	toIDStr      = "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32"
)

// =============================================================================

func Test_Normalize(t *testing.T) {
	toID := database.AccountID(toIDStr)

	t.Log("Given the need to normalize any transaction into the fee market shape.")
	{
		legacy, err := database.NewLegacyTx(1, 1, toID, uint256.NewInt(100), 21_000, uint256.NewInt(50), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a legacy transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct a legacy transaction.", success)

		norm, err := database.BlockTx{SignedTx: database.SignedTx{Tx: legacy}}.Normalize()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to normalize a legacy transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to normalize a legacy transaction.", success)

		if norm.Type != database.TxTypeFeeMarket {
			t.Fatalf("\t%s\tShould produce the fee market shape: got type %d", failed, norm.Type)
		}
		t.Logf("\t%s\tShould produce the fee market shape.", success)

		if !norm.GasTipCap.Eq(uint256.NewInt(50)) || !norm.GasFeeCap.Eq(uint256.NewInt(50)) {
			t.Logf("\t\ttip: %s fee: %s", norm.GasTipCap, norm.GasFeeCap)
			t.Fatalf("\t%s\tShould map the gas price to both the tip cap and the fee cap.", failed)
		}
		t.Logf("\t%s\tShould map the gas price to both the tip cap and the fee cap.", success)

		if norm.Nonce != legacy.Nonce || norm.ToID != legacy.ToID || !norm.Value.Eq(legacy.Value) || norm.GasLimit != legacy.GasLimit {
			t.Fatalf("\t%s\tShould copy the remaining fields verbatim.", failed)
		}
		t.Logf("\t%s\tShould copy the remaining fields verbatim.", success)
	}

	t.Log("Given the need to pass a fee market transaction through unchanged.")
	{
		feeTx, err := database.NewTx(1, 1, toID, uint256.NewInt(100), 21_000, uint256.NewInt(2), uint256.NewInt(60), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a fee market transaction: %v", failed, err)
		}

		norm, err := database.BlockTx{SignedTx: database.SignedTx{Tx: feeTx}}.Normalize()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to normalize a fee market transaction: %v", failed, err)
		}

		if !norm.GasTipCap.Eq(uint256.NewInt(2)) || !norm.GasFeeCap.Eq(uint256.NewInt(60)) {
			t.Fatalf("\t%s\tShould keep the fee market fields unchanged.", failed)
		}
		t.Logf("\t%s\tShould keep the fee market fields unchanged.", success)
	}

	t.Log("Given the need to reject unknown transaction shapes.")
	{
		badTx := database.BlockTx{SignedTx: database.SignedTx{Tx: database.Tx{Type: 7}}}

		if _, err := badTx.Normalize(); !errors.Is(err, database.ErrInvalidTxShape) {
			t.Fatalf("\t%s\tShould reject an unknown shape with ErrInvalidTxShape: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject an unknown shape with ErrInvalidTxShape.", success)
	}
}

func Test_SignedTxRoundTrip(t *testing.T) {
	t.Log("Given the need to sign a transaction and recover the signer.")
	{
		pk, err := crypto.HexToECDSA(signerHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %v", failed, err)
		}

		tx, err := database.NewTx(1, 1, database.AccountID(toIDStr), uint256.NewInt(100), 21_000, uint256.NewInt(2), uint256.NewInt(60), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transaction: %v", failed, err)
		}

		signedTx, err := tx.Sign(pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the transaction.", success)

		if err := signedTx.Validate(1); err != nil {
			t.Fatalf("\t%s\tShould be able to validate the signature: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to validate the signature.", success)

		if err := signedTx.Validate(2); err == nil {
			t.Fatalf("\t%s\tShould reject the wrong chain id.", failed)
		}
		t.Logf("\t%s\tShould reject the wrong chain id.", success)

		fromID, err := signedTx.FromAccount()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to recover the signer: %v", failed, err)
		}

		exp := database.PublicKeyToAccountID(pk.PublicKey)
		if fromID != exp {
			t.Logf("\t\tgot: %s", fromID)
			t.Logf("\t\texp: %s", exp)
			t.Fatalf("\t%s\tShould recover the signing account.", failed)
		}
		t.Logf("\t%s\tShould recover the signing account.", success)
	}
}

func Test_AccountIsolation(t *testing.T) {
	gen := genesis.Genesis{
		ChainID: 1,
		Balances: map[string]uint64{
			toIDStr: 1000,
		},
	}

	t.Log("Given the need to keep copied accounts isolated from the database.")
	{
		serializer, err := storage.NewMemory()
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct memory storage: %v", failed, err)
		}

		db, err := database.New(gen, serializer)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct the database: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to construct the database.", success)

		accounts := db.CopyAccounts()
		accounts[database.AccountID(toIDStr)].Balance.SetUint64(5)

		account, exists := db.Account(database.AccountID(toIDStr))
		if !exists {
			t.Fatalf("\t%s\tShould find the genesis account.", failed)
		}

		if !account.Balance.Eq(uint256.NewInt(1000)) {
			t.Logf("\t\tgot: %s", account.Balance)
			t.Logf("\t\texp: %d", 1000)
			t.Fatalf("\t%s\tShould not see copy mutations in the database.", failed)
		}
		t.Logf("\t%s\tShould not see copy mutations in the database.", success)
	}
}

func Test_TransRootOrderSignificance(t *testing.T) {
	t.Log("Given the need for the trans root to commit to transaction order.")
	{
		pk, err := crypto.HexToECDSA(signerHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %v", failed, err)
		}

		var trans []database.BlockTx
		for nonce := uint64(1); nonce <= 2; nonce++ {
			tx, err := database.NewTx(1, nonce, database.AccountID(toIDStr), uint256.NewInt(100), 21_000, uint256.NewInt(2), uint256.NewInt(60), nil)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to construct a transaction: %v", failed, err)
			}
			signedTx, err := tx.Sign(pk)
			if err != nil {
				t.Fatalf("\t%s\tShould be able to sign a transaction: %v", failed, err)
			}
			trans = append(trans, database.BlockTx{SignedTx: signedTx})
		}

		root, err := database.TransRoot(trans)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the trans root: %v", failed, err)
		}
		swapped, err := database.TransRoot([]database.BlockTx{trans[1], trans[0]})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to compute the swapped trans root: %v", failed, err)
		}

		if root == swapped {
			t.Fatalf("\t%s\tShould get different roots for different orders.", failed)
		}
		t.Logf("\t%s\tShould get different roots for different orders.", success)
	}
}

func Test_ValidateTransRoot(t *testing.T) {
	t.Log("Given the need for a block to prove its header commits to its transactions.")
	{
		pk, err := crypto.HexToECDSA(signerHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %v", failed, err)
		}

		tx, err := database.NewTx(1, 1, database.AccountID(toIDStr), uint256.NewInt(100), 21_000, uint256.NewInt(2), uint256.NewInt(60), nil)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a transaction: %v", failed, err)
		}
		signedTx, err := tx.Sign(pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the transaction: %v", failed, err)
		}

		block, err := database.NewBlock(database.AccountID(toIDStr), database.Block{}, 50_000, 21_000, uint256.NewInt(40), []database.BlockTx{{SignedTx: signedTx}})
		if err != nil {
			t.Fatalf("\t%s\tShould be able to construct a block: %v", failed, err)
		}

		if err := block.ValidateTransRoot(); err != nil {
			t.Fatalf("\t%s\tShould accept a header that commits to its transactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould accept a header that commits to its transactions.", success)

		block.Header.TransRoot = "0xdeadbeef"
		if err := block.ValidateTransRoot(); !errors.Is(err, database.ErrInvalidTransRoot) {
			t.Fatalf("\t%s\tShould reject a header that does not commit to its transactions: %v", failed, err)
		}
		t.Logf("\t%s\tShould reject a header that does not commit to its transactions.", success)
	}
}
