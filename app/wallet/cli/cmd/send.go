package cmd

import (
	"bytes"
	"crypto/ecdsa"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/spf13/cobra"
)

var (
	url      string
	nonce    uint64
	chainID  uint16
	to       string
	value    uint64
	gasLimit uint64
	gasPrice uint64
	tipCap   uint64
	feeCap   uint64
	data     []byte
)

// sendCmd represents the send command.
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send transaction",
	Run: func(cmd *cobra.Command, args []string) {
		privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
		if err != nil {
			log.Fatal(err)
		}

		sendWithDetails(privateKey)
	},
}

func sendWithDetails(privateKey *ecdsa.PrivateKey) {
	toID, err := database.ToAccountID(to)
	if err != nil {
		log.Fatal(err)
	}

	// A gas price builds a legacy shaped transaction. The tip and fee caps
	// build a fee market one.
	var tx database.Tx
	if gasPrice > 0 {
		tx, err = database.NewLegacyTx(chainID, nonce, toID, uint256.NewInt(value), gasLimit, uint256.NewInt(gasPrice), data)
	} else {
		tx, err = database.NewTx(chainID, nonce, toID, uint256.NewInt(value), gasLimit, uint256.NewInt(tipCap), uint256.NewInt(feeCap), data)
	}
	if err != nil {
		log.Fatal(err)
	}

	signedTx, err := tx.Sign(privateKey)
	if err != nil {
		log.Fatal(err)
	}

	payload, err := json.Marshal(signedTx)
	if err != nil {
		log.Fatal(err)
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(payload))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	fmt.Println("status:", resp.Status)
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().Uint64VarP(&nonce, "nonce", "n", 0, "Unique id for the transaction.")
	sendCmd.Flags().Uint16VarP(&chainID, "chain", "i", 1, "Chain id for the network.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Account receiving the value.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.Flags().Uint64VarP(&gasLimit, "gas-limit", "g", 21_000, "Maximum gas for the transaction.")
	sendCmd.Flags().Uint64Var(&gasPrice, "gas-price", 0, "Legacy gas price, builds a legacy transaction.")
	sendCmd.Flags().Uint64Var(&tipCap, "tip-cap", 0, "Maximum tip per gas for the beneficiary.")
	sendCmd.Flags().Uint64Var(&feeCap, "fee-cap", 0, "Maximum total price per gas.")
	sendCmd.Flags().BytesHexVarP(&data, "data", "d", nil, "Data to send.")
}
