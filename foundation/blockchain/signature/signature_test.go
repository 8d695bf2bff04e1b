package signature_test

import (
	"testing"

	"github.com/ardanlabs/feechain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

const pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"

// =============================================================================

func Test_Signing(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to sign data and recover the signing account.")
	{
		pk, err := crypto.HexToECDSA(pkHexKey)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to parse the private key: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to parse the private key.", success)

		v, r, s, err := signature.Sign(value, pk)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to sign the data: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to sign the data.", success)

		if err := signature.VerifySignature(value, v, r, s); err != nil {
			t.Fatalf("\t%s\tShould be able to verify the signature: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to verify the signature.", success)

		addr, err := signature.FromAddress(value, v, r, s)
		if err != nil {
			t.Fatalf("\t%s\tShould be able to extract the from address: %v", failed, err)
		}
		t.Logf("\t%s\tShould be able to extract the from address.", success)

		exp := crypto.PubkeyToAddress(pk.PublicKey).String()
		if addr != exp {
			t.Logf("\t\tgot: %s", addr)
			t.Logf("\t\texp: %s", exp)
			t.Fatalf("\t%s\tShould get back the signing address.", failed)
		}
		t.Logf("\t%s\tShould get back the signing address.", success)
	}
}

func Test_HashStability(t *testing.T) {
	value := struct {
		Name string
	}{
		Name: "Bill",
	}

	t.Log("Given the need to produce a stable hash for a value.")
	{
		h1 := signature.Hash(value)
		h2 := signature.Hash(value)

		if h1 != h2 {
			t.Logf("\t\tgot: %s", h2)
			t.Logf("\t\texp: %s", h1)
			t.Fatalf("\t%s\tShould get the same hash for the same value.", failed)
		}
		t.Logf("\t%s\tShould get the same hash for the same value.", success)

		if len(h1) != 66 {
			t.Fatalf("\t%s\tShould get a 32 byte hex encoded hash with prefix: len %d", failed, len(h1))
		}
		t.Logf("\t%s\tShould get a 32 byte hex encoded hash with prefix.", success)
	}
}
