package database

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/feechain/foundation/blockchain/merkle"
	"github.com/ardanlabs/feechain/foundation/blockchain/signature"
	"github.com/holiman/uint256"
)

// ErrChainForked is returned from validateNextBlock if another node's chain
// is two or more blocks ahead of ours.
var ErrChainForked = errors.New("blockchain forked, start resync")

// ErrInvalidTransRoot is returned when a block's header does not commit to
// the transactions the block carries.
var ErrInvalidTransRoot = errors.New("trans root does not match transactions")

// =============================================================================

// BlockHeader represents common information required for each block. The
// GasTarget field replaces the historical hard gas limit as the capacity
// baseline; a block may burst past it up to the elasticity bound.
type BlockHeader struct {
	ParentHash    string       `json:"parent_hash"`  // Hash of the previous block in the chain.
	UncleHashes   []string     `json:"uncle_hashes"` // Hashes of any uncle blocks referenced by this block.
	BeneficiaryID AccountID    `json:"beneficiary"`  // The account receiving the transaction tips.
	StateRoot     string       `json:"state_root"`   // Root hash of the account state, computed upstream.
	TransRoot     string       `json:"trans_root"`   // Hash over the ordered set of transactions in this block.
	ReceiptRoot   string       `json:"receipt_root"` // Root hash of the transaction receipts, computed upstream.
	LogsBloom     []byte       `json:"logs_bloom"`   // Bloom filter over the log entries, computed upstream.
	Difficulty    uint64       `json:"difficulty"`   // Mining difficulty carried for the sealing layer.
	Number        uint64       `json:"number"`       // Block number in the chain.
	GasTarget     uint64       `json:"gas_target"`   // Capacity baseline the base fee adjusts toward.
	GasUsed       uint64       `json:"gas_used"`     // Total gas consumed by the transactions in this block.
	TimeStamp     uint64       `json:"timestamp"`    // Time the block was proposed.
	ExtraData     []byte       `json:"extra_data"`   // Arbitrary data the proposer attached to the block.
	MixHash       string       `json:"mix_hash"`     // Sealing field owned by the proof-of-work layer.
	Nonce         uint64       `json:"nonce"`        // Sealing field owned by the proof-of-work layer.
	BaseFee       *uint256.Int `json:"base_fee"`     // Protocol mandated price per gas, burned when paid.
}

// Block represents a group of transactions batched together.
type Block struct {
	Header BlockHeader
	Trans  []BlockTx
}

// NewBlock constructs a block from a set of transactions and the parent it
// extends. The gas used and base fee fields are owned by the caller since
// they are consensus values the validator checks independently.
func NewBlock(beneficiaryID AccountID, parent Block, gasTarget uint64, gasUsed uint64, baseFee *uint256.Int, trans []BlockTx) (Block, error) {
	parentHash := signature.ZeroHash
	if parent.Header.Number > 0 || parent.Header.TimeStamp > 0 {
		parentHash = parent.Hash()
	}

	transRoot, err := TransRoot(trans)
	if err != nil {
		return Block{}, err
	}

	nb := Block{
		Header: BlockHeader{
			ParentHash:    parentHash,
			BeneficiaryID: beneficiaryID,
			Difficulty:    parent.Header.Difficulty,
			Number:        parent.Header.Number + 1,
			GasTarget:     gasTarget,
			GasUsed:       gasUsed,
			TimeStamp:     uint64(time.Now().UTC().Unix()),
			BaseFee:       baseFee,
			TransRoot:     transRoot,
		},
		Trans: trans,
	}

	return nb, nil
}

// Hash returns the unique hash for the Block.
func (b Block) Hash() string {
	if b.Header.Number == 0 {
		return signature.ZeroHash
	}

	// CORE NOTE: Hashing the block header and not the whole block so the
	// chain can be cryptographically checked by only needing block headers
	// and not full blocks with the transaction data. The header commits to
	// the transactions through the trans root.
	return signature.Hash(b.Header)
}

// TransRoot computes the merkle root over the ordered set of transactions.
// Order is significant: swapping two transactions produces a different root.
// A block with no transactions commits to the zero hash.
func TransRoot(trans []BlockTx) (string, error) {
	if len(trans) == 0 {
		return signature.ZeroHash, nil
	}

	tree, err := merkle.NewTree(trans)
	if err != nil {
		return "", err
	}

	return tree.RootHex(), nil
}

// ValidateChainLink checks the block extends our view of the chain before
// the fee market rules run. A block numbered two or more past our latest
// block means we are on the wrong side of a fork.
func (b Block) ValidateChainLink(previousBlock Block) error {
	nextNumber := previousBlock.Header.Number + 1
	if b.Header.Number >= (nextNumber + 2) {
		return ErrChainForked
	}

	return nil
}

// ValidateTransRoot recomputes the merkle root over the block's transactions
// and checks the header commits to it. A header whose trans root does not
// match its transaction list carries transactions it never declared.
func (b Block) ValidateTransRoot() error {
	root, err := TransRoot(b.Trans)
	if err != nil {
		return err
	}

	if b.Header.TransRoot != root {
		return fmt.Errorf("got %s, exp %s: %w", b.Header.TransRoot, root, ErrInvalidTransRoot)
	}

	return nil
}

// =============================================================================

// BlockData represents what is serialized to disk and shared over the
// network.
type BlockData struct {
	Hash   string      `json:"hash"`
	Header BlockHeader `json:"block"`
	Trans  []BlockTx   `json:"trans"`
}

// NewBlockData constructs the value to serialize to disk.
func NewBlockData(block Block) BlockData {
	blockData := BlockData{
		Hash:   block.Hash(),
		Header: block.Header,
		Trans:  block.Trans,
	}

	return blockData
}

// ToBlock converts a BlockData into a Block.
func ToBlock(blockData BlockData) Block {
	nb := Block{
		Header: blockData.Header,
		Trans:  blockData.Trans,
	}

	return nb
}
