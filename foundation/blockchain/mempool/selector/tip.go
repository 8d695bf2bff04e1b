package selector

import (
	"sort"

	"github.com/ardanlabs/feechain/foundation/blockchain/database"
	"github.com/holiman/uint256"
)

// tipSelect returns transactions with the best effective tip under the
// current base fee while respecting the nonce ordering for each account.
var tipSelect = func(m map[database.AccountID][]database.BlockTx, baseFee *uint256.Int, howMany int) []database.BlockTx {

	// Sort the transactions per account by nonce. A later nonce can never
	// jump ahead of an earlier one no matter how well it tips.
	for key := range m {
		if len(m[key]) > 1 {
			sort.Sort(byNonce(m[key]))
		}
	}

	// Pick the first transaction in the slice for each account. Each
	// iteration represents a new row of selections. Keep doing that until
	// all the transactions have been selected.
	var rows [][]database.BlockTx
	for {
		var row []database.BlockTx
		for key := range m {
			if len(m[key]) > 0 {
				row = append(row, m[key][0])
				m[key] = m[key][1:]
			}
		}
		if row == nil {
			break
		}
		rows = append(rows, row)
	}

	// Sort each row by effective tip unless we will take all transactions
	// from that row anyway. Then try to select the number of requested
	// transactions. Keep pulling transactions from each row until the
	// amount is fulfilled or there are no more transactions.
	final := []database.BlockTx{}
done:
	for _, row := range rows {
		need := howMany - len(final)
		if howMany != -1 && len(row) > need {
			sort.Sort(byEffectiveTip{trans: row, baseFee: baseFee})
			final = append(final, row[:need]...)
			break done
		}
		final = append(final, row...)
	}

	return final
}
