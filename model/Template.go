package model

import (
	"math"
	"time"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Template is a block template as handed out by a getblocktemplate server, together with the state
// derived from it while work is generated. A Template is owned by its caller and is not safe for
// concurrent use; the mining package mutates it in place.
type Template struct {
	Version uint32
	// PrevBlock is in header byte order.
	PrevBlock chainhash.Hash
	// Bits is the compact target in header byte order.
	Bits   [4]byte
	Height uint32

	CurTime uint32
	MinTime uint32
	MaxTime uint32
	// ReceivedAt is when the template was fetched; elapsed time is measured from here.
	ReceivedAt time.Time
	// Expires is the template lifetime in seconds, counted from ReceivedAt.
	Expires int64

	SizeLimit uint64
	// SigOpLimit is negative when the server did not supply one.
	SigOpLimit int64

	// CoinbaseValue is nil when the server did not supply the block reward.
	CoinbaseValue *uint64
	// Aux holds the coinbaseaux blobs in the order they are pushed into the scriptSig.
	Aux [][]byte

	Transactions     []*Transaction
	TransactionsSize uint64
	// TransactionsSigOps is negative when any transaction arrived without a sigop count.
	TransactionsSigOps int64

	Mutations Mutations
	// WorkID is echoed back to the server with submissions of this template's blocks.
	WorkID string

	Coinbase *Transaction
	// MerkleBranch is nil until built. An empty non-nil branch is a built branch for a coinbase-only block.
	MerkleBranch []chainhash.Hash
	NextDataID   uint32
}

// TimeLeft returns the number of seconds until the template expires, or 0 once it has.
func (t *Template) TimeLeft(now time.Time) int64 {
	age := now.Unix() - t.ReceivedAt.Unix()
	if age >= t.Expires {
		return 0
	}

	return t.Expires - age
}

// WorkLeft returns how many more work units the template can produce. Without permission to
// modify the coinbase only a single unit, the unmodified coinbase, can be issued.
func (t *Template) WorkLeft() uint64 {
	if t.Version == 0 {
		return 0
	}

	if !t.Mutations.HasAny(MutationCoinbaseAppend | MutationCoinbaseSet) {
		if t.NextDataID == 0 {
			return 1
		}

		return 0
	}

	return math.MaxUint32 - uint64(t.NextDataID)
}

// SetCoinbaseValue records the block reward the coinbase may claim.
func (t *Template) SetCoinbaseValue(value uint64) {
	t.CoinbaseValue = &value
}

// AddTransaction appends tx and keeps the size and sigop aggregates current. A transaction
// without a sigop count makes the aggregate unknown.
func (t *Template) AddTransaction(tx *Transaction) {
	t.Transactions = append(t.Transactions, tx)
	t.TransactionsSize += tx.Size()

	if tx.SigOps < 0 || t.TransactionsSigOps < 0 {
		t.TransactionsSigOps = -1
		return
	}

	t.TransactionsSigOps += int64(tx.SigOps)
}
