// Package mining turns block templates into work for miners: it builds the coinbase transaction,
// extends it with extranonces, maintains the merkle branch that lets the root be recomputed from
// the coinbase alone, hands out header preambles and assembles solved blocks for submission.
//
// A Template is mutated in place and must not be shared between goroutines. A BlockMaker only
// holds configuration and can serve any number of templates concurrently.
package mining

import (
	"github.com/bsv-blockchain/blkmaker/settings"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/bsv-blockchain/blkmaker/util"
)

const (
	// CoinbaseSizeLimit is the maximum coinbase scriptSig length.
	CoinbaseSizeLimit = 100
	// DefaultCoinbaseMinSize is the consensus minimum coinbase scriptSig length.
	DefaultCoinbaseMinSize = 4

	blockHeaderSize = 80

	// the scriptSig length byte follows version (4), input count (1) and the null prevout (36)
	scriptSigLenOffset = 41
	scriptSigOffset    = scriptSigLenOffset + 1

	// work id extranonces are 4 bytes; other extranonces of that size are padded to 5 so the two never collide
	workIDSize = 4
)

type BlockMaker struct {
	logger          ulogger.Logger
	hasher          util.Hasher
	coinbaseMinSize int
}

type Option func(*BlockMaker)

// WithHasher replaces the default sha256-simd hasher.
func WithHasher(h util.Hasher) Option {
	return func(bm *BlockMaker) {
		bm.hasher = h
	}
}

// WithCoinbaseMinSize overrides the minimum scriptSig length of issued work.
func WithCoinbaseMinSize(size int) Option {
	return func(bm *BlockMaker) {
		bm.coinbaseMinSize = size
	}
}

func NewBlockMaker(logger ulogger.Logger, tSettings *settings.Settings, opts ...Option) *BlockMaker {
	initPrometheusMetrics()

	bm := &BlockMaker{
		logger:          logger,
		hasher:          util.SIMDHasher{},
		coinbaseMinSize: DefaultCoinbaseMinSize,
	}

	if tSettings != nil && tSettings.BlockMaker.CoinbaseMinSize > 0 {
		bm.coinbaseMinSize = tSettings.BlockMaker.CoinbaseMinSize
	}

	for _, opt := range opts {
		opt(bm)
	}

	return bm
}

// Hasher returns the hasher used for transaction and merkle hashing.
func (bm *BlockMaker) Hasher() util.Hasher {
	return bm.hasher
}
