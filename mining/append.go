package mining

import (
	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
)

// Result codes of AppendCoinbaseWithExtranonce. Non-negative results are the headroom in bytes.
const (
	AppendNotPermitted  = -1
	AppendAllocFailed   = -2 // kept for compatibility with existing callers, never returned
	AppendLimitViolated = -3
	AppendOverSizeLimit = -4
	AppendBadExtranonce = -5
)

// AppendCoinbase appends data to the coinbase scriptSig, reserving room for a work id extranonce.
func (bm *BlockMaker) AppendCoinbase(tmpl *model.Template, data []byte) (int, error) {
	return bm.AppendCoinbaseWithExtranonce(tmpl, data, 0, false)
}

// AppendCoinbaseWithExtranonce appends data to the coinbase scriptSig while keeping
// extranonceSize bytes free for later extranonces. Unless merkleOnly is set the reservation is at
// least 4 bytes, the size of a work id; a 4 byte request becomes 5 so it cannot be mistaken for one.
//
// The result is the headroom that was available before appending. If data does not fit, nothing is
// changed and the headroom is returned without an error, so callers compare it with len(data).
// Negative results pair with an error and leave the coinbase byte-for-byte unchanged.
func (bm *BlockMaker) AppendCoinbaseWithExtranonce(tmpl *model.Template, data []byte, extranonceSize int, merkleOnly bool) (int, error) {
	if tmpl.Coinbase == nil {
		prometheusBlockMakerAppend.WithLabelValues("not_permitted").Inc()
		return AppendNotPermitted, errors.NewCoinbaseMissingError("[AppendCoinbase] template has no coinbase")
	}

	if !tmpl.Mutations.HasAny(model.MutationCoinbaseAppend | model.MutationCoinbaseSet) {
		prometheusBlockMakerAppend.WithLabelValues("not_permitted").Inc()
		return AppendNotPermitted, errors.NewMutationNotPermittedError("[AppendCoinbase] template does not allow coinbase changes")
	}

	if extranonceSize == workIDSize {
		extranonceSize++
	} else if !merkleOnly && extranonceSize < workIDSize {
		extranonceSize = workIDSize
	}

	sl, err := scriptSigLen(tmpl.Coinbase.Data)
	if err != nil {
		prometheusBlockMakerAppend.WithLabelValues("bad_extranonce").Inc()
		return AppendBadExtranonce, err
	}

	if extranonceSize < 0 || extranonceSize > CoinbaseSizeLimit || sl > CoinbaseSizeLimit || extranonceSize+sl > CoinbaseSizeLimit {
		prometheusBlockMakerAppend.WithLabelValues("bad_extranonce").Inc()
		return AppendBadExtranonce, errors.NewExtranonceError("[AppendCoinbase] extranonce of %d bytes does not fit a scriptSig of %d bytes", extranonceSize, sl)
	}

	headroom := CoinbaseSizeLimit - extranonceSize - sl

	current := blockSizeWith(tmpl, tmpl.Coinbase.Size())
	if current > tmpl.SizeLimit {
		prometheusBlockMakerAppend.WithLabelValues("over_size_limit").Inc()
		return AppendOverSizeLimit, errors.NewSizeLimitError("[AppendCoinbase] block of %d bytes already exceeds size limit %d", current, tmpl.SizeLimit)
	}

	if remaining := tmpl.SizeLimit - current; remaining < uint64(headroom) {
		headroom = int(remaining)
	}

	if len(data) > headroom {
		prometheusBlockMakerAppend.WithLabelValues("no_room").Inc()
		bm.logger.Debugf("[AppendCoinbase] %d bytes do not fit, %d bytes of headroom", len(data), headroom)

		return headroom, nil
	}

	extended, _, sigOps, err := extendCoinbase(tmpl, data)
	if err != nil {
		prometheusBlockMakerAppend.WithLabelValues("limit_violated").Inc()
		bm.logger.Debugf("[AppendCoinbase] rejected %d bytes: %v", len(data), err)

		return AppendLimitViolated, err
	}

	tmpl.Coinbase.SetData(extended)
	tmpl.Coinbase.SigOps = sigOps

	prometheusBlockMakerAppend.WithLabelValues("appended").Inc()

	return headroom, nil
}
