package mining

import (
	"encoding/binary"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/util"
)

// InitGeneration builds the coinbase transaction paying the template's coinbase value to script.
//
// A template that already has a coinbase is left alone unless forceNew is set and the server allows
// generation; in that case (0, false, nil) is returned. On success the new coinbase replaces any
// previous one, the template gains the coinbase append, set and generate mutations, and the value
// paid out is returned with created set to true.
func (bm *BlockMaker) InitGeneration(tmpl *model.Template, script []byte, forceNew bool) (value uint64, created bool, err error) {
	if tmpl.Coinbase != nil && !(forceNew && tmpl.Mutations.Has(model.MutationGenerate)) {
		return 0, false, nil
	}

	if tmpl.CoinbaseValue == nil {
		return 0, false, errors.NewCoinbaseValueUnknownError("[InitGeneration] template has no coinbase value")
	}

	if len(script) >= 0xfd {
		return 0, false, errors.NewInvalidArgumentError("[InitGeneration] payout script of %d bytes is too long", len(script))
	}

	data, err := buildCoinbase(tmpl.Height, tmpl.Aux, *tmpl.CoinbaseValue, script)
	if err != nil {
		return 0, false, err
	}

	if size := blockSizeWith(tmpl, uint64(len(data))); size > tmpl.SizeLimit {
		return 0, false, errors.New(errors.ERR_SIZE_LIMIT_EXCEEDED, "[InitGeneration] block of %d bytes would exceed size limit %d", size, tmpl.SizeLimit).
			WithData("size", size)
	}

	sigOps := util.CountSigOps(script)
	if sigOpsExceeded(tmpl, sigOps) {
		return 0, false, errors.NewSigOpLimitError("[InitGeneration] %d coinbase sigops would exceed limit %d", sigOps, tmpl.SigOpLimit)
	}

	tmpl.Coinbase = &model.Transaction{
		Data:   data,
		SigOps: sigOps,
	}
	tmpl.Mutations |= model.MutationCoinbaseAppend | model.MutationCoinbaseSet | model.MutationGenerate

	prometheusBlockMakerGeneration.Inc()
	bm.logger.Debugf("[InitGeneration] generated coinbase for height %d paying %d satoshis (%d bytes)", tmpl.Height, *tmpl.CoinbaseValue, len(data))

	return *tmpl.CoinbaseValue, true, nil
}

// InitGenerationDefault builds the coinbase only if the template does not already have one.
func (bm *BlockMaker) InitGenerationDefault(tmpl *model.Template, script []byte) (uint64, bool, error) {
	return bm.InitGeneration(tmpl, script, false)
}

// buildCoinbase serializes a version 1 coinbase with a single input and output. The scriptSig is
// the minimal little-endian height push followed by one push holding every aux blob.
func buildCoinbase(height uint32, aux [][]byte, value uint64, script []byte) ([]byte, error) {
	data := make([]byte, 0, 168+len(script))

	data = append(data, 0x01, 0x00, 0x00, 0x00) // version
	data = append(data, 0x01)                   // input count
	data = append(data, make([]byte, 32)...)    // null prevout hash
	data = append(data, 0xff, 0xff, 0xff, 0xff) // prevout index
	data = append(data, 0x02)                   // scriptSig length, grows below
	data = append(data, 0x00)                   // height push length, set below

	h := height
	for h > 127 {
		data[scriptSigLenOffset]++
		data = append(data, byte(h))
		h >>= 8
	}

	data = append(data, byte(h))
	data[scriptSigOffset] = data[scriptSigLenOffset] - 1

	if len(aux) > 0 {
		auxLenPos := len(data)
		data = append(data, 0x00)
		data[scriptSigLenOffset]++

		for i, blob := range aux {
			if int(data[scriptSigLenOffset])+len(blob) > CoinbaseSizeLimit {
				return nil, errors.NewSizeLimitError("[InitGeneration] aux blob %d of %d bytes overflows the coinbase scriptSig", i, len(blob))
			}

			data = append(data, blob...)
			data[scriptSigLenOffset] += byte(len(blob))
			data[auxLenPos] += byte(len(blob))
		}
	}

	data = append(data, 0xff, 0xff, 0xff, 0xff) // sequence
	data = append(data, 0x01)                   // output count
	data = binary.LittleEndian.AppendUint64(data, value)
	data = append(data, byte(len(script)))
	data = append(data, script...)
	data = append(data, 0x00, 0x00, 0x00, 0x00) // lock time

	return data, nil
}

// scriptSigLen returns the coinbase scriptSig length after checking the transaction is long enough to hold it.
func scriptSigLen(coinbase []byte) (int, error) {
	if len(coinbase) <= scriptSigLenOffset {
		return 0, errors.NewTxInvalidError("coinbase of %d bytes is too short to hold a scriptSig", len(coinbase))
	}

	sl := int(coinbase[scriptSigLenOffset])
	if len(coinbase) < scriptSigOffset+sl {
		return 0, errors.NewTxInvalidError("coinbase scriptSig of %d bytes runs past the end of the transaction", sl)
	}

	return sl, nil
}

// blockSizeWith returns the size of the block holding a coinbase of coinbaseSize bytes and every template transaction.
func blockSizeWith(tmpl *model.Template, coinbaseSize uint64) uint64 {
	return blockHeaderSize + util.VarintSize(1+uint64(len(tmpl.Transactions))) + coinbaseSize + tmpl.TransactionsSize
}

func sigOpsExceeded(tmpl *model.Template, coinbaseSigOps int16) bool {
	if tmpl.TransactionsSigOps < 0 || tmpl.SigOpLimit < 0 {
		return false
	}

	return tmpl.TransactionsSigOps+int64(coinbaseSigOps) > tmpl.SigOpLimit
}

// extendCoinbase returns a copy of the template's coinbase with extra appended to the scriptSig,
// the offset extra was written at and the new coinbase sigop count. The template is not modified.
func extendCoinbase(tmpl *model.Template, extra []byte) ([]byte, int, int16, error) {
	in := tmpl.Coinbase.Data

	sl, err := scriptSigLen(in)
	if err != nil {
		return nil, 0, 0, err
	}

	if len(extra) > CoinbaseSizeLimit || sl > CoinbaseSizeLimit-len(extra) {
		return nil, 0, 0, errors.New(errors.ERR_SIZE_LIMIT_EXCEEDED, "scriptSig of %d bytes cannot grow by %d bytes", sl, len(extra)).
			WithData("headroom", CoinbaseSizeLimit-sl)
	}

	if size := blockSizeWith(tmpl, uint64(len(in)+len(extra))); size > tmpl.SizeLimit {
		return nil, 0, 0, errors.NewSizeLimitError("block of %d bytes would exceed size limit %d", size, tmpl.SizeLimit)
	}

	offset := scriptSigOffset + sl

	out := make([]byte, 0, len(in)+len(extra))
	out = append(out, in[:offset]...)
	out = append(out, extra...)
	out = append(out, in[offset:]...)
	out[scriptSigLenOffset] += byte(len(extra))

	sigOps := tmpl.Coinbase.SigOps
	if sigOps >= 0 {
		delta := int64(util.CountSigOps(out[scriptSigOffset:offset+len(extra)])) - int64(util.CountSigOps(in[scriptSigOffset:offset]))
		sigOps = util.ClampInt16(int64(sigOps) + delta)

		if sigOpsExceeded(tmpl, sigOps) {
			return nil, 0, 0, errors.NewSigOpLimitError("%d coinbase sigops would exceed limit %d", sigOps, tmpl.SigOpLimit)
		}
	}

	return out, offset, sigOps, nil
}
