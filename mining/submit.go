package mining

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/util"
)

// AssembleSubmission serializes a solved block as lowercase hex.
//
// data holds at least the 76 byte header preamble the miner worked on. The coinbase extranonce is
// either given directly or derived from dataID as returned by GetData; supplying both is an error.
// Templates flagged SubmitTruncate submit only the header when no extranonce was used, and templates
// flagged SubmitCoinbaseOnly leave out the other transactions. foreign forces the full block, for
// submitting to a server other than the one that issued the template.
func (bm *BlockMaker) AssembleSubmission(tmpl *model.Template, data []byte, extranonce []byte, dataID uint32, nonce uint32, foreign bool) (string, error) {
	block, err := bm.AssembleBlock(tmpl, data, extranonce, dataID, nonce, foreign)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(block), nil
}

// AssembleBlock is AssembleSubmission without the hex encoding.
func (bm *BlockMaker) AssembleBlock(tmpl *model.Template, data []byte, extranonce []byte, dataID uint32, nonce uint32, foreign bool) ([]byte, error) {
	if len(data) < model.BlockHeaderPreambleSize {
		return nil, errors.NewInvalidArgumentError("[AssembleSubmission] header data of %d bytes is shorter than %d", len(data), model.BlockHeaderPreambleSize)
	}

	if dataID != 0 {
		if len(extranonce) > 0 {
			return nil, errors.NewInvalidArgumentError("[AssembleSubmission] both an extranonce and data id %d given", dataID)
		}

		extranonce = binary.LittleEndian.AppendUint32(nil, dataID)
	} else if len(extranonce) == workIDSize {
		extranonce = append(append(make([]byte, 0, workIDSize+1), extranonce...), 0x00)
	}

	includeCoinbase := foreign || !(tmpl.Mutations.Has(model.SubmitTruncate) && len(extranonce) == 0)
	includeAll := foreign || !tmpl.Mutations.Has(model.SubmitCoinbaseOnly)

	size := blockHeaderSize
	if includeCoinbase {
		if tmpl.Coinbase == nil {
			return nil, errors.NewCoinbaseMissingError("[AssembleSubmission] template has no coinbase")
		}

		size += 9 + len(tmpl.Coinbase.Data) + len(extranonce)
		if includeAll {
			size += int(tmpl.TransactionsSize)
		}
	}

	block := make([]byte, 0, size)
	block = append(block, data[:model.BlockHeaderPreambleSize]...)
	block = binary.BigEndian.AppendUint32(block, nonce)

	if includeCoinbase {
		block = util.AppendVarint(block, 1+uint64(len(tmpl.Transactions)))

		coinbase := tmpl.Coinbase.Data

		if len(extranonce) > 0 {
			extended, _, _, err := extendCoinbase(tmpl, extranonce)
			if err != nil {
				return nil, errors.NewProcessingError("[AssembleSubmission] failed to add extranonce to coinbase", err)
			}

			coinbase = extended
		}

		block = append(block, coinbase...)

		if includeAll {
			for _, tx := range tmpl.Transactions {
				block = append(block, tx.Data...)
			}
		}
	}

	prometheusBlockMakerSubmission.Inc()
	prometheusBlockMakerSubmissionSize.Observe(float64(len(block)))
	bm.logger.Infof("[AssembleSubmission] assembled block of %d bytes at height %d", len(block), tmpl.Height)

	return block, nil
}
