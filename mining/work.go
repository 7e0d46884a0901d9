package mining

import (
	"bytes"
	"encoding/binary"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/google/uuid"
)

// opNop pads short coinbase scriptSigs up to the minimum size.
const opNop = 0x61

// Work is a header preamble for miners that only roll the nonce.
type Work struct {
	ID uuid.UUID
	// Data is the first 76 bytes of the block header.
	Data [model.BlockHeaderPreambleSize]byte
	// DataID selects the coinbase extranonce the merkle root in Data was computed with.
	DataID uint32
	// Expire is the number of seconds the work stays valid.
	Expire int16
}

// MerkleWork lets a miner build its own coinbase and merkle root. Header has a zero merkle root.
type MerkleWork struct {
	ID     uuid.UUID
	Header [model.BlockHeaderPreambleSize]byte
	// Coinbase has ExtranonceSize zero bytes at ExtranonceOffset for the miner to fill in.
	Coinbase         []byte
	ExtranonceOffset int
	ExtranonceSize   int
	MerkleBranch     []chainhash.Hash
	Expire           int16
}

// GetData issues the next header preamble of the template. Each call uses a new work id, and work
// id 0 uses the coinbase as is. Short coinbase scriptSigs are padded with OP_NOP first so that,
// together with the work id extranonce, they reach the minimum size.
func (bm *BlockMaker) GetData(tmpl *model.Template, now time.Time) (*Work, error) {
	if tmpl.TimeLeft(now) == 0 {
		return nil, errors.NewTemplateExpiredError("[GetData] template expired")
	}

	if tmpl.WorkLeft() == 0 {
		return nil, errors.NewWorkExhaustedError("[GetData] no work left in template")
	}

	if tmpl.Coinbase == nil {
		return nil, errors.NewCoinbaseMissingError("[GetData] template has no coinbase")
	}

	if err := bm.padCoinbase(tmpl); err != nil {
		return nil, err
	}

	dataID := tmpl.NextDataID
	tmpl.NextDataID++

	coinbase, err := bm.coinbaseForDataID(tmpl, dataID)
	if err != nil {
		return nil, err
	}

	merkleRoot, err := bm.MerkleRoot(tmpl, coinbase)
	if err != nil {
		return nil, err
	}

	hdrTime, expire := headerTimes(tmpl, now, false)

	header := model.BlockHeader{
		Version:        tmpl.Version,
		HashPrevBlock:  tmpl.PrevBlock,
		HashMerkleRoot: merkleRoot,
		Timestamp:      hdrTime,
		Bits:           tmpl.Bits,
	}

	work := &Work{
		ID:     uuid.New(),
		Data:   header.Preamble(),
		DataID: dataID,
		Expire: expire,
	}

	prometheusBlockMakerWork.WithLabelValues("data").Inc()
	bm.logger.Debugf("[GetData] issued work %s with data id %d, expires in %ds", work.ID, dataID, expire)

	return work, nil
}

func (bm *BlockMaker) padCoinbase(tmpl *model.Template) error {
	if len(tmpl.Coinbase.Data) <= scriptSigLenOffset {
		return nil
	}

	sl := int(tmpl.Coinbase.Data[scriptSigLenOffset])
	if sl+workIDSize >= bm.coinbaseMinSize {
		return nil
	}

	padding := bytes.Repeat([]byte{opNop}, bm.coinbaseMinSize-(sl+workIDSize))

	headroom, err := bm.AppendCoinbase(tmpl, padding)
	if err != nil {
		return errors.NewProcessingError("[GetData] failed to pad coinbase scriptSig", err)
	}

	if headroom < len(padding) {
		return errors.NewSizeLimitError("[GetData] no room to pad coinbase scriptSig by %d bytes", len(padding))
	}

	return nil
}

// coinbaseForDataID returns the coinbase extended with the little-endian work id, or the
// coinbase itself for work id 0.
func (bm *BlockMaker) coinbaseForDataID(tmpl *model.Template, dataID uint32) ([]byte, error) {
	if dataID == 0 {
		return tmpl.Coinbase.Data, nil
	}

	extended, _, _, err := extendCoinbase(tmpl, binary.LittleEndian.AppendUint32(nil, dataID))
	if err != nil {
		return nil, errors.NewProcessingError("[GetData] failed to add work id %d to coinbase", dataID, err)
	}

	return extended, nil
}

// GetMData issues merkle-only work: a coinbase with room for an extranonce of at least
// extranonceSize bytes, the merkle branch and a header preamble without merkle root. A 4 byte
// extranonce is grown to 5 so it cannot collide with GetData work ids.
func (bm *BlockMaker) GetMData(tmpl *model.Template, now time.Time, extranonceSize int, canRollNTime bool) (*MerkleWork, error) {
	if tmpl.TimeLeft(now) == 0 {
		return nil, errors.NewTemplateExpiredError("[GetMData] template expired")
	}

	if tmpl.Coinbase == nil {
		return nil, errors.NewCoinbaseMissingError("[GetMData] template has no coinbase")
	}

	if err := bm.buildMerkleBranch(tmpl); err != nil {
		return nil, err
	}

	if !tmpl.Mutations.HasAny(model.MutationCoinbaseAppend | model.MutationCoinbaseSet) {
		return nil, errors.NewMutationNotPermittedError("[GetMData] template does not allow coinbase changes")
	}

	if extranonceSize == workIDSize {
		extranonceSize++
	}

	if len(tmpl.Coinbase.Data) > scriptSigLenOffset {
		if sl := int(tmpl.Coinbase.Data[scriptSigLenOffset]); sl+extranonceSize < bm.coinbaseMinSize {
			extranonceSize = bm.coinbaseMinSize - sl
		}
	}

	if extranonceSize < 0 {
		return nil, errors.NewExtranonceError("[GetMData] negative extranonce size %d", extranonceSize)
	}

	coinbase, offset, _, err := extendCoinbase(tmpl, make([]byte, extranonceSize))
	if err != nil {
		return nil, errors.NewProcessingError("[GetMData] no room for a %d byte extranonce", extranonceSize, err)
	}

	hdrTime, expire := headerTimes(tmpl, now, canRollNTime)

	header := model.BlockHeader{
		Version:       tmpl.Version,
		HashPrevBlock: tmpl.PrevBlock,
		Timestamp:     hdrTime,
		Bits:          tmpl.Bits,
	}

	branch, err := bm.MerkleBranch(tmpl)
	if err != nil {
		return nil, err
	}

	work := &MerkleWork{
		ID:               uuid.New(),
		Header:           header.Preamble(),
		Coinbase:         coinbase,
		ExtranonceOffset: offset,
		ExtranonceSize:   extranonceSize,
		MerkleBranch:     branch,
		Expire:           expire,
	}

	prometheusBlockMakerWork.WithLabelValues("mdata").Inc()
	bm.logger.Debugf("[GetMData] issued work %s with %d byte extranonce at offset %d", work.ID, extranonceSize, offset)

	return work, nil
}
