package mining

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/util"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withExtranonce returns coinbase with extranonce appended to its scriptSig.
func withExtranonce(coinbase []byte, extranonce []byte) []byte {
	offset := scriptSigOffset + int(coinbase[scriptSigLenOffset])

	out := append(bytes.Clone(coinbase[:offset]), extranonce...)
	out = append(out, coinbase[offset:]...)
	out[scriptSigLenOffset] += byte(len(extranonce))

	return out
}

func TestGetData(t *testing.T) {
	bm := newTestBlockMaker(t)

	t.Run("header layout", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 3)
		now := testReceivedAt.Add(10 * time.Second)

		for dataID := uint32(0); dataID < 3; dataID++ {
			work, err := bm.GetData(tmpl, now)
			require.NoError(t, err)
			assert.Equal(t, dataID, work.DataID)

			header, err := model.NewBlockHeaderFromBytes(work.Data[:])
			require.NoError(t, err)

			assert.Equal(t, tmpl.Version, header.Version)
			assert.Equal(t, tmpl.PrevBlock, header.HashPrevBlock)
			assert.Equal(t, tmpl.Bits, header.Bits)
			assert.Equal(t, tmpl.CurTime+10, header.Timestamp)
			assert.Equal(t, int16(49), work.Expire)

			coinbase := tmpl.Coinbase.Data
			if dataID > 0 {
				coinbase = withExtranonce(coinbase, binary.LittleEndian.AppendUint32(nil, dataID))
			}

			assert.Equal(t, referenceMerkleRoot(allTransactions(tmpl, coinbase)), header.HashMerkleRoot)
		}

		// issuing work leaves the coinbase itself untouched
		assert.Len(t, tmpl.Coinbase.Data, 89)
	})

	t.Run("unique work", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 2)

		seen := make(map[[model.BlockHeaderPreambleSize]byte]struct{})

		for i := 0; i < 50; i++ {
			work, err := bm.GetData(tmpl, testReceivedAt)
			require.NoError(t, err)
			assert.Equal(t, uint32(i), work.DataID)

			_, duplicate := seen[work.Data]
			require.False(t, duplicate, "work %d repeats an earlier header", i)

			seen[work.Data] = struct{}{}
		}

		assert.Equal(t, uint32(50), tmpl.NextDataID)
	})

	t.Run("header time stops at max time", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)
		tmpl.MaxTime = tmpl.CurTime + 5

		work, err := bm.GetData(tmpl, testReceivedAt.Add(30*time.Second))
		require.NoError(t, err)

		header, err := model.NewBlockHeaderFromBytes(work.Data[:])
		require.NoError(t, err)
		assert.Equal(t, tmpl.MaxTime, header.Timestamp)
		assert.Equal(t, int16(29), work.Expire)
	})

	t.Run("expired", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)

		_, err := bm.GetData(tmpl, testReceivedAt.Add(60*time.Second))
		assert.True(t, errors.Is(err, errors.ErrTemplateExpired))
		assert.True(t, errors.IsTemplateExhausted(err))
		assert.Equal(t, uint32(0), tmpl.NextDataID)
	})

	t.Run("exhausted", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)
		tmpl.NextDataID = math.MaxUint32

		_, err := bm.GetData(tmpl, testReceivedAt)
		assert.True(t, errors.Is(err, errors.ErrWorkExhausted))
	})

	t.Run("no coinbase", func(t *testing.T) {
		tmpl := newTestTemplate(1)

		_, err := bm.GetData(tmpl, testReceivedAt)
		assert.True(t, errors.Is(err, errors.ErrCoinbaseMissing))
	})
}

func TestGetDataPadding(t *testing.T) {
	t.Run("short scriptSig padded with OP_NOP", func(t *testing.T) {
		bm := newTestBlockMaker(t, WithCoinbaseMinSize(20))
		tmpl := newGeneratedTemplate(t, bm, 1)

		_, err := bm.GetData(tmpl, testReceivedAt)
		require.NoError(t, err)

		assert.Equal(t, byte(16), tmpl.Coinbase.Data[scriptSigLenOffset])
		assert.Equal(t, bytes.Repeat([]byte{opNop}, 12), tmpl.Coinbase.Data[scriptSigOffset+4:scriptSigOffset+16])

		// padding happens once
		_, err = bm.GetData(tmpl, testReceivedAt)
		require.NoError(t, err)
		assert.Equal(t, byte(16), tmpl.Coinbase.Data[scriptSigLenOffset])
	})

	t.Run("long enough scriptSig left alone", func(t *testing.T) {
		bm := newTestBlockMaker(t, WithCoinbaseMinSize(8))
		tmpl := newGeneratedTemplate(t, bm, 1)

		_, err := bm.GetData(tmpl, testReceivedAt)
		require.NoError(t, err)
		assert.Equal(t, byte(4), tmpl.Coinbase.Data[scriptSigLenOffset])
	})

	t.Run("no room to pad", func(t *testing.T) {
		bm := newTestBlockMaker(t, WithCoinbaseMinSize(200))
		tmpl := newGeneratedTemplate(t, bm, 1)

		_, err := bm.GetData(tmpl, testReceivedAt)
		assert.True(t, errors.Is(err, errors.ErrSizeLimit))
		assert.Equal(t, uint32(0), tmpl.NextDataID)
	})
}

func TestGetMData(t *testing.T) {
	bm := newTestBlockMaker(t)

	t.Run("layout", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 3)

		work, err := bm.GetMData(tmpl, testReceivedAt, 8, false)
		require.NoError(t, err)

		assert.Equal(t, 8, work.ExtranonceSize)
		assert.Equal(t, scriptSigOffset+4, work.ExtranonceOffset)
		assert.Len(t, work.Coinbase, 89+8)
		assert.Equal(t, byte(12), work.Coinbase[scriptSigLenOffset])
		assert.Equal(t, make([]byte, 8), work.Coinbase[work.ExtranonceOffset:work.ExtranonceOffset+8])

		header, err := model.NewBlockHeaderFromBytes(work.Header[:])
		require.NoError(t, err)
		assert.Equal(t, chainhash.Hash{}, header.HashMerkleRoot)
		assert.Equal(t, tmpl.CurTime, header.Timestamp)
		assert.Equal(t, tmpl.PrevBlock, header.HashPrevBlock)

		branch, err := bm.MerkleBranch(tmpl)
		require.NoError(t, err)
		assert.Equal(t, branch, work.MerkleBranch)

		assert.Len(t, tmpl.Coinbase.Data, 89, "template coinbase must not change")
	})

	t.Run("4 byte extranonce becomes 5", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)

		work, err := bm.GetMData(tmpl, testReceivedAt, 4, false)
		require.NoError(t, err)
		assert.Equal(t, 5, work.ExtranonceSize)
		assert.Len(t, work.Coinbase, 89+5)
	})

	t.Run("extranonce raised to the minimum scriptSig", func(t *testing.T) {
		bm := newTestBlockMaker(t, WithCoinbaseMinSize(20))
		tmpl := newGeneratedTemplate(t, bm, 0)

		work, err := bm.GetMData(tmpl, testReceivedAt, 0, false)
		require.NoError(t, err)
		assert.Equal(t, 16, work.ExtranonceSize)
		assert.Equal(t, byte(20), work.Coinbase[scriptSigLenOffset])
	})

	t.Run("roll ntime caps expiry at max time", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)
		tmpl.MaxTime = tmpl.CurTime + 30

		work, err := bm.GetMData(tmpl, testReceivedAt, 8, true)
		require.NoError(t, err)
		assert.Equal(t, int16(31), work.Expire)

		work, err = bm.GetMData(tmpl, testReceivedAt, 8, false)
		require.NoError(t, err)
		assert.Equal(t, int16(59), work.Expire)
	})

	t.Run("not permitted", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)
		tmpl.Mutations = model.MutationTimeIncrement

		_, err := bm.GetMData(tmpl, testReceivedAt, 8, false)
		assert.True(t, errors.Is(err, errors.ErrMutationNotPermitted))
	})

	t.Run("extranonce too large", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)

		_, err := bm.GetMData(tmpl, testReceivedAt, 97, false)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrSizeLimit))
	})

	t.Run("expired", func(t *testing.T) {
		tmpl := newGeneratedTemplate(t, bm, 0)

		_, err := bm.GetMData(tmpl, testReceivedAt.Add(time.Hour), 8, false)
		assert.True(t, errors.Is(err, errors.ErrTemplateExpired))
	})
}

// TestGetMDataMinerRoundTrip plays the miner: it fills in the extranonce, recomputes the merkle
// root from the branch and submits the solution.
func TestGetMDataMinerRoundTrip(t *testing.T) {
	bm := newTestBlockMaker(t)
	tmpl := newGeneratedTemplate(t, bm, 6)

	work, err := bm.GetMData(tmpl, testReceivedAt, 8, false)
	require.NoError(t, err)

	extranonce := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	coinbase := bytes.Clone(work.Coinbase)
	copy(coinbase[work.ExtranonceOffset:], extranonce)

	coinbaseHash, err := util.DoubleSha256(bm.Hasher(), coinbase)
	require.NoError(t, err)

	root, err := util.BuildMerkleRootFromCoinbase(bm.Hasher(), coinbaseHash, work.MerkleBranch)
	require.NoError(t, err)
	assert.Equal(t, referenceMerkleRoot(allTransactions(tmpl, coinbase)), root)

	header := work.Header
	copy(header[36:68], root[:])

	block, err := bm.AssembleBlock(tmpl, header[:], extranonce, 0, 42, false)
	require.NoError(t, err)

	assert.Equal(t, header[:], block[:model.BlockHeaderPreambleSize])
	assert.Equal(t, []byte{0, 0, 0, 42}, block[model.BlockHeaderPreambleSize:model.BlockHeaderSize])
	assert.Equal(t, byte(7), block[model.BlockHeaderSize])
	assert.Equal(t, coinbase, block[model.BlockHeaderSize+1:model.BlockHeaderSize+1+len(coinbase)])
}
