package model

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

const (
	// BlockHeaderSize is the size of a serialized block header.
	BlockHeaderSize = 80
	// BlockHeaderPreambleSize is the header without its trailing nonce, the unit miners receive as work.
	BlockHeaderPreambleSize = 76
)

type BlockHeader struct {
	// Version of the block.  This is not the same as the protocol version.
	Version uint32

	// Hash of the previous block header in the blockchain.
	HashPrevBlock chainhash.Hash

	// Merkle tree reference to hash of all transactions for the block.
	HashMerkleRoot chainhash.Hash

	// Time the block was created in unix time.
	Timestamp uint32

	// Difficulty target for the block, in header byte order.
	Bits [4]byte

	// Nonce used to generate the block.
	Nonce uint32
}

// NewBlockHeaderFromBytes parses a full 80 byte header, or a 76 byte preamble with a zero nonce.
func NewBlockHeaderFromBytes(headerBytes []byte) (*BlockHeader, error) {
	if len(headerBytes) != BlockHeaderSize && len(headerBytes) != BlockHeaderPreambleSize {
		return nil, errors.NewInvalidArgumentError("block header should be %d or %d bytes long, got %d", BlockHeaderPreambleSize, BlockHeaderSize, len(headerBytes))
	}

	bh := &BlockHeader{
		Version:   binary.LittleEndian.Uint32(headerBytes[:4]),
		Timestamp: binary.LittleEndian.Uint32(headerBytes[68:72]),
	}

	copy(bh.HashPrevBlock[:], headerBytes[4:36])
	copy(bh.HashMerkleRoot[:], headerBytes[36:68])
	copy(bh.Bits[:], headerBytes[72:76])

	if len(headerBytes) == BlockHeaderSize {
		bh.Nonce = binary.LittleEndian.Uint32(headerBytes[76:])
	}

	return bh, nil
}

func NewBlockHeaderFromString(headerHex string) (*BlockHeader, error) {
	headerBytes, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("error decoding hex string to bytes", err)
	}

	return NewBlockHeaderFromBytes(headerBytes)
}

// Preamble serializes the first 76 bytes of the header: version, previous block, merkle root,
// time and bits.
func (bh *BlockHeader) Preamble() [BlockHeaderPreambleSize]byte {
	var p [BlockHeaderPreambleSize]byte

	binary.LittleEndian.PutUint32(p[0:4], bh.Version)
	copy(p[4:36], bh.HashPrevBlock[:])
	copy(p[36:68], bh.HashMerkleRoot[:])
	binary.LittleEndian.PutUint32(p[68:72], bh.Timestamp)
	copy(p[72:76], bh.Bits[:])

	return p
}

func (bh *BlockHeader) Bytes() []byte {
	preamble := bh.Preamble()

	return binary.LittleEndian.AppendUint32(preamble[:], bh.Nonce)
}

func (bh *BlockHeader) Hash() *chainhash.Hash {
	hash := chainhash.DoubleHashH(bh.Bytes())
	return &hash
}
