package util

import (
	"encoding/binary"
	"math/big"

	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// CalculateTarget expands compact bits, in header byte order, into the proof of work target.
func CalculateTarget(nBits [4]byte) *big.Int {
	nb := binary.LittleEndian.Uint32(nBits[:])

	exponent := nb >> 24
	mantissa := nb & 0x007FFFFF

	if exponent <= 3 {
		mantissa >>= 8 * (3 - exponent)
		return big.NewInt(int64(mantissa))
	}

	target := big.NewInt(int64(mantissa))
	target.Lsh(target, uint(8*(exponent-3)))

	return target
}

// CheckProofOfWork hashes an 80 byte header and reports whether the hash meets the target encoded by nBits.
func CheckProofOfWork(h Hasher, header []byte, nBits [4]byte) (chainhash.Hash, bool, error) {
	hash, err := DoubleSha256(h, header)
	if err != nil {
		return chainhash.Hash{}, false, err
	}

	value := new(big.Int).SetBytes(bt.ReverseBytes(hash.CloneBytes()))

	return hash, value.Cmp(CalculateTarget(nBits)) <= 0, nil
}
