package util

import (
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// BuildMerkleRootFromCoinbase builds the merkle root of the block from the coinbase transaction hash (txid)
// and the merkle branch needed to work up the merkle tree. Hashes stay in internal byte order.
func BuildMerkleRootFromCoinbase(h Hasher, coinbaseHash chainhash.Hash, merkleBranch []chainhash.Hash) (chainhash.Hash, error) {
	acc := coinbaseHash

	var (
		concat [2 * chainhash.HashSize]byte
		err    error
	)

	for _, branch := range merkleBranch {
		copy(concat[:chainhash.HashSize], acc[:])
		copy(concat[chainhash.HashSize:], branch[:])

		if acc, err = DoubleSha256(h, concat[:]); err != nil {
			return chainhash.Hash{}, err
		}
	}

	return acc, nil
}
