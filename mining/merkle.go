package mining

import (
	"math/bits"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/util"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// hashTransactions fills in the txid of every template transaction that does not have one yet.
func (bm *BlockMaker) hashTransactions(tmpl *model.Template) error {
	for i, tx := range tmpl.Transactions {
		if _, err := tx.Hash(bm.hasher); err != nil {
			return errors.NewHashFailedError("[hashTransactions] failed to hash transaction %d", i, err)
		}
	}

	return nil
}

// buildMerkleBranch computes the hashes that combine with the coinbase hash to give the merkle
// root. It runs once per template; the branch only depends on the non-coinbase transactions.
func (bm *BlockMaker) buildMerkleBranch(tmpl *model.Template) error {
	if tmpl.MerkleBranch != nil {
		return nil
	}

	start := time.Now()

	if err := bm.hashTransactions(tmpl); err != nil {
		return err
	}

	n := len(tmpl.Transactions)
	branch := make([]chainhash.Hash, bits.Len(uint(n)))

	if len(branch) > 0 {
		// index 0 of every level is the position of the (unknown) coinbase side of the tree
		level := make([]chainhash.Hash, n+1, n+2)
		for i, tx := range tmpl.Transactions {
			level[i+1] = *tx.TxHash
		}

		next := make([]chainhash.Hash, 1, n+2)

		var concat [2 * chainhash.HashSize]byte

		for i := range branch {
			branch[i] = level[1]

			if len(level)%2 == 1 {
				level = append(level, level[len(level)-1])
			}

			next = next[:1]

			for j := 2; j < len(level); j += 2 {
				copy(concat[:chainhash.HashSize], level[j][:])
				copy(concat[chainhash.HashSize:], level[j+1][:])

				hash, err := util.DoubleSha256(bm.hasher, concat[:])
				if err != nil {
					return errors.NewHashFailedError("[buildMerkleBranch] failed to hash level %d", i, err)
				}

				next = append(next, hash)
			}

			level, next = next, level
		}
	}

	tmpl.MerkleBranch = branch

	prometheusBlockMakerMerkleBranch.Observe(time.Since(start).Seconds())
	bm.logger.Debugf("[buildMerkleBranch] built %d branch hashes for %d transactions in %s", len(branch), n, time.Since(start))

	return nil
}

// MerkleRoot returns the merkle root of the block made of coinbase and the template transactions.
// The root is in internal byte order, ready to be copied into a header.
func (bm *BlockMaker) MerkleRoot(tmpl *model.Template, coinbase []byte) (chainhash.Hash, error) {
	if err := bm.buildMerkleBranch(tmpl); err != nil {
		return chainhash.Hash{}, err
	}

	coinbaseHash, err := util.DoubleSha256(bm.hasher, coinbase)
	if err != nil {
		return chainhash.Hash{}, err
	}

	return util.BuildMerkleRootFromCoinbase(bm.hasher, coinbaseHash, tmpl.MerkleBranch)
}

// MerkleBranch returns a copy of the template's merkle branch, building it if needed.
func (bm *BlockMaker) MerkleBranch(tmpl *model.Template) ([]chainhash.Hash, error) {
	if err := bm.buildMerkleBranch(tmpl); err != nil {
		return nil, err
	}

	branch := make([]chainhash.Hash, len(tmpl.MerkleBranch))
	copy(branch, tmpl.MerkleBranch)

	return branch, nil
}
