package model

import (
	"github.com/bsv-blockchain/blkmaker/util"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// Transaction is a serialized transaction carried by a Template.
type Transaction struct {
	Data []byte
	// TxHash caches the double SHA-256 of Data in internal byte order. Nil until computed, and reset
	// whenever Data changes.
	TxHash *chainhash.Hash
	// SigOps is negative when the count is unknown.
	SigOps int16
}

func NewTransaction(data []byte) *Transaction {
	return &Transaction{
		Data:   data,
		SigOps: -1,
	}
}

func (tx *Transaction) Size() uint64 {
	return uint64(len(tx.Data))
}

// Hash returns the cached txid, computing it with h when missing.
func (tx *Transaction) Hash(h util.Hasher) (chainhash.Hash, error) {
	if tx.TxHash != nil {
		return *tx.TxHash, nil
	}

	hash, err := util.DoubleSha256(h, tx.Data)
	if err != nil {
		return chainhash.Hash{}, err
	}

	tx.TxHash = &hash

	return hash, nil
}

// SetData replaces the serialized bytes and drops the cached hash.
func (tx *Transaction) SetData(data []byte) {
	tx.Data = data
	tx.TxHash = nil
}
