package util

import (
	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	"github.com/minio/sha256-simd"
)

// Hasher computes a single SHA-256 digest. Implementations must be safe for concurrent use.
type Hasher interface {
	Sum256(data []byte) (chainhash.Hash, error)
}

// HasherFunc adapts a plain function to the Hasher interface.
type HasherFunc func(data []byte) (chainhash.Hash, error)

func (f HasherFunc) Sum256(data []byte) (chainhash.Hash, error) {
	return f(data)
}

// SIMDHasher is the default Hasher, backed by minio/sha256-simd.
type SIMDHasher struct{}

func (SIMDHasher) Sum256(data []byte) (chainhash.Hash, error) {
	return sha256.Sum256(data), nil
}

// DoubleSha256 hashes data twice with h. The result is in internal byte order, the same order the
// header and merkle branch use.
func DoubleSha256(h Hasher, data []byte) (chainhash.Hash, error) {
	first, err := h.Sum256(data)
	if err != nil {
		return chainhash.Hash{}, errors.NewHashFailedError("[DoubleSha256] first round failed", err)
	}

	second, err := h.Sum256(first[:])
	if err != nil {
		return chainhash.Hash{}, errors.NewHashFailedError("[DoubleSha256] second round failed", err)
	}

	return second, nil
}
