package util

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateTarget(t *testing.T) {
	tests := []struct {
		name     string
		bits     [4]byte
		expected string
	}{
		{"regtest", [4]byte{0xff, 0xff, 0x7f, 0x20}, "7fffff0000000000000000000000000000000000000000000000000000000000"},
		{"mainnet genesis", [4]byte{0xff, 0xff, 0x00, 0x1d}, "ffff0000000000000000000000000000000000000000000000000000"},
		{"small exponent", [4]byte{0x56, 0x34, 0x12, 0x02}, "1234"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expected, ok := new(big.Int).SetString(tt.expected, 16)
			require.True(t, ok)

			assert.Equal(t, 0, expected.Cmp(CalculateTarget(tt.bits)))
		})
	}
}

func TestCheckProofOfWork(t *testing.T) {
	// header of regtest block 34424
	header := mustDecodeHex(t, "00000020a324e51a37547c5957868beb9f97d34f9b32ae96427513f4fe79ab3ee30f271a8acb3554ad71fbdc6070e6358ea9048c05bc83f1b962cf24295d9d07583d81698b5e3b67ffff7f2001000000")

	hash, ok, err := CheckProofOfWork(SIMDHasher{}, header, [4]byte{0xff, 0xff, 0x7f, 0x20})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "611fd978", hash.String()[:8])

	_, ok, err = CheckProofOfWork(SIMDHasher{}, header, [4]byte{0xff, 0xff, 0x00, 0x1d})
	require.NoError(t, err)
	assert.False(t, ok)
}
