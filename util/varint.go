package util

import (
	"github.com/bsv-blockchain/go-bt/v2"
)

// VarintSize calculates the number of bytes required to store a value as a Bitcoin variable-length integer.
// Returns 1, 3, 5, or 9 bytes depending on the value size.
func VarintSize(x uint64) uint64 {
	if x < 0xfd {
		return 1
	}

	if x <= 0xffff {
		return 3
	}

	if x <= 0xffffffff {
		return 5
	}

	return 9
}

// VarintEncode returns the compact-size encoding of x: a single byte below 0xfd, otherwise a
// 0xfd/0xfe/0xff marker followed by the little-endian 16/32/64 bit value.
func VarintEncode(x uint64) []byte {
	return bt.VarInt(x).Bytes()
}

// AppendVarint appends the compact-size encoding of x to dst.
func AppendVarint(dst []byte, x uint64) []byte {
	return append(dst, bt.VarInt(x).Bytes()...)
}
