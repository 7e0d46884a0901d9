package util

import (
	"encoding/binary"
	"math"

	"github.com/bsv-blockchain/go-bt/v2/bscript"
)

// CountSigOps returns the legacy signature-operation count of a raw script. Push operands are
// skipped without being inspected; CHECKSIG and CHECKSIGVERIFY count 1, CHECKMULTISIG and
// CHECKMULTISIGVERIFY count 20. A push whose length prefix runs past the end of the script stops
// the scan and the count so far is returned. The count saturates at math.MaxInt16.
func CountSigOps(script []byte) int16 {
	var sigOps int64

	n := uint64(len(script))

	for i := uint64(0); i < n; i++ {
		switch op := script[i]; {
		case op <= bscript.OpPUSHDATA1:
			if op == bscript.OpPUSHDATA1 {
				if i+1 >= n {
					return ClampInt16(sigOps)
				}

				i++
			}

			i += uint64(script[i])
		case op == bscript.OpPUSHDATA2:
			if i+2 >= n {
				return ClampInt16(sigOps)
			}

			i += 2 + uint64(binary.LittleEndian.Uint16(script[i+1:]))
		case op == bscript.OpPUSHDATA4:
			if i+4 >= n {
				return ClampInt16(sigOps)
			}

			i += 4 + uint64(binary.LittleEndian.Uint32(script[i+1:]))
		case op == bscript.OpCHECKSIG, op == bscript.OpCHECKSIGVERIFY:
			sigOps++
		case op == bscript.OpCHECKMULTISIG, op == bscript.OpCHECKMULTISIGVERIFY:
			sigOps += 20
		}
	}

	return ClampInt16(sigOps)
}

// ClampInt16 narrows v to int16, pinning it to the nearest bound instead of wrapping.
func ClampInt16(v int64) int16 {
	switch {
	case v > math.MaxInt16:
		return math.MaxInt16
	case v < math.MinInt16:
		return math.MinInt16
	default:
		return int16(v)
	}
}
