package util

import (
	"encoding/binary"
	"strings"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
)

// ExtractCoinbaseHeight returns the block height pushed at the start of a serialized coinbase's scriptSig.
func ExtractCoinbaseHeight(coinbase []byte) (uint32, error) {
	sigScript, err := coinbaseSigScript(coinbase)
	if err != nil {
		return 0, err
	}

	height, _, err := extractCoinbaseHeightAndText(sigScript)

	return height, err
}

// ExtractCoinbaseMiner returns the "/tag/" style miner text following the height push, if any.
func ExtractCoinbaseMiner(coinbase []byte) (string, error) {
	sigScript, err := coinbaseSigScript(coinbase)
	if err != nil {
		return "", err
	}

	_, miner, err := extractCoinbaseHeightAndText(sigScript)
	if err != nil && errors.Is(err, errors.ErrCoinbaseMissingBlockHeight) {
		err = nil
	}

	return miner, err
}

func coinbaseSigScript(coinbase []byte) (bscript.Script, error) {
	tx, err := bt.NewTxFromBytes(coinbase)
	if err != nil {
		return nil, errors.NewTxInvalidError("failed to parse coinbase", err)
	}

	if !tx.IsCoinbase() || tx.Inputs[0].UnlockingScript == nil {
		return nil, errors.NewTxInvalidError("transaction is not a coinbase")
	}

	return *tx.Inputs[0].UnlockingScript, nil
}

func extractCoinbaseHeightAndText(sigScript bscript.Script) (uint32, string, error) {
	if len(sigScript) < 1 {
		return 0, "", errors.New(errors.ERR_COINBASE_MISSING_BLOCK_HEIGHT, "the coinbase signature script must start with the length of the serialized block height")
	}

	serializedLen := int(sigScript[0])
	if len(sigScript[1:]) < serializedLen {
		return 0, "", errors.New(errors.ERR_COINBASE_MISSING_BLOCK_HEIGHT, "the coinbase signature script must start with the serialized block height")
	}

	serializedHeightBytes := sigScript[1 : serializedLen+1]
	if len(serializedHeightBytes) > 8 {
		return 0, "", errors.New(errors.ERR_COINBASE_MISSING_BLOCK_HEIGHT, "serialized block height too large")
	}

	heightBytes := make([]byte, 8)
	copy(heightBytes, serializedHeightBytes)
	serializedHeight := binary.LittleEndian.Uint64(heightBytes)

	arbitraryText := string(sigScript[serializedLen+1:])

	return uint32(serializedHeight), extractMiner(arbitraryText), nil
}

// extractMiner keeps everything up to and including the last "/".
func extractMiner(str string) string {
	str = strings.ToValidUTF8(str, "?")

	start := strings.Index(str, "/")
	if start < 0 {
		return str
	}

	end := strings.LastIndex(str, "/")
	if end == start {
		return str[start:]
	}

	return str[start : end+1]
}
