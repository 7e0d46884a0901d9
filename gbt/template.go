// Package gbt converts between the getblocktemplate / submitblock JSON-RPC wire format and the
// block maker's model types.
package gbt

import (
	"encoding/hex"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/settings"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/bsv-blockchain/blkmaker/util"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Result models the result of the getblocktemplate command. Optional fields are pointers so that
// an absent field can be told apart from a zero value.
type Result struct {
	Version           uint32            `json:"version"`
	PreviousBlockHash string            `json:"previousblockhash"`
	Bits              string            `json:"bits"`
	Height            uint32            `json:"height"`
	CurTime           uint32            `json:"curtime"`
	MinTime           uint32            `json:"mintime,omitempty"`
	MaxTime           *uint32           `json:"maxtime,omitempty"`
	Expires           *int64            `json:"expires,omitempty"`
	SizeLimit         *uint64           `json:"sizelimit,omitempty"`
	SigOpLimit        *int64            `json:"sigoplimit,omitempty"`
	CoinbaseValue     *uint64           `json:"coinbasevalue,omitempty"`
	CoinbaseTxn       *ResultTx         `json:"coinbasetxn,omitempty"`
	CoinbaseAux       map[string]string `json:"coinbaseaux,omitempty"`
	Transactions      []ResultTx        `json:"transactions"`
	Mutable           []string          `json:"mutable,omitempty"`
	Rules             []string          `json:"rules,omitempty"`
	Capabilities      []string          `json:"capabilities,omitempty"`
	WorkID            string            `json:"workid,omitempty"`
	Target            string            `json:"target,omitempty"`
	LongPollID        string            `json:"longpollid,omitempty"`
}

// ResultTx is a transaction of a getblocktemplate result.
type ResultTx struct {
	Data string `json:"data"`
	// TxID and Hash are in display byte order. Hash is only used when TxID is absent.
	TxID   string `json:"txid,omitempty"`
	Hash   string `json:"hash,omitempty"`
	Fee    int64  `json:"fee,omitempty"`
	SigOps *int16 `json:"sigops,omitempty"`
}

// Decoder builds templates from getblocktemplate results, filling in what the server left out
// from settings.
type Decoder struct {
	logger    ulogger.Logger
	settings  *settings.Settings
	hasher    util.Hasher
	verifyIDs bool
}

type DecoderOption func(*Decoder)

// WithTxIDVerification recomputes every transaction id and rejects templates whose ids do not match.
func WithTxIDVerification(h util.Hasher) DecoderOption {
	return func(d *Decoder) {
		d.hasher = h
		d.verifyIDs = true
	}
}

func NewDecoder(logger ulogger.Logger, tSettings *settings.Settings, opts ...DecoderOption) *Decoder {
	if tSettings == nil {
		tSettings = settings.NewSettings()
	}

	d := &Decoder{
		logger:   logger,
		settings: tSettings,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Decode parses a getblocktemplate result, the "result" member of the JSON-RPC response.
func (d *Decoder) Decode(data []byte, receivedAt time.Time) (*model.Template, error) {
	var res Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, errors.NewProcessingError("[gbt] failed to parse getblocktemplate result", err)
	}

	return d.Template(&res, receivedAt)
}

// Template converts a parsed result into a template received at receivedAt.
func (d *Decoder) Template(res *Result, receivedAt time.Time) (*model.Template, error) {
	for _, rule := range res.Rules {
		if strings.HasPrefix(rule, "!") && !model.SupportsRule(rule) {
			return nil, errors.NewRuleUnsupportedError("[gbt] template requires rule %q", strings.TrimPrefix(rule, "!"))
		}
	}

	tmpl := &model.Template{
		Version:    res.Version,
		Height:     res.Height,
		CurTime:    res.CurTime,
		MinTime:    res.MinTime,
		MaxTime:    math.MaxUint32,
		ReceivedAt: receivedAt,
		Expires:    int64(d.settings.BlockMaker.DefaultExpires),
		SizeLimit:  d.settings.BlockMaker.DefaultSizeLimit,
		SigOpLimit: -1,
		WorkID:     res.WorkID,
	}

	prevBlock, err := chainhash.NewHashFromStr(res.PreviousBlockHash)
	if err != nil || len(res.PreviousBlockHash) != 2*chainhash.HashSize {
		return nil, errors.NewInvalidArgumentError("[gbt] invalid previousblockhash %q", res.PreviousBlockHash)
	}

	tmpl.PrevBlock = *prevBlock

	bits, err := hex.DecodeString(res.Bits)
	if err != nil || len(bits) != len(tmpl.Bits) {
		return nil, errors.NewInvalidArgumentError("[gbt] invalid bits %q", res.Bits)
	}

	// bits is sent big-endian, headers carry it little-endian
	for i, b := range bits {
		tmpl.Bits[len(bits)-1-i] = b
	}

	if res.MaxTime != nil {
		tmpl.MaxTime = *res.MaxTime
	}

	if res.Expires != nil {
		tmpl.Expires = *res.Expires
	}

	if res.SizeLimit != nil {
		tmpl.SizeLimit = *res.SizeLimit
	}

	if res.SigOpLimit != nil {
		tmpl.SigOpLimit = *res.SigOpLimit
	}

	if res.CoinbaseValue != nil {
		tmpl.SetCoinbaseValue(*res.CoinbaseValue)
	}

	mutations, unknown := model.ParseMutations(res.Mutable)
	if len(unknown) > 0 {
		d.logger.Debugf("[gbt] ignoring unknown mutations %v", unknown)
	}

	tmpl.Mutations = mutations

	if tmpl.Aux, err = decodeAux(res.CoinbaseAux); err != nil {
		return nil, err
	}

	for i := range res.Transactions {
		tx, err := d.transaction(&res.Transactions[i])
		if err != nil {
			return nil, errors.NewTxInvalidError("[gbt] transaction %d", i, err)
		}

		tmpl.AddTransaction(tx)
	}

	if res.CoinbaseTxn != nil {
		coinbase, err := d.transaction(res.CoinbaseTxn)
		if err != nil {
			return nil, errors.NewTxInvalidError("[gbt] coinbasetxn", err)
		}

		if coinbase.SigOps < 0 {
			if coinbase.SigOps, err = coinbaseSigOps(coinbase.Data); err != nil {
				return nil, err
			}
		}

		tmpl.Coinbase = coinbase
	}

	d.logger.Debugf("[gbt] decoded template for height %d with %d transactions, mutable %s", tmpl.Height, len(tmpl.Transactions), tmpl.Mutations)

	return tmpl, nil
}

func (d *Decoder) transaction(rt *ResultTx) (*model.Transaction, error) {
	data, err := hex.DecodeString(rt.Data)
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid transaction data", err)
	}

	tx := model.NewTransaction(data)
	if rt.SigOps != nil {
		tx.SigOps = *rt.SigOps
	}

	txID := rt.TxID
	if txID == "" {
		txID = rt.Hash
	}

	if txID != "" {
		hash, err := chainhash.NewHashFromStr(txID)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("invalid transaction id %q", txID, err)
		}

		tx.TxHash = hash
	}

	if d.verifyIDs && tx.TxHash != nil {
		expected := *tx.TxHash

		tx.TxHash = nil

		actual, err := tx.Hash(d.hasher)
		if err != nil {
			return nil, err
		}

		if !actual.IsEqual(&expected) {
			return nil, errors.NewTxInvalidError("transaction id %s does not match its data, which hashes to %s", expected, actual)
		}
	}

	return tx, nil
}

// decodeAux returns the coinbaseaux values ordered by key.
func decodeAux(aux map[string]string) ([][]byte, error) {
	if len(aux) == 0 {
		return nil, nil
	}

	keys := make([]string, 0, len(aux))
	for key := range aux {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	blobs := make([][]byte, 0, len(keys))

	for _, key := range keys {
		blob, err := hex.DecodeString(aux[key])
		if err != nil {
			return nil, errors.NewInvalidArgumentError("[gbt] invalid coinbaseaux %q", key, err)
		}

		blobs = append(blobs, blob)
	}

	return blobs, nil
}

// coinbaseSigOps counts the legacy sigops of a server supplied coinbase that came without a count.
func coinbaseSigOps(data []byte) (int16, error) {
	tx, err := bt.NewTxFromBytes(data)
	if err != nil {
		return 0, errors.NewTxInvalidError("[gbt] failed to parse coinbasetxn", err)
	}

	if !tx.IsCoinbase() {
		return 0, errors.NewTxInvalidError("[gbt] coinbasetxn is not a coinbase transaction")
	}

	var sigOps int64

	for _, in := range tx.Inputs {
		if in.UnlockingScript != nil {
			sigOps += int64(util.CountSigOps(*in.UnlockingScript))
		}
	}

	for _, out := range tx.Outputs {
		if out.LockingScript != nil {
			sigOps += int64(util.CountSigOps(*out.LockingScript))
		}
	}

	return util.ClampInt16(sigOps), nil
}
