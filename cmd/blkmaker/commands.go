package main

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/gbt"
	"github.com/bsv-blockchain/blkmaker/mining"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/settings"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/bsv-blockchain/blkmaker/util"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/davecgh/go-spew/spew"
	jsoniter "github.com/json-iterator/go"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type workOutput struct {
	ID     string `json:"id"`
	Data   string `json:"data"`
	DataID uint32 `json:"dataid"`
	Expire int16  `json:"expire"`
}

type merkleWorkOutput struct {
	ID               string   `json:"id"`
	Header           string   `json:"header"`
	Coinbase         string   `json:"coinbase"`
	ExtranonceOffset int      `json:"extranonceoffset"`
	ExtranonceSize   int      `json:"extranoncesize"`
	MerkleBranch     []string `json:"merklebranch"`
	Expire           int16    `json:"expire"`
}

type submissionOutput struct {
	Hash  string `json:"hash,omitempty"`
	Block string `json:"block"`
	// Miner is the "/tag/" text of the coinbase scriptSig, when it has one.
	Miner string `json:"miner,omitempty"`
	Sent  bool   `json:"sent"`
}

// session is a template prepared for work: decoded, with a coinbase and the optional coinbase text.
type session struct {
	logger ulogger.Logger
	bm     *mining.BlockMaker
	client *gbt.Client
	tmpl   *model.Template
	now    time.Time
}

func newSession(c *cli.Context, tSettings *settings.Settings) (*session, error) {
	logger := newLogger(c, tSettings)

	s := &session{
		logger: logger,
		bm:     mining.NewBlockMaker(logger, tSettings),
		client: newClient(c, logger, tSettings),
		now:    time.Now(),
	}

	if receivedAt := c.Int64("received-at"); receivedAt > 0 {
		s.now = time.Unix(receivedAt, 0)
	}

	data, err := s.readTemplate(c)
	if err != nil {
		return nil, err
	}

	if s.tmpl, err = gbt.NewDecoder(logger, tSettings).Decode(data, s.now); err != nil {
		return nil, err
	}

	script, err := payoutScript(c)
	if err != nil {
		return nil, err
	}

	if s.tmpl.Coinbase == nil && len(script) == 0 {
		return nil, errors.NewConfigurationError("template has no coinbasetxn, a --payout-script or --address is needed")
	}

	if _, _, err = s.bm.InitGenerationDefault(s.tmpl, script); err != nil {
		return nil, err
	}

	if text := c.String("coinbase-text"); text != "" {
		headroom, err := s.bm.AppendCoinbase(s.tmpl, []byte(text))
		if err != nil {
			return nil, err
		}

		if headroom < len(text) {
			return nil, errors.NewSizeLimitError("coinbase text of %d bytes does not fit, %d bytes available", len(text), headroom)
		}
	}

	if c.Bool("dump") {
		spew.Fdump(c.App.ErrWriter, s.tmpl)
	}

	return s, nil
}

func (s *session) readTemplate(c *cli.Context) ([]byte, error) {
	path := c.String("template")

	switch path {
	case "":
		return s.client.GetBlockTemplate(c.Context)
	case "-":
		return io.ReadAll(os.Stdin)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigurationError("failed to read template %s", path, err)
	}

	return data, nil
}

func newClient(c *cli.Context, logger ulogger.Logger, tSettings *settings.Settings) *gbt.Client {
	backoff := time.Duration(tSettings.BlockMaker.RPCRetryBackoff) * time.Millisecond

	return gbt.NewClient(logger, c.String("rpc-url"), gbt.WithRetries(tSettings.BlockMaker.RPCRetries, backoff))
}

func payoutScript(c *cli.Context) ([]byte, error) {
	if address := c.String("address"); address != "" {
		script, err := bscript.NewP2PKHFromAddress(address)
		if err != nil {
			return nil, errors.NewInvalidArgumentError("invalid address %s", address, err)
		}

		return *script, nil
	}

	script, err := hex.DecodeString(c.String("payout-script"))
	if err != nil {
		return nil, errors.NewInvalidArgumentError("invalid payout script", err)
	}

	return script, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return errors.NewProcessingError("failed to encode output", err)
	}

	_, err = w.Write(append(b, '\n'))

	return err
}

func templateAction(tSettings *settings.Settings) cli.ActionFunc {
	return func(c *cli.Context) error {
		data, err := newClient(c, newLogger(c, tSettings), tSettings).GetBlockTemplate(c.Context)
		if err != nil {
			return err
		}

		// decode once so that unusable templates are reported here rather than later
		if _, err = gbt.NewDecoder(newLogger(c, tSettings), tSettings).Decode(data, time.Now()); err != nil {
			return err
		}

		_, err = c.App.Writer.Write(append(data, '\n'))

		return err
	}
}

func getDataAction(tSettings *settings.Settings) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := newSession(c, tSettings)
		if err != nil {
			return err
		}

		for i := 0; i < c.Int("count"); i++ {
			work, err := s.bm.GetData(s.tmpl, s.now)
			if err != nil {
				return err
			}

			if err = writeJSON(c.App.Writer, workOutput{
				ID:     work.ID.String(),
				Data:   hex.EncodeToString(work.Data[:]),
				DataID: work.DataID,
				Expire: work.Expire,
			}); err != nil {
				return err
			}
		}

		return nil
	}
}

func getMDataAction(tSettings *settings.Settings) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := newSession(c, tSettings)
		if err != nil {
			return err
		}

		work, err := s.bm.GetMData(s.tmpl, s.now, c.Int("extranonce-size"), c.Bool("roll-ntime"))
		if err != nil {
			return err
		}

		branch := make([]string, len(work.MerkleBranch))
		for i, hash := range work.MerkleBranch {
			branch[i] = hex.EncodeToString(hash[:])
		}

		return writeJSON(c.App.Writer, merkleWorkOutput{
			ID:               work.ID.String(),
			Header:           hex.EncodeToString(work.Header[:]),
			Coinbase:         hex.EncodeToString(work.Coinbase),
			ExtranonceOffset: work.ExtranonceOffset,
			ExtranonceSize:   work.ExtranonceSize,
			MerkleBranch:     branch,
			Expire:           work.Expire,
		})
	}
}

func submitAction(tSettings *settings.Settings) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := newSession(c, tSettings)
		if err != nil {
			return err
		}

		data, err := hex.DecodeString(c.String("data"))
		if err != nil {
			return errors.NewInvalidArgumentError("invalid --data", err)
		}

		extranonce, err := hex.DecodeString(c.String("extranonce"))
		if err != nil {
			return errors.NewInvalidArgumentError("invalid --extranonce", err)
		}

		dataID, err := safeconversion.Uint64ToUint32(c.Uint64("dataid"))
		if err != nil {
			return errors.NewInvalidArgumentError("invalid --dataid", err)
		}

		nonce, err := safeconversion.Uint64ToUint32(c.Uint64("nonce"))
		if err != nil {
			return errors.NewInvalidArgumentError("invalid --nonce", err)
		}

		block, err := s.bm.AssembleSubmission(s.tmpl, data, extranonce, dataID, nonce, c.Bool("foreign"))
		if err != nil {
			return err
		}

		return s.output(c, block, "")
	}
}

// solution is a nonce that satisfies the target for a tracked work unit.
type solution struct {
	work  *mining.Work
	nonce uint32
	hash  string
}

func mineAction(tSettings *settings.Settings) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := newSession(c, tSettings)
		if err != nil {
			return err
		}

		registry := mining.NewWorkRegistry(s.logger, s.bm, time.Duration(tSettings.BlockMaker.WorkRegistryTTL)*time.Second)
		defer registry.Stop()

		maxWork := c.Int("max-work")

		maxNonce, err := safeconversion.Uint64ToUint32(c.Uint64("max-nonce"))
		if err != nil {
			return errors.NewInvalidArgumentError("invalid --max-nonce", err)
		}

		for issued := 0; issued < maxWork; {
			found, n, err := s.mineRound(c.Context, registry, c.Int("workers"), maxWork-issued, maxNonce)
			if err != nil {
				return err
			}

			issued += n

			if found == nil {
				continue
			}

			s.logger.Infof("found block %s with data id %d and nonce %d", found.hash, found.work.DataID, found.nonce)

			block, err := registry.Submit(found.work.ID, nil, nil, found.nonce, false)
			if err != nil {
				return err
			}

			registry.Forget(found.work.ID)

			return s.output(c, block, found.hash)
		}

		return errors.NewWorkExhaustedError("no block found in %d work units", maxWork)
	}
}

// mineRound issues up to one work unit per worker and scans their nonce ranges in parallel. Work
// is issued serially since the template is not safe for concurrent use; only hashing fans out.
func (s *session) mineRound(ctx context.Context, registry *mining.WorkRegistry, workers int, remaining int, maxNonce uint32) (*solution, int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	workers = util.SafeSetLimit(g, workers)

	if workers > remaining {
		workers = remaining
	}

	var (
		mu    sync.Mutex
		found *solution
	)

	for i := 0; i < workers; i++ {
		work, err := s.bm.GetData(s.tmpl, time.Now())
		if err != nil {
			_ = g.Wait()
			return nil, i, err
		}

		registry.Track(s.tmpl, work)

		g.Go(func() error {
			sol, err := scanNonces(gCtx, s.bm.Hasher(), work, s.tmpl.Bits, maxNonce)
			if err != nil || sol == nil {
				if err == nil && gCtx.Err() == nil {
					s.logger.Debugf("nonce range of work %d exhausted", work.DataID)
				}

				return err
			}

			mu.Lock()
			if found == nil {
				found = sol
			}
			mu.Unlock()

			// stop the other workers, the round is won
			cancel()

			return nil
		})
	}

	if err := g.Wait(); err != nil && found == nil {
		return nil, workers, err
	}

	return found, workers, nil
}

// scanNonces tries every nonce up to maxNonce on the work's header, checking ctx between batches.
func scanNonces(ctx context.Context, hasher util.Hasher, work *mining.Work, bits [4]byte, maxNonce uint32) (*solution, error) {
	var header [model.BlockHeaderSize]byte

	copy(header[:], work.Data[:])

	for nonce := uint64(0); nonce <= uint64(maxNonce); nonce++ {
		if nonce&0xffff == 0 && ctx.Err() != nil {
			return nil, nil
		}

		// the nonce is carried big-endian, the way it is submitted
		binary.BigEndian.PutUint32(header[model.BlockHeaderPreambleSize:], uint32(nonce))

		hash, ok, err := util.CheckProofOfWork(hasher, header[:], bits)
		if err != nil {
			return nil, err
		}

		if ok {
			return &solution{work: work, nonce: uint32(nonce), hash: hash.String()}, nil
		}
	}

	return nil, nil
}

func (s *session) output(c *cli.Context, block string, hash string) error {
	out := submissionOutput{
		Hash:  hash,
		Block: block,
	}

	if s.tmpl.Coinbase != nil {
		miner, err := util.ExtractCoinbaseMiner(s.tmpl.Coinbase.Data)
		if err != nil {
			return err
		}

		out.Miner = miner
	}

	if c.Bool("send") {
		if err := s.client.SubmitBlock(c.Context, block, s.tmpl.WorkID); err != nil {
			return err
		}

		out.Sent = true
	}

	return writeJSON(c.App.Writer, out)
}
