package mining

import (
	"context"
	"time"

	"github.com/bsv-blockchain/blkmaker/errors"
	"github.com/bsv-blockchain/blkmaker/model"
	"github.com/bsv-blockchain/blkmaker/ulogger"
	"github.com/google/uuid"
	"github.com/jellydator/ttlcache/v3"
)

// RegisteredWork is what the registry remembers about an issued work unit.
type RegisteredWork struct {
	Template *model.Template
	// Header is the preamble handed out, with a zero merkle root for merkle-only work.
	Header     [model.BlockHeaderPreambleSize]byte
	DataID     uint32
	MerkleOnly bool
	// ExtranonceSize is the extranonce length merkle-only work was issued with.
	ExtranonceSize int
	IssuedAt       time.Time
}

// WorkRegistry keeps issued work until it expires so that solutions coming back from miners can be
// matched to their template and assembled.
type WorkRegistry struct {
	logger ulogger.Logger
	bm     *BlockMaker
	ttl    time.Duration
	cache  *ttlcache.Cache[uuid.UUID, *RegisteredWork]
}

// NewWorkRegistry starts a registry that holds work for at most maxTTL.
func NewWorkRegistry(logger ulogger.Logger, bm *BlockMaker, maxTTL time.Duration) *WorkRegistry {
	initPrometheusMetrics()

	r := &WorkRegistry{
		logger: logger,
		bm:     bm,
		ttl:    maxTTL,
		cache: ttlcache.New[uuid.UUID, *RegisteredWork](
			ttlcache.WithTTL[uuid.UUID, *RegisteredWork](maxTTL),
			ttlcache.WithDisableTouchOnHit[uuid.UUID, *RegisteredWork](),
		),
	}

	r.cache.OnEviction(func(_ context.Context, reason ttlcache.EvictionReason, item *ttlcache.Item[uuid.UUID, *RegisteredWork]) {
		prometheusBlockMakerRegistryEviction.Inc()
		prometheusBlockMakerRegisteredWork.Dec()

		if reason == ttlcache.EvictionReasonExpired {
			r.logger.Debugf("[WorkRegistry] work %s expired", item.Key())
		}
	})

	go r.cache.Start()

	return r
}

func (r *WorkRegistry) ttlFor(expire int16) time.Duration {
	ttl := time.Duration(expire) * time.Second
	if ttl <= 0 || ttl > r.ttl {
		return r.ttl
	}

	return ttl
}

func (r *WorkRegistry) set(id uuid.UUID, work *RegisteredWork, expire int16) {
	if r.cache.Has(id) {
		prometheusBlockMakerRegisteredWork.Dec()
	}

	r.cache.Set(id, work, r.ttlFor(expire))
	prometheusBlockMakerRegisteredWork.Inc()
}

// Track registers work issued by GetData.
func (r *WorkRegistry) Track(tmpl *model.Template, work *Work) {
	r.set(work.ID, &RegisteredWork{
		Template: tmpl,
		Header:   work.Data,
		DataID:   work.DataID,
		IssuedAt: time.Now(),
	}, work.Expire)
}

// TrackMerkleWork registers work issued by GetMData.
func (r *WorkRegistry) TrackMerkleWork(tmpl *model.Template, work *MerkleWork) {
	r.set(work.ID, &RegisteredWork{
		Template:       tmpl,
		Header:         work.Header,
		MerkleOnly:     true,
		ExtranonceSize: work.ExtranonceSize,
		IssuedAt:       time.Now(),
	}, work.Expire)
}

// Lookup returns the registered work with the given id.
func (r *WorkRegistry) Lookup(id uuid.UUID) (*RegisteredWork, error) {
	item := r.cache.Get(id)
	if item == nil {
		return nil, errors.NewNotFoundError("[WorkRegistry] work %s not found or expired", id)
	}

	return item.Value(), nil
}

// Submit assembles the block for a solved work unit. Work from GetData only needs the nonce;
// merkle-only work also needs the header the miner completed and the extranonce it used.
func (r *WorkRegistry) Submit(id uuid.UUID, header []byte, extranonce []byte, nonce uint32, foreign bool) (string, error) {
	work, err := r.Lookup(id)
	if err != nil {
		return "", err
	}

	if !work.MerkleOnly {
		return r.bm.AssembleSubmission(work.Template, work.Header[:], nil, work.DataID, nonce, foreign)
	}

	if len(header) < model.BlockHeaderPreambleSize {
		return "", errors.NewInvalidArgumentError("[WorkRegistry] merkle-only work %s needs the completed header", id)
	}

	// any other length would change the coinbase the miner computed its merkle root from
	if len(extranonce) != work.ExtranonceSize {
		return "", errors.NewExtranonceError("[WorkRegistry] work %s was issued with a %d byte extranonce, got %d bytes", id, work.ExtranonceSize, len(extranonce))
	}

	return r.bm.AssembleSubmission(work.Template, header, extranonce, 0, nonce, foreign)
}

// Forget drops a work unit, typically once its block was submitted.
func (r *WorkRegistry) Forget(id uuid.UUID) {
	r.cache.Delete(id)
}

func (r *WorkRegistry) Len() int {
	return r.cache.Len()
}

// Stop halts the expiry goroutine.
func (r *WorkRegistry) Stop() {
	r.cache.Stop()
}
