package block

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// DefaultMaxIterations is the number of attempts a seal will make before
// giving up.
const DefaultMaxIterations = math.MaxInt32

// Each worker checks for cancellation and reports progress on these
// attempt boundaries.
const (
	cancelCheckInterval = 1 << 12
	reportInterval      = 1_000_000
)

// =============================================================================

// SealOption changes how a seal operation searches for a nonce.
type SealOption func(cfg *sealConfig)

type sealConfig struct {
	maxIterations uint64
	workers       int
	evHandler     func(v string, args ...any)
}

// WithMaxIterations sets the ceiling on the number of attempts.
func WithMaxIterations(n uint64) SealOption {
	return func(cfg *sealConfig) {
		cfg.maxIterations = n
	}
}

// WithWorkers spreads the search across n goroutines. The nonce found is the
// same one a single worker would find.
func WithWorkers(n int) SealOption {
	return func(cfg *sealConfig) {
		if n > 0 {
			cfg.workers = n
		}
	}
}

// WithEvHandler provides a function that receives mining events. Events from
// parallel workers are delivered one at a time.
func WithEvHandler(ev func(v string, args ...any)) SealOption {
	return func(cfg *sealConfig) {
		if ev != nil {
			cfg.evHandler = ev
		}
	}
}

// =============================================================================

// Seal performs the work of mining to find a nonce that produces a hash whose
// leading bytes equal the difficulty. The search continues forward from the
// block's current nonce. On success the nonce and hash are applied to the
// block together and the hash is returned. On failure the block is left as
// it was.
func (b *Block) Seal(ctx context.Context, difficulty []byte, options ...SealOption) ([]byte, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: block is nil", ErrInvalidParameter)
	}

	if difficulty == nil {
		return nil, fmt.Errorf("%w: difficulty is nil", ErrInvalidParameter)
	}

	if size := b.DigestSize(); len(difficulty) > size {
		return nil, fmt.Errorf("%w: got %d bytes, digest is %d bytes", ErrDifficultyTooLong, len(difficulty), size)
	}

	cfg := sealConfig{
		maxIterations: DefaultMaxIterations,
		workers:       1,
		evHandler:     func(v string, args ...any) {},
	}
	for _, option := range options {
		option(&cfg)
	}

	// Workers report progress from their own goroutines.
	var evMu sync.Mutex
	handler := cfg.evHandler
	cfg.evHandler = func(v string, args ...any) {
		evMu.Lock()
		defer evMu.Unlock()
		handler(v, args...)
	}

	ev := cfg.evHandler

	ev("block: Seal: MINING: started: difficulty[%s]: workers[%d]", hexutil.Encode(difficulty), cfg.workers)
	defer ev("block: Seal: MINING: completed")

	sol, err := b.search(ctx, difficulty, cfg)
	if err != nil {
		ev("block: Seal: MINING: ERROR: %s", err)
		return nil, err
	}

	ev("block: Seal: MINING: SOLVED: prevBlk[%s]: newBlk[%s]: nonce[%d]", hexutil.Encode(b.PrevHash), hexutil.Encode(sol.hash), sol.nonce)
	ev("block: Seal: MINING: attempts[%d]", sol.attempts)

	b.Nonce = sol.nonce
	b.hash = sol.hash

	return bytes.Clone(sol.hash), nil
}

// =============================================================================

// solution is a nonce and the hash it produced.
type solution struct {
	index    uint64
	attempts uint64
	nonce    uint32
	hash     []byte
}

// search looks for the lowest attempt index whose hash matches the
// difficulty. Attempt i tries nonce start+1+i. Worker w takes the indexes
// w, w+workers, w+2*workers and so on, and stops once another worker has
// solved a lower index. The block is not modified.
func (b *Block) search(ctx context.Context, difficulty []byte, cfg sealConfig) (solution, error) {
	start := b.Nonce

	// The nonce can't move past the 32 bit range.
	limit := cfg.maxIterations
	if room := uint64(math.MaxUint32 - start); room < limit {
		limit = room
	}

	pre := newPreimage(b.Data, b.PrevHash, start, b.TimeStamp)
	strategy := b.hashStrategy()
	stride := uint64(cfg.workers)

	var (
		best     atomic.Uint64
		attempts atomic.Uint64
		mu       sync.Mutex
		sol      solution
		wg       sync.WaitGroup
	)
	best.Store(limit)

	wg.Add(cfg.workers)
	for w := range cfg.workers {
		go func(worker int) {
			defer wg.Done()

			p := pre.clone()
			h := strategy()

			var n uint64
			defer func() {
				attempts.Add(n)
			}()

			for i := uint64(worker); i < best.Load(); i += stride {
				if n%cancelCheckInterval == 0 && ctx.Err() != nil {
					return
				}

				n++
				if n%reportInterval == 0 {
					cfg.evHandler("block: Seal: MINING: worker[%d]: attempts[%d]", worker, n)
				}

				nonce := start + 1 + uint32(i)
				p.setNonce(nonce)

				h.Reset()
				h.Write(p.buf)
				hash := h.Sum(nil)

				if !bytes.HasPrefix(hash, difficulty) {
					continue
				}

				mu.Lock()
				if i < best.Load() {
					best.Store(i)
					sol = solution{index: i, nonce: nonce, hash: hash}
				}
				mu.Unlock()

				return
			}
		}(w)
	}

	wg.Wait()

	// Did we get cancelled trying to solve the problem.
	if ctx.Err() != nil {
		return solution{}, ctx.Err()
	}

	if best.Load() == limit {
		return solution{}, fmt.Errorf("%w: attempts[%d]", ErrMiningExhausted, attempts.Load())
	}

	sol.attempts = attempts.Load()

	return sol, nil
}
