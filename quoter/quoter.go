// Package quoter serves FX pool quotes from an in-memory pool snapshot.
package quoter

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	fxpool "github.com/defistate/fxpool-client-go/protocols/fxpool"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/calculator"
	"github.com/defistate/fxpool-client-go/protocols/fxpool/indexer"
	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	operationGivenIn     = "given_in"
	operationGivenOut    = "given_out"
	operationMaxTradable = "max_tradable"
)

// ErrUnknownPool is returned when the snapshot holds no pool at the requested address.
var ErrUnknownPool = errors.New("unknown pool")

// Logger defines a standard interface for structured, leveled logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// FXPoolIndexer builds lookup views over a pool snapshot.
type FXPoolIndexer interface {
	Index(pools []fxpool.Pool) indexer.IndexedFXPool
}

// Config holds the quoter's required dependencies.
type Config struct {
	Logger   Logger
	Registry prometheus.Registerer
}

func (c *Config) validate() error {
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	return nil
}

// Option configures the Quoter.
type Option interface {
	apply(*Quoter)
}

type funcOption func(*Quoter)

func (f funcOption) apply(q *Quoter) {
	f(q)
}

func newOption(f func(*Quoter)) Option {
	return funcOption(f)
}

// WithIndexer replaces the default pool indexer.
func WithIndexer(i FXPoolIndexer) Option {
	return newOption(func(q *Quoter) {
		q.indexer = i
	})
}

// WithPools seeds the quoter with an initial snapshot.
func WithPools(pools []fxpool.Pool) Option {
	return newOption(func(q *Quoter) {
		q.initial = pools
	})
}

// Quoter quotes swaps against the latest pool snapshot. It is safe for concurrent use.
type Quoter struct {
	logger  Logger
	metrics *Metrics
	indexer FXPoolIndexer
	initial []fxpool.Pool

	// writeMu serializes snapshot writers; mu guards the published snapshot.
	writeMu sync.Mutex
	mu      sync.RWMutex
	pools   []fxpool.Pool
	index   indexer.IndexedFXPool
}

// New creates a Quoter from cfg.
func New(cfg *Config, opts ...Option) (*Quoter, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	q := &Quoter{
		logger:  cfg.Logger,
		metrics: NewMetrics(cfg.Registry),
		indexer: indexer.New(),
	}
	for _, opt := range opts {
		opt.apply(q)
	}

	if err := q.Update(q.initial); err != nil {
		return nil, err
	}
	q.initial = nil
	return q, nil
}

// Update replaces the snapshot with an independent copy of pools.
func (q *Quoter) Update(pools []fxpool.Pool) error {
	q.writeMu.Lock()
	defer q.writeMu.Unlock()

	snapshot, err := fxpool.Patcher(pools, fxpool.FXPoolSystemDiff{})
	if err != nil {
		return fmt.Errorf("failed to copy pool snapshot: %w", err)
	}
	q.swap(snapshot)
	return nil
}

// ApplyDiff advances the snapshot by diff.
func (q *Quoter) ApplyDiff(diff fxpool.FXPoolSystemDiff) error {
	if diff.IsEmpty() {
		return nil
	}

	q.writeMu.Lock()
	defer q.writeMu.Unlock()

	q.mu.RLock()
	current := q.pools
	q.mu.RUnlock()

	next, err := fxpool.Patcher(current, diff)
	if err != nil {
		return fmt.Errorf("failed to patch pool snapshot: %w", err)
	}
	q.swap(next)

	q.logger.Debug("Applied pool diff",
		"additions", len(diff.Additions),
		"updates", len(diff.Updates),
		"deletions", len(diff.Deletions),
	)
	return nil
}

func (q *Quoter) swap(pools []fxpool.Pool) {
	index := q.indexer.Index(pools)

	q.mu.Lock()
	q.pools = pools
	q.index = index
	q.mu.Unlock()

	q.metrics.pools.Set(float64(len(pools)))
}

// Pools returns the current snapshot.
func (q *Quoter) Pools() []fxpool.Pool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.index.All()
}

// Pair assembles the pair data for tokenIn -> tokenOut on the pool at poolAddress.
func (q *Quoter) Pair(poolAddress, tokenIn, tokenOut common.Address) (*calculator.PairData, error) {
	q.mu.RLock()
	pool, ok := q.index.GetByAddress(poolAddress)
	q.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPool, poolAddress.Hex())
	}
	return calculator.NewPairData(pool, tokenIn, tokenOut)
}

// QuoteGivenIn quotes the output for each input amount. Pair assembly errors are
// returned; a failing amount yields 0 and is logged and counted.
func (q *Quoter) QuoteGivenIn(poolAddress, tokenIn, tokenOut common.Address, amountsIn []*big.Int) ([]*big.Int, error) {
	return q.quote(operationGivenIn, poolAddress, tokenIn, tokenOut, amountsIn, calculator.GetAmountOut)
}

// QuoteGivenOut quotes the input required for each output amount. Pair assembly
// errors are returned; a failing amount yields 0 and is logged and counted.
func (q *Quoter) QuoteGivenOut(poolAddress, tokenIn, tokenOut common.Address, amountsOut []*big.Int) ([]*big.Int, error) {
	return q.quote(operationGivenOut, poolAddress, tokenIn, tokenOut, amountsOut, calculator.GetAmountIn)
}

func (q *Quoter) quote(
	operation string,
	poolAddress, tokenIn, tokenOut common.Address,
	amounts []*big.Int,
	quoteFn func(*big.Int, *calculator.PairData) (*big.Int, error),
) ([]*big.Int, error) {
	timer := prometheus.NewTimer(q.metrics.quoteDuration.WithLabelValues(operation))
	defer timer.ObserveDuration()

	pair, err := q.Pair(poolAddress, tokenIn, tokenOut)
	if err != nil {
		q.metrics.failedQuotes.WithLabelValues(operation, failureReason(err)).Inc()
		return nil, err
	}

	results := make([]*big.Int, len(amounts))
	for i, amount := range amounts {
		q.metrics.quotes.WithLabelValues(operation).Inc()

		result, err := quoteFn(amount, pair)
		if err != nil {
			reason := calculator.FailureReason(err)
			q.metrics.failedQuotes.WithLabelValues(operation, reason).Inc()
			q.logger.Debug("Quote degraded to zero",
				"operation", operation,
				"pool", poolAddress.Hex(),
				"amount", amount,
				"reason", reason,
				"error", err,
			)
			result = new(big.Int)
		}
		results[i] = result
	}
	return results, nil
}

// MaxTradableAmount returns the largest amount of the given side that stays inside
// the pool's halt boundary. Computation failures yield 0.
func (q *Quoter) MaxTradableAmount(poolAddress, tokenIn, tokenOut common.Address, side calculator.SwapSide) (*big.Int, error) {
	timer := prometheus.NewTimer(q.metrics.quoteDuration.WithLabelValues(operationMaxTradable))
	defer timer.ObserveDuration()

	pair, err := q.Pair(poolAddress, tokenIn, tokenOut)
	if err != nil {
		q.metrics.failedQuotes.WithLabelValues(operationMaxTradable, failureReason(err)).Inc()
		return nil, err
	}

	amount, err := calculator.GetMaxTradableAmount(pair, side)
	if err != nil {
		reason := calculator.FailureReason(err)
		q.metrics.failedQuotes.WithLabelValues(operationMaxTradable, reason).Inc()
		q.logger.Warn("Max tradable amount degraded to zero",
			"pool", poolAddress.Hex(),
			"side", side.String(),
			"reason", reason,
			"error", err,
		)
		return new(big.Int), nil
	}
	return amount, nil
}

func failureReason(err error) string {
	if errors.Is(err, ErrUnknownPool) {
		return "unknown_pool"
	}
	return calculator.FailureReason(err)
}
