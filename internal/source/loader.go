// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source populates the record store from a remote source, falling
// back to a bundled local snapshot when the remote is unavailable.
//
// A load cycle checks the remote's health, then fetches records, the
// country list, the expertise list and the precomputed report in parallel.
// Only the records are required: anything else that fails is derived
// locally by the statistics engine. An unhealthy remote or a failed
// records fetch switches the whole cycle to the fallback bundle. Each
// cycle publishes exactly one new snapshot or, when even the fallback
// cannot be built, the empty snapshot.
package source

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/pdiddy/kol-analytics/internal/metrics"
	"github.com/pdiddy/kol-analytics/internal/stats"
	"github.com/pdiddy/kol-analytics/internal/store"
	"github.com/pdiddy/kol-analytics/pkg/types"
)

// Status classifies the result of a load cycle.
type Status int

const (
	// StatusPending means no cycle has completed yet.
	StatusPending Status = iota
	// StatusOK means the snapshot came from the healthy remote.
	StatusOK
	// StatusFallback means the snapshot came from the local bundle.
	StatusFallback
	// StatusFatal means no snapshot could be built; the store holds the
	// empty snapshot.
	StatusFatal
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusFallback:
		return "fallback"
	case StatusFatal:
		return "fatal"
	default:
		return "pending"
	}
}

// errNoRemote is the fallback cause when no remote is configured.
var errNoRemote = errors.New("no remote source configured")

// Outcome is the result of a load cycle.
type Outcome struct {
	Status         Status
	Snapshot       *store.Snapshot
	Report         types.AggregateReport
	Countries      []string
	ExpertiseAreas []string

	// Cause is why the remote was not used (StatusFallback, StatusFatal).
	// Informational only.
	Cause error

	// Err is set for StatusFatal, or when the caller's context ended
	// before the cycle finished.
	Err error

	generation uint64
}

// Healthy reports whether the outcome came from the remote source.
func (o Outcome) Healthy() bool { return o.Status == StatusOK }

// Options configures a Loader. Remote may be nil, in which case every
// cycle uses the fallback.
type Options struct {
	Remote   Remote
	Fallback Fallback
	Store    *store.Store
	Config   types.Config
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
}

// Loader runs load cycles and publishes their snapshots to a Store.
type Loader struct {
	remote   Remote
	fallback Fallback
	store    *store.Store
	source   types.SourceConfig
	engine   types.EngineConfig
	logger   *zap.Logger
	metrics  *metrics.Metrics

	flight     singleflight.Group
	version    atomic.Uint64
	generation atomic.Uint64
	healthy    atomic.Bool
	current    atomic.Pointer[Outcome]

	mu        sync.Mutex // guards cancel and the check-then-publish step
	published *sync.Cond
	cancel    context.CancelFunc
}

const flightKey = "load"

// NewLoader builds a Loader. Fallback defaults to the embedded bundle,
// Store to a fresh store.
func NewLoader(opts Options) *Loader {
	cfg := opts.Config.WithDefaults()
	if opts.Fallback == nil {
		opts.Fallback = NewBundle("")
	}
	if opts.Store == nil {
		opts.Store = store.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	l := &Loader{
		remote:   opts.Remote,
		fallback: opts.Fallback,
		store:    opts.Store,
		source:   cfg.Source,
		engine:   cfg.Engine,
		logger:   opts.Logger.Named("loader"),
		metrics:  opts.Metrics,
	}
	l.published = sync.NewCond(&l.mu)
	return l
}

// Store returns the store the loader publishes to.
func (l *Loader) Store() *store.Store { return l.store }

// Healthy reports whether the last published cycle used the remote.
func (l *Loader) Healthy() bool { return l.healthy.Load() }

// Current returns the last published outcome.
func (l *Loader) Current() Outcome {
	if o := l.current.Load(); o != nil {
		return *o
	}
	return Outcome{
		Status:         StatusPending,
		Snapshot:       store.Empty(),
		Report:         stats.Summarize(store.Empty(), l.statsOptions()),
		Countries:      []string{},
		ExpertiseAreas: []string{},
	}
}

// Load runs a load cycle, or joins the one already in flight. If ctx ends
// first, Load returns the last published outcome with Err set to the
// context error; the cycle keeps running and still publishes.
func (l *Loader) Load(ctx context.Context) Outcome {
	ch := l.flight.DoChan(flightKey, func() (any, error) {
		return l.cycle(), nil
	})
	select {
	case res := <-ch:
		return res.Val.(Outcome)
	case <-ctx.Done():
		out := l.Current()
		out.Err = ctx.Err()
		return out
	}
}

// Reload abandons the cycle in flight, if any, and starts a new one. The
// abandoned cycle's result is discarded, and callers waiting on it receive
// the new cycle's outcome instead.
func (l *Loader) Reload(ctx context.Context) Outcome {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	l.flight.Forget(flightKey)
	l.mu.Unlock()
	return l.Load(ctx)
}

func (l *Loader) cycle() Outcome {
	ctx, cancel := context.WithTimeout(context.Background(), l.source.LoadTimeout)
	defer cancel()

	// Reload reads both under mu, so it always cancels the cycle whose
	// generation it supersedes.
	l.mu.Lock()
	gen := l.generation.Add(1)
	l.cancel = cancel
	l.mu.Unlock()

	start := time.Now()
	out, cause := l.fromRemote(ctx)
	if cause != nil {
		if !errors.Is(cause, errNoRemote) {
			l.logger.Warn("remote source unavailable, using local snapshot", zap.Error(cause))
		}
		out = l.fromFallback(ctx, cause)
	}

	out.generation = gen
	l.mu.Lock()
	superseded := errors.Is(ctx.Err(), context.Canceled) || gen != l.generation.Load()
	if superseded {
		l.logger.Debug("discarding superseded load cycle", zap.Uint64("generation", gen))
		l.metrics.ObserveLoad("discarded", time.Since(start), 0, false)
		// A newer cycle is running; it always publishes, or is itself
		// superseded by one that does.
		for cur := l.current.Load(); cur == nil || cur.generation <= gen; cur = l.current.Load() {
			l.published.Wait()
		}
		out = *l.current.Load()
		l.mu.Unlock()
		return out
	}
	l.publish(out)
	l.published.Broadcast()
	l.mu.Unlock()

	l.metrics.ObserveLoad(out.Status.String(), time.Since(start), out.Snapshot.Len(), out.Healthy())
	l.logger.Info("load cycle complete",
		zap.Stringer("status", out.Status),
		zap.Int("records", out.Snapshot.Len()),
		zap.Uint64("version", out.Snapshot.Version()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}

// publish must be called with l.mu held.
func (l *Loader) publish(out Outcome) {
	l.store.Publish(out.Snapshot)
	l.healthy.Store(out.Healthy())
	l.current.Store(&out)
}

// fromRemote returns a non-nil cause when the cycle must fall back.
func (l *Loader) fromRemote(ctx context.Context) (Outcome, error) {
	if l.remote == nil {
		return Outcome{}, errNoRemote
	}
	if err := l.remote.Health(ctx); err != nil {
		return Outcome{}, fmt.Errorf("health check: %w", err)
	}

	var (
		records   []types.Record
		countries []string
		areas     []string
		report    *types.AggregateReport
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := l.remote.ListRecords(gctx, types.QuerySpec{})
		if err != nil {
			return fmt.Errorf("fetching records: %w", err)
		}
		records = r
		return nil
	})
	g.Go(func() error {
		c, err := l.remote.Countries(gctx)
		if err != nil {
			l.logger.Debug("remote country list unavailable, deriving locally", zap.Error(err))
			return nil
		}
		countries = c
		return nil
	})
	g.Go(func() error {
		a, err := l.remote.ExpertiseAreas(gctx)
		if err != nil {
			l.logger.Debug("remote expertise list unavailable, deriving locally", zap.Error(err))
			return nil
		}
		areas = a
		return nil
	})
	g.Go(func() error {
		rep, err := l.remote.Stats(gctx)
		if err != nil {
			l.logger.Debug("remote statistics unavailable, computing locally", zap.Error(err))
			return nil
		}
		report = &rep
		return nil
	})
	if err := g.Wait(); err != nil {
		return Outcome{}, err
	}

	snap, err := l.snapshot(records)
	if err != nil {
		return Outcome{}, fmt.Errorf("remote records: %w", err)
	}

	out := l.derive(snap, StatusOK)
	if report != nil {
		out.Report = *report
		if n := l.engine.TopCountries; len(out.Report.TopCountries) > n {
			out.Report.TopCountries = out.Report.TopCountries[:n]
		}
	}
	if countries != nil {
		out.Countries = countries
	}
	if areas != nil {
		out.ExpertiseAreas = areas
	}
	return out, nil
}

func (l *Loader) fromFallback(ctx context.Context, cause error) Outcome {
	records, err := l.fallback.Records(ctx)
	if err == nil {
		var snap *store.Snapshot
		if snap, err = l.snapshot(records); err == nil {
			out := l.derive(snap, StatusFallback)
			out.Cause = cause
			return out
		}
	}

	l.logger.Error("local snapshot unusable", zap.Error(err))
	out := l.derive(store.Empty(), StatusFatal)
	out.Cause = cause
	out.Err = fmt.Errorf("loading local snapshot: %w", err)
	return out
}

func (l *Loader) snapshot(records []types.Record) (*store.Snapshot, error) {
	snap, err := store.NewSnapshot(records, l.version.Add(1))
	if err != nil {
		return nil, err
	}
	if ids := snap.Anomalies(); len(ids) > 0 {
		l.logger.Warn("records with h-index above publication count", zap.Strings("ids", ids))
	}
	return snap, nil
}

// derive computes the report and lookup lists locally.
func (l *Loader) derive(snap *store.Snapshot, status Status) Outcome {
	return Outcome{
		Status:         status,
		Snapshot:       snap,
		Report:         stats.Summarize(snap, l.statsOptions()),
		Countries:      stats.Countries(snap),
		ExpertiseAreas: stats.ExpertiseAreas(snap),
	}
}

func (l *Loader) statsOptions() stats.Options {
	return stats.Options{TopCountries: l.engine.TopCountries}
}
