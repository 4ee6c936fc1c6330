/*
scheduler.go - Automated reconciliation scheduler

PURPOSE:
  Periodically re-derives every balance the ledger keeps (inventory
  replay, gift card usage sums, order spend, account transaction sums) and
  records each run, so drift shows up without anyone asking for it.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on Start
  - Every discrepancy is logged at warn; the run is recorded through
    ledger.Service.RunReconciliation (source "scheduler")
  - Run outcomes feed the reconciliation metrics

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewReconciliationScheduler(svc, log, reconcileMetrics)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers_reports.go: manual reconciliation endpoints
  - ledger/reconcile.go: Reconciler
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/cardledger/ledger"
	"github.com/warp/cardledger/metrics"
)

// ReconciliationScheduler runs reconciliation on an interval.
type ReconciliationScheduler struct {
	Service       *ledger.Service
	Log           zerolog.Logger
	Metrics       *metrics.ReconcileMetrics
	CheckInterval time.Duration
	Enabled       bool

	ticker  *time.Ticker
	stop    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	lastRun time.Time
}

// NewReconciliationScheduler creates a new scheduler.
func NewReconciliationScheduler(svc *ledger.Service, log zerolog.Logger, m *metrics.ReconcileMetrics) *ReconciliationScheduler {
	return &ReconciliationScheduler{
		Service:       svc,
		Log:           log.With().Str("component", "reconciliation_scheduler").Logger(),
		Metrics:       m,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
	}
}

// Start begins the scheduler.
func (rs *ReconciliationScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Log.Info().Msg("scheduler disabled, not starting")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.CheckInterval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker, rs.stop)

	rs.Log.Info().Dur("interval", rs.CheckInterval).Msg("scheduler started")
}

// Stop stops the scheduler and waits for a run in progress.
func (rs *ReconciliationScheduler) Stop() {
	rs.mu.Lock()
	ticker, stop := rs.ticker, rs.stop
	rs.ticker, rs.stop = nil, nil
	rs.mu.Unlock()

	if ticker == nil {
		return
	}
	ticker.Stop()
	close(stop)
	rs.wg.Wait()
	rs.Log.Info().Msg("scheduler stopped")
}

func (rs *ReconciliationScheduler) run(ticker *time.Ticker, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-stop
		cancel()
	}()

	rs.RunOnce(ctx)

	for {
		select {
		case <-ticker.C:
			rs.RunOnce(ctx)
		case <-stop:
			return
		}
	}
}

// RunOnce reconciles now and records the run.
func (rs *ReconciliationScheduler) RunOnce(ctx context.Context) ledger.ReconciliationRun {
	run, err := rs.Service.RunReconciliation(ctx, "scheduler")
	checkedAt := run.Report.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = rs.Service.Now()
	}
	rs.Metrics.ObserveRun(run.Source, checkedAt, len(run.Report.Discrepancies), err != nil)

	rs.mu.Lock()
	rs.lastRun = checkedAt
	rs.mu.Unlock()

	if err != nil {
		rs.Log.Error().Err(err).Str("run_id", run.ID).Msg("reconciliation failed")
		return run
	}
	for _, d := range run.Report.Discrepancies {
		rs.Log.Warn().
			Str("run_id", run.ID).
			Str("entity", d.Entity).
			Int64("id", d.ID).
			Str("label", d.Label).
			Str("field", d.Field).
			Str("stored", d.Stored).
			Str("derived", d.Derived).
			Msg("balance discrepancy")
	}
	rs.Log.Info().
		Str("run_id", run.ID).
		Int("items", run.Report.Items).
		Int("gift_cards", run.Report.GiftCards).
		Int("orders", run.Report.Orders).
		Int("accounts", run.Report.Accounts).
		Int("discrepancies", len(run.Report.Discrepancies)).
		Msg("reconciliation completed")
	return run
}

// NextRunTime estimates when the next scheduled run happens.
func (rs *ReconciliationScheduler) NextRunTime() time.Time {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	if rs.lastRun.IsZero() {
		return time.Time{}
	}
	return rs.lastRun.Add(rs.CheckInterval)
}
