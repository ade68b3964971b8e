// Package monitor drives the poll cycle: check every catalog product against
// the stock API, run the results through dedup, and hand new availability to
// the notifier.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"restockbot/internal/catalog"
	"restockbot/internal/notify"
	"restockbot/internal/stock"
	"restockbot/pkg/logx"
)

// Checker is the stock API surface the monitor needs.
type Checker interface {
	Check(ctx context.Context, sku, zip string) (*stock.Availability, error)
}

// Alerter receives formatted alert messages for the fixed channel.
type Alerter interface {
	Alert(text string)
}

// Recorder logs sent alerts for the history command. Implementations must not
// block alerting on failure.
type Recorder interface {
	Record(ctx context.Context, p catalog.Product, av *stock.Availability)
}

// ProductStatus is one product's outcome within a cycle.
type ProductStatus struct {
	Product      catalog.Product
	Availability *stock.Availability
	Err          error
	Alerted      bool
}

type Monitor struct {
	log     logx.Logger
	store   *catalog.Store
	checker Checker
	alerter Alerter
	rec     Recorder

	dedup *dedupState

	// cycleMu serializes poll cycles between the cron trigger and
	// command-invoked synchronous checks.
	cycleMu sync.Mutex

	cron *cron.Cron
}

func New(store *catalog.Store, checker Checker, alerter Alerter, rec Recorder, log logx.Logger) *Monitor {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Monitor{
		log:     log,
		store:   store,
		checker: checker,
		alerter: alerter,
		rec:     rec,
		dedup:   newDedupState(),
	}
}

// Start registers the periodic poll trigger and runs one immediate cycle so a
// fresh start reports state without waiting a full interval.
func (m *Monitor) Start(ctx context.Context, sched ParsedSchedule) error {
	job := func() {
		// Skip if a cycle is already in flight (a command may be mid-check).
		if !m.cycleMu.TryLock() {
			m.log.Debug("poll cycle already running; skipping tick")
			return
		}
		defer m.cycleMu.Unlock()
		m.runCycleLocked(ctx)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	m.cron = cron.New(cron.WithParser(parser))

	var err error
	if sched.Cron != "" {
		_, err = m.cron.AddFunc(sched.Cron, job)
	} else {
		_, err = m.cron.AddFunc("@every "+sched.Every.String(), job)
	}
	if err != nil {
		return err
	}
	m.cron.Start()

	go job()
	return nil
}

// Stop halts the periodic trigger and waits for an in-flight cycle.
func (m *Monitor) Stop() {
	if m.cron != nil {
		<-m.cron.Stop().Done()
	}
	// barrier: wait for an in-flight cycle to release the lock
	m.cycleMu.Lock()
	m.cycleMu.Unlock() //nolint:staticcheck
}

// RunCycle checks all configured products once. Safe to call concurrently
// with the periodic trigger; callers are serialized.
func (m *Monitor) RunCycle(ctx context.Context) []ProductStatus {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()
	return m.runCycleLocked(ctx)
}

func (m *Monitor) runCycleLocked(ctx context.Context) []ProductStatus {
	products := m.store.Snapshot()
	start := time.Now()
	results := make([]ProductStatus, 0, len(products))

	var alerts, failures int
	for _, p := range products {
		if ctx.Err() != nil {
			break
		}
		st := m.checkAndObserve(ctx, p)
		if st.Err != nil {
			failures++
		}
		if st.Alerted {
			alerts++
		}
		results = append(results, st)
	}

	m.log.Info("poll cycle complete",
		logx.Int("products", len(products)),
		logx.Int("failures", failures),
		logx.Int("alerts", alerts),
		logx.Duration("took", time.Since(start)),
	)
	return results
}

// CheckProducts runs a synchronous check over a subset, feeding the same
// dedup state as the periodic cycle. Used by the status command.
func (m *Monitor) CheckProducts(ctx context.Context, products []catalog.Product) []ProductStatus {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	results := make([]ProductStatus, 0, len(products))
	for _, p := range products {
		if ctx.Err() != nil {
			break
		}
		results = append(results, m.checkAndObserve(ctx, p))
	}
	return results
}

// CheckRaw checks an arbitrary (sku, zip) pair without touching dedup state.
// Used by the debug command, which may probe products outside the catalog.
func (m *Monitor) CheckRaw(ctx context.Context, sku, zip string) (*stock.Availability, error) {
	return m.checker.Check(ctx, sku, zip)
}

// checkAndObserve is the per-product unit of work: one API call, one dedup
// observation, at most one alert. An API failure for one product never
// affects the others.
func (m *Monitor) checkAndObserve(ctx context.Context, p catalog.Product) ProductStatus {
	st := ProductStatus{Product: p}

	av, err := m.checker.Check(ctx, p.SKU, p.ZipCode)
	if err != nil {
		m.log.Warn("stock check failed; skipping product", logx.String("sku", p.SKU), logx.String("zip", p.ZipCode), logx.Err(err))
		st.Err = err
		return st
	}
	st.Availability = av

	m.log.Debug("stock checked",
		logx.String("sku", p.SKU),
		logx.Bool("in_stock", av.InStock),
		logx.Int("stores", len(av.Stores)),
		logx.Int("total_stores", av.TotalStores),
	)

	if m.dedup.Observe(p.Key(), av.InStock) {
		st.Alerted = true
		m.alerter.Alert(notify.FormatAlert(p, av))
		if m.rec != nil {
			m.rec.Record(ctx, p, av)
		}
		m.log.Info("restock alert sent",
			logx.String("name", p.DisplayName()),
			logx.String("sku", p.SKU),
			logx.Int("stores", len(av.Stores)),
		)
	}
	return st
}

// Forget clears dedup state for a removed product.
func (m *Monitor) Forget(sku, zip string) {
	m.dedup.Forget(catalog.Key(sku, zip))
}
