// Package watchdog supervises pending HTLC refunds independently of any
// in-flight coordinator (spec.md §4.7): once a swap's source HTLC might
// need refunding — the destination leg failed, or a claim never arrived
// before timelock expiry — the coordinator hands the record off here and
// moves on. The watchdog periodically scans, and separately supports an
// immediate one-shot check, matching the teacher's combination of a
// ticker-driven background loop with an on-demand override (cf.
// src/chainadapter/bitcoin/adapter.go SubscribeStatus's own poll loop).
package watchdog

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/errs"
	"github.com/swapcore/swapcore/internal/registry"
)

// Store persists PendingRefundRecords across process restarts. The
// teacher's equivalent is storage.TransactionStateStore
// (src/chainadapter/storage/store.go); this one is scoped to refund
// records and moves them as a whole snapshot through Export/Import,
// with no per-record get/set/delete.
type Store interface {
	Export(ctx context.Context) ([]domain.PendingRefundRecord, error)
	Import(ctx context.Context, records []domain.PendingRefundRecord) error
}

// MemoryStore is an in-process Store, sufficient for tests and for
// embedders that persist records themselves by calling Export on a
// schedule.
type MemoryStore struct {
	mu      sync.Mutex
	records []domain.PendingRefundRecord
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

func (m *MemoryStore) Export(ctx context.Context) ([]domain.PendingRefundRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.PendingRefundRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *MemoryStore) Import(ctx context.Context, records []domain.PendingRefundRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append([]domain.PendingRefundRecord{}, records...)
	return nil
}

// RefundResult is the terminal outcome of a single tracked refund,
// appended to the watchdog's history and handed to the observer
// callback (spec.md §4.7 step 5).
type RefundResult struct {
	SwapID     string
	HTLCID     string
	Chain      domain.Chain
	Status     domain.RefundStatus
	Attempts   int
	ResolvedAt time.Time
	Cause      string
}

// RefundObserver is notified once per terminal outcome — completed or
// permanently failed. Embedders use it to drive their own alerting
// instead of polling Stats.
type RefundObserver func(RefundResult)

// Stats summarizes the watchdog's current workload, for an embedder's
// dashboard or health check (spec.md §4.7).
type Stats struct {
	Pending       int
	Processing    int
	Completed     int
	Failed        int
	TotalAttempts int
	SuccessRate   float64 // Completed / (Completed + Failed); 0 if neither has happened yet
}

// Watchdog runs the periodic refund scan.
type Watchdog struct {
	mu             sync.Mutex
	registry       *registry.Registry
	store          Store
	pending        map[string]*domain.PendingRefundRecord // keyed by HTLCID
	history        []RefundResult
	scanInterval   time.Duration
	maxConcurrent  int
	maxAttempts    int
	refundBuffer   time.Duration
	confirmTimeout time.Duration
	retry          errs.RetryPolicy
	signerResolver SignerResolver
	observer       RefundObserver
	log            *zap.Logger
}

func New(reg *registry.Registry, store Store, scanInterval time.Duration, maxConcurrent, maxAttempts int, logger *zap.Logger) *Watchdog {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		store = NewMemoryStore()
	}
	return &Watchdog{
		registry: reg, store: store, pending: make(map[string]*domain.PendingRefundRecord),
		scanInterval: scanInterval, maxConcurrent: maxConcurrent, maxAttempts: maxAttempts,
		refundBuffer: 5 * time.Minute, confirmTimeout: 2 * time.Minute,
		retry: errs.DefaultRetryPolicy(), log: logger,
	}
}

// WithRefundBuffer overrides the grace period scanOnce waits past a
// timelock's raw expiry before treating a refund as due (config.go's
// WatchdogConfig.RefundBuffer, 5 minutes by default).
func (w *Watchdog) WithRefundBuffer(d time.Duration) *Watchdog {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.refundBuffer = d
	return w
}

// WithConfirmTimeout overrides how long broadcastAndWait waits for a
// refund transaction's confirmation before giving up and retrying
// (config.go's WatchdogConfig.ConfirmTimeout, 2 minutes by default).
func (w *Watchdog) WithConfirmTimeout(d time.Duration) *Watchdog {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.confirmTimeout = d
	return w
}

// WithObserver installs a callback invoked once per terminal outcome.
func (w *Watchdog) WithObserver(obs RefundObserver) *Watchdog {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.observer = obs
	return w
}

// Track registers a record for the watchdog to manage, keyed by its
// HTLC identifier. Re-registering an HTLC id that is already tracked is
// a no-op — the watchdog never resets an in-flight record's attempt
// count or status just because the coordinator called Track twice.
func (w *Watchdog) Track(r domain.PendingRefundRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.pending[r.HTLCID]; exists {
		return
	}
	rc := r
	w.pending[r.HTLCID] = &rc
}

// Unregister drops a tracked HTLC without running a refund attempt, for
// a coordinator that learns by some other means the HTLC no longer
// needs watching (e.g. the user claimed it through a channel the
// watchdog doesn't observe).
func (w *Watchdog) Unregister(htlcID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.pending, htlcID)
}

// Run starts the periodic scan loop; it blocks until ctx is done.
func (w *Watchdog) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			w.scanOnce(ctx)
		}
	}
}

// CheckNow forces an immediate scan, for callers that don't want to wait
// for the next tick (e.g. a coordinator that just learned its claim leg
// will never land).
func (w *Watchdog) CheckNow(ctx context.Context) {
	w.scanOnce(ctx)
}

func (w *Watchdog) scanOnce(ctx context.Context) {
	now := time.Now()
	w.mu.Lock()
	due := make([]*domain.PendingRefundRecord, 0, len(w.pending))
	buffer := int64(w.refundBuffer.Seconds())
	for _, r := range w.pending {
		if r.Status == domain.RefundPending && now.Unix() >= r.Timelock+buffer {
			due = append(due, r)
		}
	}
	w.mu.Unlock()

	sem := make(chan struct{}, w.maxConcurrent)
	var wg sync.WaitGroup
	for _, r := range due {
		r := r
		sem <- struct{}{}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			w.attemptRefund(ctx, r)
		}()
	}
	wg.Wait()
}

// ForceRefund processes a single record immediately regardless of
// whether its timelock has expired — spec.md §4.7's "forced refund"
// escape hatch for an embedder that independently learns a swap must be
// abandoned. Looked up by SwapID since an embedder tracking many legs of
// the same swap thinks in swap, not HTLC, identifiers.
func (w *Watchdog) ForceRefund(ctx context.Context, swapID string) error {
	w.mu.Lock()
	var r *domain.PendingRefundRecord
	for _, rec := range w.pending {
		if rec.SwapID == swapID {
			r = rec
			break
		}
	}
	w.mu.Unlock()
	if r == nil {
		return fmt.Errorf("watchdog: no pending refund tracked for swap %s", swapID)
	}
	w.attemptRefund(ctx, r)
	return nil
}

// attemptRefund is the per-attempt algorithm spec.md §4.7 names: mark
// Processing, query status, build/sign/broadcast the refund, wait for
// confirmation, then mark Completed or retry, failing permanently after
// MaxAttempts.
func (w *Watchdog) attemptRefund(ctx context.Context, r *domain.PendingRefundRecord) {
	w.mu.Lock()
	r.Status = domain.RefundProcessing
	r.AttemptCount++
	r.LastAttempt = time.Now()
	attempt := r.AttemptCount
	w.mu.Unlock()

	adapter, err := w.registry.Lookup(r.Chain)
	if err != nil {
		w.markFailedOrRetry(r, attempt, err)
		return
	}

	status, err := adapter.HTLCStatus(ctx, r.HTLCID)
	if err == nil && (status.State == domain.HTLCClaimed || status.State == domain.HTLCRefunded) {
		w.markDone(r, attempt, status.State)
		return
	}

	err = w.retry.Do(ctx, func(int) error {
		unsigned, err := adapter.RefundHTLC(ctx, r.HTLCID)
		if err != nil {
			return err
		}
		return w.broadcastAndWait(ctx, adapter, unsigned, r)
	})
	if err != nil {
		w.markFailedOrRetry(r, attempt, err)
		return
	}
	w.markDone(r, attempt, domain.HTLCRefunded)
}

// broadcastAndWait is factored out only because the watchdog needs a
// Signer bound to the refund address — resolveSigner is the embedding
// application's KeyHandle -> Signer lookup, injected via WithSigner. The
// confirmation wait is bounded by confirmTimeout so a stalled chain
// can't pin a retry slot forever.
func (w *Watchdog) broadcastAndWait(ctx context.Context, adapter chainadapter.Adapter, unsigned *chainadapter.UnsignedTransaction, r *domain.PendingRefundRecord) error {
	signer, err := w.resolveSigner(r.KeyHandle)
	if err != nil {
		return errs.HTLCRefundFailed("resolving signer for refund", err)
	}
	signed, err := adapter.SignTransaction(ctx, unsigned, signer)
	if err != nil {
		return err
	}
	txHash, err := adapter.Broadcast(ctx, signed)
	if err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, w.confirmTimeout)
	defer cancel()
	return adapter.WaitForConfirmation(waitCtx, txHash, adapter.Capabilities().MinConfirmations)
}

// SignerResolver maps a PendingRefundRecord's opaque KeyHandle to a
// chainadapter.Signer. Embedders supply one via WithSigner; this package
// never holds key material itself.
type SignerResolver func(keyHandle string) (chainadapter.Signer, error)

func (w *Watchdog) resolveSigner(keyHandle string) (chainadapter.Signer, error) {
	if w.signerResolver == nil {
		return nil, fmt.Errorf("watchdog: no signer resolver configured")
	}
	return w.signerResolver(keyHandle)
}

// WithSigner installs the embedder's KeyHandle -> Signer resolver.
func (w *Watchdog) WithSigner(resolver SignerResolver) *Watchdog {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.signerResolver = resolver
	return w
}

// markDone records a resolved refund (claimed by the user or refunded by
// the watchdog itself) and removes it from pending — once resolved,
// there's nothing left for a future scan to do with it.
func (w *Watchdog) markDone(r *domain.PendingRefundRecord, attempt int, state domain.HTLCState) {
	w.mu.Lock()
	defer w.mu.Unlock()
	r.Status = domain.RefundCompleted
	w.log.Info("refund resolved", zap.String("swap_id", r.SwapID), zap.String("htlc_id", r.HTLCID), zap.String("state", string(state)))
	w.recordResult(r, attempt, nil)
	delete(w.pending, r.HTLCID)
}

func (w *Watchdog) markFailedOrRetry(r *domain.PendingRefundRecord, attempt int, cause error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if attempt >= w.maxAttempts {
		r.Status = domain.RefundFailed
		w.log.Error("refund permanently failed", zap.String("swap_id", r.SwapID), zap.String("htlc_id", r.HTLCID), zap.Int("attempts", attempt), zap.Error(cause))
		w.recordResult(r, attempt, cause)
		return
	}
	r.Status = domain.RefundPending
	w.log.Warn("refund attempt failed, will retry", zap.String("swap_id", r.SwapID), zap.String("htlc_id", r.HTLCID), zap.Int("attempt", attempt), zap.Error(cause))
}

// recordResult appends to history and fires the observer, if any.
// Callers must hold w.mu.
func (w *Watchdog) recordResult(r *domain.PendingRefundRecord, attempt int, cause error) {
	res := RefundResult{
		SwapID: r.SwapID, HTLCID: r.HTLCID, Chain: r.Chain,
		Status: r.Status, Attempts: attempt, ResolvedAt: time.Now(),
	}
	if cause != nil {
		res.Cause = cause.Error()
	}
	w.history = append(w.history, res)
	if w.observer != nil {
		w.observer(res)
	}
}

// Stats reports the watchdog's current workload. Completed and Failed
// come from history rather than the pending set, since a completed
// record is removed from pending the moment it resolves.
func (w *Watchdog) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	var s Stats
	for _, r := range w.pending {
		switch r.Status {
		case domain.RefundPending:
			s.Pending++
		case domain.RefundProcessing:
			s.Processing++
		}
		s.TotalAttempts += r.AttemptCount
	}
	for _, res := range w.history {
		s.TotalAttempts += res.Attempts
		switch res.Status {
		case domain.RefundCompleted:
			s.Completed++
		case domain.RefundFailed:
			s.Failed++
		}
	}
	if total := s.Completed + s.Failed; total > 0 {
		s.SuccessRate = float64(s.Completed) / float64(total)
	}
	return s
}

// History returns a copy of every terminal outcome recorded so far.
func (w *Watchdog) History() []RefundResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]RefundResult, len(w.history))
	copy(out, w.history)
	return out
}

// Export persists the current set of tracked records, for an embedder
// to checkpoint across restarts.
func (w *Watchdog) Export(ctx context.Context) error {
	w.mu.Lock()
	records := make([]domain.PendingRefundRecord, 0, len(w.pending))
	for _, r := range w.pending {
		records = append(records, *r)
	}
	w.mu.Unlock()
	return w.store.Import(ctx, records)
}

// Restore reloads tracked records from the store, for startup recovery.
func (w *Watchdog) Restore(ctx context.Context) error {
	records, err := w.store.Export(ctx)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range records {
		rc := records[i]
		w.pending[rc.HTLCID] = &rc
	}
	return nil
}
