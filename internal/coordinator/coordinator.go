// Package coordinator drives the Standard swap's five-phase state
// machine (spec.md §4.3): lock the source HTLC, wait for confirmation,
// release the destination HTLC with the same hashlock, wait for that
// confirmation, and complete. Every phase transition appends an audited
// domain.Step, matching the teacher's general pattern of an in-memory,
// append-only log of what the system did and why
// (internal/services/audit/logger.go) generalized from a flat event log
// into a per-swap execution record.
package coordinator

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/cryptoutil"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/errs"
	"github.com/swapcore/swapcore/internal/registry"
	"github.com/swapcore/swapcore/internal/swapaudit"
	"github.com/swapcore/swapcore/internal/watchdog"
)

// userTimelockOffset and solverTimelockOffset are the fixed §4.3 step 2
// offsets the Standard coordinator always uses: the user's source-chain
// lock always expires one hour out, the solver's destination-chain lock
// always expires thirty minutes out. Unlike the Privacy-Hub coordinator
// (internal/privacyhub), the Standard flow never samples these — there is
// nothing to decorrelate, since both HTLCs already share one hashlock and
// are trivially linkable by that alone.
const (
	userTimelockOffset   = time.Hour
	solverTimelockOffset = 30 * time.Minute
	timelockBuffer       = 5 * time.Minute
)

// Coordinator executes Standard-privacy-level SwapIntents.
type Coordinator struct {
	registry *registry.Registry
	watchdog *watchdog.Watchdog
	retry    errs.RetryPolicy
	log      *zap.Logger
	audit    *swapaudit.Logger
}

func New(reg *registry.Registry, wd *watchdog.Watchdog, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{registry: reg, watchdog: wd, retry: errs.DefaultRetryPolicy(), log: logger}
}

// WithAudit attaches a durable, append-only step log. Optional: a
// Coordinator with no audit logger still runs, it just loses the
// on-disk trail alongside its zap logging.
func (c *Coordinator) WithAudit(a *swapaudit.Logger) *Coordinator {
	c.audit = a
	return c
}

// appendStep records a step on the in-memory execution record and, if
// an audit logger is attached, persists it durably too.
func (c *Coordinator) appendStep(exec *domain.StandardExecution, step domain.Step) {
	exec.AppendStep(step)
	if c.audit != nil {
		if err := c.audit.Record(exec.SwapID, step); err != nil {
			c.log.Warn("failed to persist audit step", zap.String("swap_id", exec.SwapID), zap.Error(err))
		}
	}
}

// Execute runs the full Standard swap to completion or failure,
// returning the final execution record either way — callers inspect
// Phase to distinguish StandardCompleted from StandardFailed/StandardRefunding.
func (c *Coordinator) Execute(ctx context.Context, intent *domain.SwapIntent, solver *domain.Solver) (*domain.StandardExecution, error) {
	now := time.Now()
	if err := intent.Validate(now); err != nil {
		return nil, errs.SwapInvalidIntent(err.Error())
	}

	exec := &domain.StandardExecution{
		SwapID:    intent.ID,
		Intent:    intent,
		Solver:    solver,
		Phase:     domain.StandardInitializing,
		StartedAt: now,
	}

	secret, err := cryptoutil.RandomSecret32()
	if err != nil {
		return c.fail(exec, fmt.Errorf("generating swap secret: %w", err)), err
	}
	domainSecret := domain.Secret(secret)
	hashlock := domainSecret.Hashlock()

	sourceExpiry := now.Add(userTimelockOffset)
	destExpiry := now.Add(solverTimelockOffset)

	sourceAdapter, err := c.registry.Lookup(intent.SourceChain)
	if err != nil {
		return c.fail(exec, err), err
	}
	destAdapter, err := c.registry.Lookup(intent.DestChain)
	if err != nil {
		return c.fail(exec, err), err
	}

	// Phase: locking_source
	exec.Phase = domain.StandardLockingSource
	sourceParams := domain.HTLCParams{
		Sender: intent.UserAddresses[intent.SourceChain], Receiver: solver.Addresses[intent.SourceChain],
		Amount: intent.SourceAmount, Hashlock: hashlock, Expiry: sourceExpiry.Unix(), Asset: &intent.SourceAsset,
	}
	sourceTx, err := sourceAdapter.CreateHTLC(ctx, sourceParams)
	if err != nil {
		c.appendStep(exec, domain.Step{Name: "create_source_htlc", Chain: intent.SourceChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.SourceTxID = sourceTx.ID
	c.appendStep(exec, domain.Step{Name: "create_source_htlc", Chain: intent.SourceChain, Status: domain.StepSucceeded, TxHash: sourceTx.ID, Timestamp: time.Now()})

	// Phase: confirming_lock
	exec.Phase = domain.StandardConfirmingLock
	minConfs := sourceAdapter.Capabilities().MinConfirmations
	if err := c.retry.Do(ctx, func(int) error { return sourceAdapter.WaitForConfirmation(ctx, sourceTx.ID, minConfs) }); err != nil {
		c.appendStep(exec, domain.Step{Name: "confirm_source_lock", Chain: intent.SourceChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		c.scheduleRefund(exec, sourceParams, intent.SourceChain)
		return c.fail(exec, err), err
	}
	c.appendStep(exec, domain.Step{Name: "confirm_source_lock", Chain: intent.SourceChain, Status: domain.StepSucceeded, TxHash: sourceTx.ID, Timestamp: time.Now()})

	// Phase: releasing_dest — the solver locks the destination leg under
	// the same hashlock; the coordinator builds that transaction on the
	// solver's behalf but never signs it (the embedding application's
	// Signer for the solver's address does).
	exec.Phase = domain.StandardReleasingDest
	destParams := domain.HTLCParams{
		Sender: solver.Addresses[intent.DestChain], Receiver: intent.UserAddresses[intent.DestChain],
		Amount: intent.MinDestAmount, Hashlock: hashlock, Expiry: destExpiry.Unix(), Asset: &intent.DestAsset,
	}
	destTx, err := destAdapter.CreateHTLC(ctx, destParams)
	if err != nil {
		c.appendStep(exec, domain.Step{Name: "create_dest_htlc", Chain: intent.DestChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		c.scheduleRefund(exec, sourceParams, intent.SourceChain)
		return c.fail(exec, err), err
	}
	exec.DestTxID = destTx.ID
	c.appendStep(exec, domain.Step{Name: "create_dest_htlc", Chain: intent.DestChain, Status: domain.StepSucceeded, TxHash: destTx.ID, Timestamp: time.Now()})

	// Phase: confirming_release
	exec.Phase = domain.StandardConfirmingRelease
	if err := c.retry.Do(ctx, func(int) error {
		return destAdapter.WaitForConfirmation(ctx, destTx.ID, destAdapter.Capabilities().MinConfirmations)
	}); err != nil {
		c.appendStep(exec, domain.Step{Name: "confirm_dest_lock", Chain: intent.DestChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		c.scheduleRefund(exec, sourceParams, intent.SourceChain)
		return c.fail(exec, err), err
	}
	c.appendStep(exec, domain.Step{Name: "confirm_dest_lock", Chain: intent.DestChain, Status: domain.StepSucceeded, TxHash: destTx.ID, Timestamp: time.Now()})

	// Before trusting the confirmed destination HTLC enough to claim it,
	// validate its on-chain parameters against what was requested — the
	// solver broadcasts this transaction itself, and a malicious or buggy
	// solver could have altered the hashlock, amount, receiver, or
	// timelock before signing (spec.md §4.3 step 4: validation of the
	// destination HTLC's parameters is a required gate).
	if err := c.validateDestHTLC(ctx, destAdapter, destTx.ID, destParams, sourceExpiry.Unix(), timelockBuffer); err != nil {
		c.appendStep(exec, domain.Step{Name: "validate_dest_htlc", Chain: intent.DestChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		c.scheduleRefund(exec, sourceParams, intent.SourceChain)
		return c.fail(exec, err), err
	}
	c.appendStep(exec, domain.Step{Name: "validate_dest_htlc", Chain: intent.DestChain, Status: domain.StepSucceeded, Timestamp: time.Now()})

	// Phase: completing — the user claims the destination HTLC with the
	// secret, which publishes the preimage on-chain; the coordinator then
	// uses that same preimage to claim the source HTLC on the solver's
	// behalf, closing the loop.
	exec.Phase = domain.StandardCompleting
	claimTx, err := destAdapter.ClaimHTLC(ctx, destTx.ID, domainSecret)
	if err != nil {
		c.appendStep(exec, domain.Step{Name: "claim_dest_htlc", Chain: intent.DestChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		c.scheduleRefund(exec, sourceParams, intent.SourceChain)
		return c.fail(exec, err), err
	}
	c.appendStep(exec, domain.Step{Name: "claim_dest_htlc", Chain: intent.DestChain, Status: domain.StepSucceeded, TxHash: claimTx.ID, Timestamp: time.Now()})

	sourceClaimTx, err := sourceAdapter.ClaimHTLC(ctx, sourceTx.ID, domainSecret)
	if err != nil {
		c.appendStep(exec, domain.Step{Name: "claim_source_htlc", Chain: intent.SourceChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	c.appendStep(exec, domain.Step{Name: "claim_source_htlc", Chain: intent.SourceChain, Status: domain.StepSucceeded, TxHash: sourceClaimTx.ID, Timestamp: time.Now()})

	exec.Phase = domain.StandardCompleted
	exec.CompletedAt = time.Now()
	exec.ActualOutput = &struct {
		Amount string
		Asset  domain.Asset
	}{Amount: intent.MinDestAmount.String(), Asset: intent.DestAsset}

	c.log.Info("standard swap completed", zap.String("swap_id", intent.ID))
	return exec, nil
}

// validateDestHTLC re-reads the confirmed destination HTLC's on-chain
// parameters and checks them against what the coordinator actually
// asked the solver to lock: the hashlock and amount must match exactly,
// the receiver must be the user's own destination address, and the
// timelock must expire strictly before the user's own source-chain
// timelock, with at least buffer seconds to spare (spec.md §4.3 step 4).
func (c *Coordinator) validateDestHTLC(ctx context.Context, destAdapter chainadapter.Adapter, destTxID string, want domain.HTLCParams, userTimelock int64, buffer time.Duration) error {
	status, err := destAdapter.HTLCStatus(ctx, destTxID)
	if err != nil {
		return fmt.Errorf("validating destination htlc: %w", err)
	}
	if status.HashlockHex != want.Hashlock.Hex() {
		return errs.HTLCParamsMismatch(destTxID, "confirmed hashlock does not match the one requested")
	}
	if status.Amount != want.Amount.String() {
		return errs.HTLCParamsMismatch(destTxID, "confirmed amount does not match the one requested")
	}
	if status.Receiver != want.Receiver {
		return errs.HTLCParamsMismatch(destTxID, "confirmed receiver does not match the one requested")
	}
	if status.Expiry >= userTimelock-int64(buffer.Seconds()) {
		return errs.HTLCParamsMismatch(destTxID, "confirmed timelock leaves too little margin before the user's own expiry")
	}
	return nil
}

// scheduleRefund hands the source HTLC to the watchdog rather than
// refunding inline: the timelock has not necessarily expired yet, and
// the watchdog is the single place spec.md §4.7 assigns refund retries
// and persistence to.
func (c *Coordinator) scheduleRefund(exec *domain.StandardExecution, params domain.HTLCParams, chain domain.Chain) {
	if c.watchdog == nil {
		return
	}
	c.watchdog.Track(domain.PendingRefundRecord{
		SwapID: exec.SwapID, HTLCID: exec.SourceTxID, Chain: chain,
		Timelock: params.Expiry, Amount: params.Amount.String(), RefundAddress: params.Sender,
		Status: domain.RefundPending,
	})
	exec.Phase = domain.StandardRefunding
}

func (c *Coordinator) fail(exec *domain.StandardExecution, err error) *domain.StandardExecution {
	if exec.Phase != domain.StandardRefunding {
		exec.Phase = domain.StandardFailed
	}
	exec.FailureCause = err.Error()
	exec.CompletedAt = time.Now()
	c.log.Warn("standard swap failed", zap.String("swap_id", exec.SwapID), zap.Error(err))
	return exec
}
