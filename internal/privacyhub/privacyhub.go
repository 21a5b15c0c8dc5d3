// Package privacyhub drives the Privacy-Hub swap's twelve-phase state
// machine (spec.md §4.4). Unlike the Standard coordinator, the two legs
// use independent secrets and hashlocks so no on-chain observer can link
// the source and destination HTLCs by their hashlock alone; a
// stellar-chain hub in the middle holds funds briefly between the
// source claim and the destination lock, splitting, mixing, and
// withdrawing before the destination leg ever locks, and a jointly
// sampled pair of timelocks further decorrelates the two legs' timing.
// Built in the Standard coordinator's shape
// (internal/coordinator/coordinator.go) — append-only audit log,
// phase-by-phase progression, watchdog handoff on failure — generalized
// to its longer phase list and two independent secrets.
package privacyhub

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/swapcore/swapcore/internal/chainadapter"
	"github.com/swapcore/swapcore/internal/cryptoutil"
	"github.com/swapcore/swapcore/internal/domain"
	"github.com/swapcore/swapcore/internal/errs"
	"github.com/swapcore/swapcore/internal/registry"
	"github.com/swapcore/swapcore/internal/stealthaddr"
	"github.com/swapcore/swapcore/internal/timelock"
	"github.com/swapcore/swapcore/internal/watchdog"
)

// HubChain is the chain that bridges the source and destination legs.
// Stellar is the module's default (domain.ChainStellar's
// SupportsShieldedOps capability flag; see the stellar adapter package
// doc), chosen because its claimable-balance primitive lets the hub
// receive and later disburse funds without a general-purpose contract
// call tying the two legs together in a single transaction.
var HubChain = domain.ChainStellar

// Coordinator executes Maximum-privacy-level SwapIntents through the hub.
type Coordinator struct {
	registry *registry.Registry
	timelock *timelock.Generator
	watchdog *watchdog.Watchdog
	retry    errs.RetryPolicy
	log      *zap.Logger
}

func New(reg *registry.Registry, tl *timelock.Generator, wd *watchdog.Watchdog, logger *zap.Logger) *Coordinator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{registry: reg, timelock: tl, watchdog: wd, retry: errs.DefaultRetryPolicy(), log: logger}
}

// Execute runs the full Privacy-Hub swap. Three witnesses must all be
// true for the execution record to report HubCompleted; if any is false,
// Execute returns the record in HubFailed with a
// PrivacyCorrelationDetected error (spec.md §4.4's completion-witness
// requirement). cfg controls how aggressively
// the hub leg splits, mixes, and pads its internal traffic (spec.md §6);
// pass DefaultHubConfig() absent a caller preference.
func (c *Coordinator) Execute(ctx context.Context, intent *domain.SwapIntent, solver *domain.Solver, recipient *stealthaddr.RecipientKeys, cfg HubConfig) (*domain.PrivacyHubExecution, error) {
	now := time.Now()
	if err := intent.Validate(now); err != nil {
		return nil, errs.SwapInvalidIntent(err.Error())
	}
	if err := cfg.Validate(); err != nil {
		return nil, errs.SwapInvalidIntent(err.Error())
	}

	exec := &domain.PrivacyHubExecution{
		SwapID: intent.ID, Intent: intent, Solver: solver,
		Phase: domain.HubInitializing, StartedAt: now,
	}
	defer exec.ZeroizeSecrets()

	sourceSecretRaw, err := cryptoutil.RandomSecret32()
	if err != nil {
		return c.fail(exec, err), err
	}
	destSecretRaw, err := cryptoutil.RandomSecret32()
	if err != nil {
		return c.fail(exec, err), err
	}
	exec.SourceSecret = domain.Secret(sourceSecretRaw)
	exec.DestSecret = domain.Secret(destSecretRaw)
	exec.SourceHash = exec.SourceSecret.Hashlock()
	exec.DestHash = exec.DestSecret.Hashlock()

	// Both legs' timelocks come from one joint sample: the destination
	// leg's offset is drawn first, then the source leg's fresh sample is
	// floored to destOffset+buffer if it would otherwise leave too little
	// room (spec.md §4.5 step 5). Sampling the two legs independently of
	// each other, as two separate calls each with its own fixed anchor,
	// reintroduces exactly the fingerprintable fixed-gap pattern this
	// generator exists to defeat.
	pair, err := c.timelock.Generate(now)
	if err != nil {
		return c.fail(exec, err), err
	}
	exec.SourceTimelock = pair.Source.Unix()
	exec.DestTimelock = pair.Dest.Unix()

	mixingDelay, err := c.timelock.MixingDelay()
	if err != nil {
		return c.fail(exec, err), err
	}
	exec.MixingDelay = mixingDelay

	sourceAdapter, err := c.registry.Lookup(intent.SourceChain)
	if err != nil {
		return c.fail(exec, err), err
	}
	destAdapter, err := c.registry.Lookup(intent.DestChain)
	if err != nil {
		return c.fail(exec, err), err
	}
	hubAdapter, err := c.registry.Lookup(HubChain)
	if err != nil {
		return c.fail(exec, err), err
	}
	if !hubAdapter.Capabilities().SupportsShieldedOps {
		return c.fail(exec, fmt.Errorf("hub chain %s does not support shielded ops", HubChain)), errs.PrivacyHubUnavailable(string(HubChain))
	}

	// Phase: generating_stealth_addresses
	exec.Phase = domain.HubGeneratingStealthAddresses
	sourceOneTime, err := stealthaddr.Derive(recipient)
	if err != nil {
		return c.fail(exec, err), errs.PrivacyStealthGenFailed("deriving source-leg stealth address", err)
	}
	destOneTime, err := stealthaddr.Derive(recipient)
	if err != nil {
		return c.fail(exec, err), errs.PrivacyStealthGenFailed("deriving dest-leg stealth address", err)
	}
	sourceAddr, err := sourceAdapter.DeriveAddress(sourceOneTime.OneTimePublicKey.SerializeCompressed())
	if err != nil {
		return c.fail(exec, err), err
	}
	destAddr, err := destAdapter.DeriveAddress(destOneTime.OneTimePublicKey.SerializeCompressed())
	if err != nil {
		return c.fail(exec, err), err
	}
	exec.SourceStealthAddress = sourceAddr
	exec.DestStealthAddress = destAddr
	exec.Witnesses.AddressesOneTime = true
	exec.AppendStep(domain.Step{Name: "generate_stealth_addresses", Status: domain.StepSucceeded, Timestamp: time.Now()})

	// Phase: locking_source
	exec.Phase = domain.HubLockingSource
	sourceParams := domain.HTLCParams{
		Sender: intent.UserAddresses[intent.SourceChain], Receiver: solver.Addresses[intent.SourceChain],
		Amount: intent.SourceAmount, Hashlock: exec.SourceHash, Expiry: exec.SourceTimelock, Asset: &intent.SourceAsset,
	}
	sourceTx, err := sourceAdapter.CreateHTLC(ctx, sourceParams)
	if err != nil {
		exec.AppendStep(domain.Step{Name: "lock_source", Chain: intent.SourceChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.SourceHTLCID = sourceTx.ID
	exec.AppendStep(domain.Step{Name: "lock_source", Chain: intent.SourceChain, Status: domain.StepSucceeded, TxHash: sourceTx.ID, Timestamp: time.Now()})

	// Phase: confirming_source_lock
	exec.Phase = domain.HubConfirmingSourceLock
	if err := c.retry.Do(ctx, func(int) error {
		return sourceAdapter.WaitForConfirmation(ctx, sourceTx.ID, sourceAdapter.Capabilities().MinConfirmations)
	}); err != nil {
		exec.AppendStep(domain.Step{Name: "confirm_source_lock", Chain: intent.SourceChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		c.scheduleRefund(exec, sourceParams, intent.SourceChain, exec.SourceHTLCID)
		return c.fail(exec, err), err
	}
	exec.AppendStep(domain.Step{Name: "confirm_source_lock", Chain: intent.SourceChain, Status: domain.StepSucceeded, Timestamp: time.Now()})

	// Phase: solver_claiming_source — the solver reveals SourceSecret to
	// claim, which is fine: SourceSecret never touches the destination
	// leg, so its exposure cannot correlate the two HTLCs.
	exec.Phase = domain.HubSolverClaimingSource
	solverClaimTx, err := sourceAdapter.ClaimHTLC(ctx, sourceTx.ID, exec.SourceSecret)
	if err != nil {
		exec.AppendStep(domain.Step{Name: "solver_claim_source", Chain: intent.SourceChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.AppendStep(domain.Step{Name: "solver_claim_source", Chain: intent.SourceChain, Status: domain.StepSucceeded, TxHash: solverClaimTx.ID, Timestamp: time.Now()})

	// Phase: hub_depositing — the solver forwards value to the hub chain
	// at one or more one-time stealth addresses, breaking the link
	// between the source claim and whatever eventually funds the
	// destination lock. When split-amounts is enabled, the deposit is
	// partitioned across the configured denomination ladder instead of
	// moving as one lump sum, so its size alone can't be correlated back
	// to intent.SourceAmount either.
	exec.Phase = domain.HubDepositing
	var depositTxIDs []string
	if cfg.UseSplitAmounts {
		parts, err := splitAmount(intent.SourceAmount, cfg.SplitDenominations)
		if err != nil {
			exec.AppendStep(domain.Step{Name: "hub_deposit", Chain: HubChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
			return c.fail(exec, err), err
		}
		for i, part := range parts {
			depositReq := chainadapter.TransactionRequest{From: solver.Addresses[HubChain], To: exec.SourceStealthAddress, Amount: part}
			depositTx, err := hubAdapter.BuildTransaction(ctx, depositReq)
			if err != nil {
				exec.AppendStep(domain.Step{Name: "hub_deposit", Chain: HubChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
				return c.fail(exec, err), err
			}
			depositTxIDs = append(depositTxIDs, depositTx.ID)
			exec.AppendStep(domain.Step{Name: fmt.Sprintf("hub_deposit_%d_of_%d", i+1, len(parts)), Chain: HubChain, Status: domain.StepSucceeded, TxHash: depositTx.ID, Timestamp: time.Now()})
		}
	} else {
		depositReq := chainadapter.TransactionRequest{From: solver.Addresses[HubChain], To: exec.SourceStealthAddress, Amount: intent.SourceAmount}
		depositTx, err := hubAdapter.BuildTransaction(ctx, depositReq)
		if err != nil {
			exec.AppendStep(domain.Step{Name: "hub_deposit", Chain: HubChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
			return c.fail(exec, err), err
		}
		depositTxIDs = append(depositTxIDs, depositTx.ID)
		exec.AppendStep(domain.Step{Name: "hub_deposit", Chain: HubChain, Status: domain.StepSucceeded, TxHash: depositTx.ID, Timestamp: time.Now()})
	}
	exec.DepositTxIDs = depositTxIDs

	// Phase: hub_mixing — 2-4 internal shielded-to-shielded transfers,
	// each separated by a random delay drawn from cfg's mixing-delay
	// band, each hopping to a freshly derived stealth address so no two
	// consecutive hops share an address (spec.md §4.4 phase 6). Optional
	// decoy transfers interleave unrelated hub traffic between real hops
	// so an observer watching the hub's outbound traffic alone can't
	// single out which transfers belong to this swap.
	exec.Phase = domain.HubMixing
	transferCount, err := randomTransferCount()
	if err != nil {
		return c.fail(exec, err), err
	}
	var mixTxIDs []string
	mixFromAddr := exec.SourceStealthAddress
	for i := 0; i < transferCount; i++ {
		delay, err := randomDelay(cfg.MinMixingDelay, cfg.MaxMixingDelay)
		if err != nil {
			return c.fail(exec, err), err
		}
		select {
		case <-ctx.Done():
			return c.fail(exec, ctx.Err()), ctx.Err()
		case <-time.After(delay):
		}

		nextHop, err := stealthaddr.Derive(recipient)
		if err != nil {
			return c.fail(exec, err), errs.PrivacyStealthGenFailed("deriving mixing-hop stealth address", err)
		}
		nextAddr, err := hubAdapter.DeriveAddress(nextHop.OneTimePublicKey.SerializeCompressed())
		if err != nil {
			return c.fail(exec, err), err
		}
		transferReq := chainadapter.TransactionRequest{From: mixFromAddr, To: nextAddr, Amount: intent.SourceAmount}
		transferTx, err := hubAdapter.BuildTransaction(ctx, transferReq)
		if err != nil {
			exec.AppendStep(domain.Step{Name: fmt.Sprintf("hub_mix_transfer_%d", i+1), Chain: HubChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
			return c.fail(exec, err), err
		}
		mixTxIDs = append(mixTxIDs, transferTx.ID)
		exec.AppendStep(domain.Step{Name: fmt.Sprintf("hub_mix_transfer_%d", i+1), Chain: HubChain, Status: domain.StepSucceeded, TxHash: transferTx.ID, Timestamp: time.Now()})
		mixFromAddr = nextAddr

		if cfg.UseDecoyTransactions {
			if err := c.emitDecoyTransfers(ctx, exec, hubAdapter, cfg, i); err != nil {
				return c.fail(exec, err), err
			}
		}
	}
	exec.MixTxIDs = mixTxIDs
	exec.Witnesses.TimingDecorrelated = len(mixTxIDs) >= 2

	// Phase: hub_withdrawing — withdraw the mixed value to one more
	// fresh, unlinked stealth address; neither the deposit address nor
	// any mixing-hop address is ever reused for the withdrawal (spec.md
	// §4.4 phase 7).
	exec.Phase = domain.HubWithdrawing
	withdrawOneTime, err := stealthaddr.Derive(recipient)
	if err != nil {
		return c.fail(exec, err), errs.PrivacyStealthGenFailed("deriving withdrawal stealth address", err)
	}
	withdrawAddr, err := hubAdapter.DeriveAddress(withdrawOneTime.OneTimePublicKey.SerializeCompressed())
	if err != nil {
		return c.fail(exec, err), err
	}
	withdrawReq := chainadapter.TransactionRequest{From: mixFromAddr, To: withdrawAddr, Amount: intent.SourceAmount}
	withdrawTx, err := hubAdapter.BuildTransaction(ctx, withdrawReq)
	if err != nil {
		exec.AppendStep(domain.Step{Name: "hub_withdraw", Chain: HubChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.WithdrawTxID = withdrawTx.ID
	exec.AppendStep(domain.Step{Name: "hub_withdraw", Chain: HubChain, Status: domain.StepSucceeded, TxHash: withdrawTx.ID, Timestamp: time.Now()})
	exec.Witnesses.CorrelationBroken = len(depositTxIDs) >= 1 && len(mixTxIDs) >= 2 && exec.WithdrawTxID != ""

	// Phase: waiting_random_delay
	exec.Phase = domain.HubWaitingRandomDelay
	select {
	case <-ctx.Done():
		return c.fail(exec, ctx.Err()), ctx.Err()
	case <-time.After(mixingDelay):
	}
	exec.AppendStep(domain.Step{Name: "mixing_delay_elapsed", Status: domain.StepSucceeded, Timestamp: time.Now()})

	// Phase: locking_destination — a fresh, unrelated hashlock.
	exec.Phase = domain.HubLockingDestination
	destParams := domain.HTLCParams{
		Sender: solver.Addresses[intent.DestChain], Receiver: exec.DestStealthAddress,
		Amount: intent.MinDestAmount, Hashlock: exec.DestHash, Expiry: exec.DestTimelock, Asset: &intent.DestAsset,
	}
	destTx, err := destAdapter.CreateHTLC(ctx, destParams)
	if err != nil {
		exec.AppendStep(domain.Step{Name: "lock_destination", Chain: intent.DestChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.DestHTLCID = destTx.ID
	exec.AppendStep(domain.Step{Name: "lock_destination", Chain: intent.DestChain, Status: domain.StepSucceeded, TxHash: destTx.ID, Timestamp: time.Now()})

	// Phase: confirming_dest_lock
	exec.Phase = domain.HubConfirmingDestLock
	if err := c.retry.Do(ctx, func(int) error {
		return destAdapter.WaitForConfirmation(ctx, destTx.ID, destAdapter.Capabilities().MinConfirmations)
	}); err != nil {
		exec.AppendStep(domain.Step{Name: "confirm_dest_lock", Chain: intent.DestChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.AppendStep(domain.Step{Name: "confirm_dest_lock", Chain: intent.DestChain, Status: domain.StepSucceeded, Timestamp: time.Now()})

	// Phase: user_claiming_dest — DestSecret is delivered off-chain,
	// ECDH-sealed to the recipient's published identity key, rather than
	// handed to ClaimHTLC in the clear (spec.md §4.4 phase 11). An
	// eavesdropper on the delivery channel who lacks
	// recipient.IdentityX25519Private learns nothing; this models both
	// the solver's sealing half and the recipient's opening half in one
	// process since the two otherwise run on separate machines.
	exec.Phase = domain.HubUserClaimingDest
	recoveredSecret, err := c.deliverAndOpenDestSecret(exec, intent, recipient)
	if err != nil {
		exec.AppendStep(domain.Step{Name: "deliver_dest_secret_offchain", Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.AppendStep(domain.Step{Name: "deliver_dest_secret_offchain", Status: domain.StepSucceeded, Timestamp: time.Now()})

	userClaimTx, err := destAdapter.ClaimHTLC(ctx, destTx.ID, recoveredSecret)
	if err != nil {
		exec.AppendStep(domain.Step{Name: "user_claim_dest", Chain: intent.DestChain, Status: domain.StepFailed, Timestamp: time.Now(), Error: err.Error()})
		return c.fail(exec, err), err
	}
	exec.AppendStep(domain.Step{Name: "user_claim_dest", Chain: intent.DestChain, Status: domain.StepSucceeded, TxHash: userClaimTx.ID, Timestamp: time.Now()})

	if !exec.Witnesses.CorrelationBroken || !exec.Witnesses.TimingDecorrelated || !exec.Witnesses.AddressesOneTime {
		return c.fail(exec, fmt.Errorf("completion witnesses unsatisfied")), errs.PrivacyCorrelationDetected("one or more privacy witnesses failed to establish")
	}

	exec.Phase = domain.HubCompleted
	exec.CompletedAt = time.Now()
	c.log.Info("privacy-hub swap completed", zap.String("swap_id", intent.ID))
	return exec, nil
}

// emitDecoyTransfers builds cfg.DecoyCount throwaway transfers between
// two freshly generated, unrelated keypairs so the hub's outbound
// traffic around this swap's real mixing hop i contains transactions an
// observer cannot attribute to this swap at all.
func (c *Coordinator) emitDecoyTransfers(ctx context.Context, exec *domain.PrivacyHubExecution, hubAdapter chainadapter.Adapter, cfg HubConfig, hopIndex int) error {
	for d := 0; d < cfg.DecoyCount; d++ {
		decoyRecipient, _, err := stealthaddr.GenerateRecipientKeys()
		if err != nil {
			return fmt.Errorf("privacyhub: generating decoy recipient: %w", err)
		}
		decoyFrom, _, err := stealthaddr.GenerateRecipientKeys()
		if err != nil {
			return fmt.Errorf("privacyhub: generating decoy sender: %w", err)
		}
		decoyOneTime, err := stealthaddr.Derive(decoyRecipient)
		if err != nil {
			return fmt.Errorf("privacyhub: deriving decoy address: %w", err)
		}
		decoyFromOneTime, err := stealthaddr.Derive(decoyFrom)
		if err != nil {
			return fmt.Errorf("privacyhub: deriving decoy sender address: %w", err)
		}
		decoyFromAddr, err := hubAdapter.DeriveAddress(decoyFromOneTime.OneTimePublicKey.SerializeCompressed())
		if err != nil {
			return err
		}
		decoyToAddr, err := hubAdapter.DeriveAddress(decoyOneTime.OneTimePublicKey.SerializeCompressed())
		if err != nil {
			return err
		}
		jitter, err := cryptoutil.RandomInt63n(1_000_000_000) // sub-second decoy amount, in the asset's smallest unit
		if err != nil {
			return err
		}
		decoyReq := chainadapter.TransactionRequest{From: decoyFromAddr, To: decoyToAddr, Amount: big.NewInt(jitter + 1)}
		decoyTx, err := hubAdapter.BuildTransaction(ctx, decoyReq)
		if err != nil {
			return fmt.Errorf("privacyhub: building decoy transfer: %w", err)
		}
		exec.AppendStep(domain.Step{Name: fmt.Sprintf("hub_decoy_%d_%d", hopIndex+1, d+1), Chain: HubChain, Status: domain.StepSucceeded, TxHash: decoyTx.ID, Timestamp: time.Now()})
	}
	return nil
}

// deliverAndOpenDestSecret performs the full ECDH-sealed handoff of
// exec.DestSecret described in spec.md §4.4 phase 11: a fresh ephemeral
// X25519 keypair, a shared secret against recipient's published identity
// key, an HKDF-derived AEAD key bound to the recipient's destination-chain
// address, and an authenticated seal/open round trip. Returning the
// opened secret (rather than exec.DestSecret directly) is what proves the
// round trip actually ran rather than being bypassed.
func (c *Coordinator) deliverAndOpenDestSecret(exec *domain.PrivacyHubExecution, intent *domain.SwapIntent, recipient *stealthaddr.RecipientKeys) (domain.Secret, error) {
	var zero domain.Secret

	ephemeral, err := cryptoutil.GenerateEphemeralX25519()
	if err != nil {
		return zero, errs.PrivacySecretDeliveryFailed("generating ephemeral delivery key", err)
	}
	senderShared, err := ephemeral.SharedSecret(recipient.IdentityX25519Public)
	if err != nil {
		return zero, errs.PrivacySecretDeliveryFailed("computing sender-side ECDH", err)
	}
	recipientIdentity := []byte(intent.UserAddresses[intent.DestChain])
	senderKey, err := cryptoutil.DeriveAEADKey(senderShared, recipientIdentity)
	if err != nil {
		return zero, errs.PrivacySecretDeliveryFailed("deriving sender-side AEAD key", err)
	}
	sealed, err := cryptoutil.SealSecret(senderKey, exec.DestSecret[:], []byte(intent.ID))
	if err != nil {
		return zero, errs.PrivacySecretDeliveryFailed("sealing destination secret", err)
	}

	recipientSide := cryptoutil.EphemeralX25519Keypair{Private: recipient.IdentityX25519Private}
	recipientShared, err := recipientSide.SharedSecret(ephemeral.Public)
	if err != nil {
		return zero, errs.PrivacySecretDeliveryFailed("computing recipient-side ECDH", err)
	}
	recipientKey, err := cryptoutil.DeriveAEADKey(recipientShared, recipientIdentity)
	if err != nil {
		return zero, errs.PrivacySecretDeliveryFailed("deriving recipient-side AEAD key", err)
	}
	plain, err := cryptoutil.OpenSecret(recipientKey, sealed, []byte(intent.ID))
	if err != nil {
		return zero, errs.PrivacySecretDeliveryFailed("opening sealed destination secret", err)
	}

	var recovered domain.Secret
	copy(recovered[:], plain)
	return recovered, nil
}

func (c *Coordinator) scheduleRefund(exec *domain.PrivacyHubExecution, params domain.HTLCParams, chain domain.Chain, htlcID string) {
	if c.watchdog == nil {
		return
	}
	c.watchdog.Track(domain.PendingRefundRecord{
		SwapID: exec.SwapID, HTLCID: htlcID, Chain: chain,
		Timelock: params.Expiry, Amount: params.Amount.String(), RefundAddress: params.Sender,
		Status: domain.RefundPending,
	})
}

func (c *Coordinator) fail(exec *domain.PrivacyHubExecution, err error) *domain.PrivacyHubExecution {
	exec.Phase = domain.HubFailed
	exec.FailureCause = err.Error()
	exec.CompletedAt = time.Now()
	c.log.Warn("privacy-hub swap failed", zap.String("swap_id", exec.SwapID), zap.Error(err))
	return exec
}
