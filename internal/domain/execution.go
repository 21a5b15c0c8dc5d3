package domain

import "time"

// StepStatus is the outcome of a single audited step inside an execution
// record.
type StepStatus string

const (
	StepStarted   StepStatus = "started"
	StepSucceeded StepStatus = "succeeded"
	StepFailed    StepStatus = "failed"
	StepRetried   StepStatus = "retried"
)

// Step is one entry in an execution's ordered audit log.
type Step struct {
	Name      string
	Chain     Chain
	Status    StepStatus
	TxHash    string
	Attempt   int
	Timestamp time.Time
	Error     string
}

// StandardPhase is the Standard coordinator's five-state machine
// (spec.md §4.3), plus the two branch states reachable from any phase.
type StandardPhase string

const (
	StandardInitializing       StandardPhase = "initializing"
	StandardLockingSource      StandardPhase = "locking_source"
	StandardConfirmingLock     StandardPhase = "confirming_lock"
	StandardReleasingDest      StandardPhase = "releasing_dest"
	StandardConfirmingRelease  StandardPhase = "confirming_release"
	StandardCompleting         StandardPhase = "completing"
	StandardCompleted          StandardPhase = "completed"
	StandardRefunding          StandardPhase = "refunding"
	StandardRefunded           StandardPhase = "refunded"
	StandardFailed             StandardPhase = "failed"
)

// StandardExecution is the Standard swap coordinator's execution record.
type StandardExecution struct {
	SwapID      string
	Intent      *SwapIntent
	Solver      *Solver
	Phase       StandardPhase
	Log         []Step
	SourceTxID  string
	DestTxID    string
	ActualOutput *struct {
		Amount string
		Asset  Asset
	}
	StartedAt   time.Time
	CompletedAt time.Time
	FailureCause string
}

// AppendStep appends a step to the execution log.
func (e *StandardExecution) AppendStep(s Step) {
	e.Log = append(e.Log, s)
}

// PrivacyHubPhase is the Privacy-Hub coordinator's twelve-phase state
// machine (spec.md §4.4).
type PrivacyHubPhase string

const (
	HubInitializing              PrivacyHubPhase = "initializing"
	HubGeneratingStealthAddresses PrivacyHubPhase = "generating_stealth_addresses"
	HubLockingSource              PrivacyHubPhase = "locking_source"
	HubConfirmingSourceLock       PrivacyHubPhase = "confirming_source_lock"
	HubSolverClaimingSource       PrivacyHubPhase = "solver_claiming_source"
	HubDepositing                 PrivacyHubPhase = "hub_depositing"
	HubMixing                     PrivacyHubPhase = "hub_mixing"
	HubWithdrawing                PrivacyHubPhase = "hub_withdrawing"
	HubWaitingRandomDelay         PrivacyHubPhase = "waiting_random_delay"
	HubLockingDestination         PrivacyHubPhase = "locking_destination"
	HubConfirmingDestLock         PrivacyHubPhase = "confirming_dest_lock"
	HubUserClaimingDest           PrivacyHubPhase = "user_claiming_dest"
	HubCompleted                  PrivacyHubPhase = "completed"
	HubFailed                     PrivacyHubPhase = "failed"
)

// CompletionWitnesses are the three boolean assertions the Privacy-Hub
// coordinator must establish before it reports Completed.
type CompletionWitnesses struct {
	CorrelationBroken  bool
	TimingDecorrelated bool
	AddressesOneTime   bool
}

// PrivacyHubExecution is the Privacy-Hub coordinator's execution record.
type PrivacyHubExecution struct {
	SwapID string
	Intent *SwapIntent
	Solver *Solver
	Phase  PrivacyHubPhase
	Log    []Step

	SourceSecret Secret
	DestSecret   Secret
	SourceHash   Hashlock
	DestHash     Hashlock

	SourceTimelock int64
	DestTimelock   int64
	MixingDelay    time.Duration

	SourceStealthAddress string
	DestStealthAddress   string

	SourceHTLCID string
	DestHTLCID   string

	DepositTxIDs []string // phase 5: one per denomination sub-deposit, or one if split amounts is off
	MixTxIDs     []string // phase 6: the shielded-to-shielded hops between deposit and withdrawal
	WithdrawTxID string   // phase 7

	Witnesses CompletionWitnesses

	StartedAt    time.Time
	CompletedAt  time.Time
	FailureCause string
}

func (e *PrivacyHubExecution) AppendStep(s Step) {
	e.Log = append(e.Log, s)
}

// ZeroizeSecrets clears both leg secrets. Called on completion and on
// every failure exit.
func (e *PrivacyHubExecution) ZeroizeSecrets() {
	e.SourceSecret.Zeroize()
	e.DestSecret.Zeroize()
}

// RefundStatus is a PendingRefundRecord's lifecycle.
type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
)

// PendingRefundRecord is the watchdog's unit of work.
type PendingRefundRecord struct {
	SwapID         string
	HTLCID         string
	Chain          Chain
	Timelock       int64
	Amount         string
	RefundAddress  string
	KeyHandle      string // opaque handle the signer callback resolves; never raw key material
	AttemptCount   int
	LastAttempt    time.Time
	Status         RefundStatus
}
