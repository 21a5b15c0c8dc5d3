package errs

import "time"

// Adapter errors (1000-1099)
func AdapterNotFound(chain string) *Error {
	return New(CategoryAdapter, 1, "adapter_not_found", "no adapter registered for chain "+chain, false, false, nil)
}
func AdapterNotInitialized(chain string) *Error {
	return New(CategoryAdapter, 2, "adapter_not_initialized", "adapter for "+chain+" has not completed initialize", false, true, nil)
}
func AdapterInitFailed(chain string, cause error) *Error {
	return New(CategoryAdapter, 3, "adapter_init_failed", "adapter init failed for "+chain, true, true, cause)
}
func AdapterConnectionFailed(chain string, cause error) *Error {
	return New(CategoryAdapter, 4, "adapter_connection_failed", "adapter could not reach endpoint for "+chain, true, true, cause)
}

// Transaction errors (1100-1199)
func TxBuildFailed(msg string, cause error) *Error {
	return New(CategoryTransaction, 1, "tx_build_failed", msg, false, false, cause)
}
func TxSignFailed(msg string, cause error) *Error {
	return New(CategoryTransaction, 2, "tx_sign_failed", msg, false, false, cause)
}
func TxBroadcastFailed(msg string, cause error) *Error {
	return New(CategoryTransaction, 3, "tx_broadcast_failed", msg, true, true, cause)
}
func TxConfirmationTimeout(msg string) *Error {
	return New(CategoryTransaction, 4, "tx_confirmation_timeout", msg, true, true, nil)
}
func TxRejected(msg string, cause error) *Error {
	return New(CategoryTransaction, 5, "tx_rejected", msg, false, false, cause)
}
func TxInsufficientBalance(msg string) *Error {
	return New(CategoryTransaction, 6, "tx_insufficient_balance", msg, false, false, nil)
}
func TxInsufficientGas(msg string) *Error {
	return New(CategoryTransaction, 7, "tx_insufficient_gas", msg, false, true, nil)
}

// HTLC errors (1200-1299)
func HTLCCreateFailed(msg string, cause error) *Error {
	return New(CategoryHTLC, 1, "htlc_create_failed", msg, true, true, cause)
}
func HTLCClaimFailed(msg string, cause error) *Error {
	return New(CategoryHTLC, 2, "htlc_claim_failed", msg, true, true, cause)
}
func HTLCRefundFailed(msg string, cause error) *Error {
	return New(CategoryHTLC, 3, "htlc_refund_failed", msg, true, true, cause)
}
func HTLCNotFound(id string) *Error {
	e := New(CategoryHTLC, 4, "htlc_not_found", "htlc not found: "+id, false, false, nil)
	e.HTLCID = id
	return e
}
func HTLCAlreadyClaimed(id string) *Error {
	e := New(CategoryHTLC, 5, "htlc_already_claimed", "htlc already claimed: "+id, false, true, nil)
	e.HTLCID = id
	return e
}
func HTLCAlreadyRefunded(id string) *Error {
	e := New(CategoryHTLC, 6, "htlc_already_refunded", "htlc already refunded: "+id, false, true, nil)
	e.HTLCID = id
	return e
}
func HTLCTimelockNotExpired(id string, expiry int64) *Error {
	e := New(CategoryHTLC, 7, "htlc_timelock_not_expired", "htlc timelock has not expired: "+id, false, true, nil)
	e.HTLCID = id
	return e
}
func HTLCTimelockExpired(id string) *Error {
	e := New(CategoryHTLC, 8, "htlc_timelock_expired", "htlc timelock has expired: "+id, false, false, nil)
	e.HTLCID = id
	return e
}
func HTLCInvalidPreimage(id string) *Error {
	e := New(CategoryHTLC, 9, "htlc_invalid_preimage", "preimage does not hash to htlc's lock: "+id, false, false, nil)
	e.HTLCID = id
	return e
}
func HTLCParamsMismatch(id, msg string) *Error {
	e := New(CategoryHTLC, 10, "htlc_params_mismatch", "confirmed htlc does not match requested params: "+id+": "+msg, false, false, nil)
	e.HTLCID = id
	return e
}

// Swap errors (1300-1399)
func SwapExecutionFailed(msg string, cause error) *Error {
	return New(CategorySwap, 1, "swap_execution_failed", msg, false, false, cause)
}
func SwapTimeout(msg string) *Error {
	return New(CategorySwap, 2, "swap_timeout", msg, false, true, nil)
}
func SwapCancelled(msg string) *Error {
	return New(CategorySwap, 3, "swap_cancelled", msg, false, true, nil)
}
func SwapInvalidIntent(msg string) *Error {
	return New(CategorySwap, 4, "swap_invalid_intent", msg, false, false, nil)
}
func SwapNoRoute(msg string) *Error {
	return New(CategorySwap, 5, "swap_no_route", msg, false, true, nil)
}
func SwapSlippageExceeded(msg string) *Error {
	return New(CategorySwap, 6, "swap_slippage_exceeded", msg, false, true, nil)
}
func SwapDeadlineExceeded(msg string) *Error {
	return New(CategorySwap, 7, "swap_deadline_exceeded", msg, false, true, nil)
}

// Solver errors (1400-1499)
func SolverNotFound(id string) *Error {
	return New(CategorySolver, 1, "solver_not_found", "solver not found: "+id, false, false, nil)
}
func SolverInsufficientInventory(msg string) *Error {
	return New(CategorySolver, 2, "solver_insufficient_inventory", msg, false, true, nil)
}
func SolverOffline(id string) *Error {
	return New(CategorySolver, 3, "solver_offline", "solver offline: "+id, true, true, nil)
}

// Privacy errors (1500-1599)
func PrivacyHubUnavailable(hub string) *Error {
	return New(CategoryPrivacy, 1, "privacy_hub_unavailable", "hub chain unavailable: "+hub, true, true, nil)
}
func PrivacyStealthGenFailed(msg string, cause error) *Error {
	return New(CategoryPrivacy, 2, "privacy_stealth_address_generation_failed", msg, true, true, cause)
}
func PrivacyCorrelationDetected(msg string) *Error {
	return New(CategoryPrivacy, 3, "privacy_correlation_detected", msg, false, false, nil)
}
func PrivacySecretDeliveryFailed(msg string, cause error) *Error {
	return New(CategoryPrivacy, 4, "privacy_secret_delivery_failed", msg, false, false, cause)
}

// Network errors (1600-1699)
func NetworkGeneric(msg string, cause error) *Error {
	return New(CategoryNetwork, 1, "network_generic", msg, true, true, cause)
}
func NetworkRPC(msg string, cause error) *Error {
	return New(CategoryNetwork, 2, "network_rpc", msg, true, true, cause)
}
func NetworkTimeout(msg string) *Error {
	return New(CategoryNetwork, 3, "network_timeout", msg, true, true, nil)
}
func NetworkRateLimited(retryAfter time.Duration) *Error {
	e := New(CategoryNetwork, 4, "network_rate_limited", "rate limited by RPC endpoint", true, true, nil)
	e.RetryAfter = &retryAfter
	return e
}
