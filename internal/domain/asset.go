package domain

import "math/big"

// Asset is an immutable value object identifying a unit of value on a
// specific chain.
type Asset struct {
	Symbol   string
	Decimals int
	Chain    Chain
	// Contract is the optional token contract/issuer identifier (ERC-20
	// address, Stellar asset issuer account, Zilliqa token contract,
	// etc). Empty for a chain's native asset.
	Contract string
}

// IsNative reports whether this asset is the chain's native currency.
func (a Asset) IsNative() bool {
	return a.Contract == ""
}

// HTLCParams are the inputs that define a single HTLC lock.
type HTLCParams struct {
	Sender    string
	Receiver  string
	Amount    *big.Int
	Hashlock  Hashlock
	Expiry    int64 // absolute UNIX seconds
	Asset     *Asset
}

// Validate enforces the invariants spec.md §3 assigns to HTLCParams.
func (p *HTLCParams) Validate(now int64) error {
	if p.Amount == nil || p.Amount.Sign() <= 0 {
		return errHTLC("amount must be > 0")
	}
	if p.Expiry <= now {
		return errHTLC("expiry must be strictly in the future")
	}
	return nil
}

type errHTLC string

func (e errHTLC) Error() string { return string(e) }
