package types

import "math/big"

// Account is the asset-ledger record for a single address. Balances use the
// asset's smallest unit (8 fractional digits). The staking pool owns a vault
// account that all deposited principal flows through.
type Account struct {
	Nonce   uint64   `json:"nonce"`
	Balance *big.Int `json:"balance"`
}

// Normalize replaces nil balance pointers with zero so callers can operate on
// the record without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	return a
}
