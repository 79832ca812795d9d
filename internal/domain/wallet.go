package domain

import (
	"time"
)

// Wallet is the stored-value account a deposit credits and a virtual card is
// issued against.
type Wallet struct {
	ID             string
	OwnerName      string
	PhoneNumber    string
	Balance        int64 // whole KES
	TotalDeposited int64
	LastDepositAt  *time.Time
	Status         WalletStatus
	Version        int64 // for optimistic locking
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type WalletStatus string

const (
	WalletStatusActive WalletStatus = "ACTIVE"
	WalletStatusFrozen WalletStatus = "FROZEN"
)

// NewWallet creates an empty active wallet
func NewWallet(id, ownerName, phone string, now time.Time) (*Wallet, error) {
	if id == "" {
		return nil, ErrInvalidWalletID
	}

	return &Wallet{
		ID:          id,
		OwnerName:   ownerName,
		PhoneNumber: phone,
		Status:      WalletStatusActive,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (w *Wallet) IsActive() bool {
	return w.Status == WalletStatusActive
}

// CanInitiate reports whether new payments may be started for the wallet.
func (w *Wallet) CanInitiate() error {
	if !w.IsActive() {
		return ErrWalletInactive
	}
	return nil
}

// Credit adds a settled deposit to the balance. Money already collected is
// credited even if the wallet was frozen after the payment started.
func (w *Wallet) Credit(amount int64, at time.Time) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	w.Balance += amount
	w.TotalDeposited += amount
	w.LastDepositAt = &at
	w.UpdatedAt = at

	// Note: Version is incremented by the repository during persistence
	return nil
}
