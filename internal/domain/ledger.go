package domain

import (
	"time"
)

type LedgerEntryType string

const (
	LedgerEntryDepositCredit  LedgerEntryType = "DEPOSIT_CREDIT"
	LedgerEntryCardActivation LedgerEntryType = "CARD_ACTIVATION"
)

// LedgerEntry records the side effect of a succeeded intent. Reference is
// unique in storage, so an intent can produce at most one entry.
type LedgerEntry struct {
	ID           string
	Reference    string
	WalletID     string
	EntryType    LedgerEntryType
	Amount       int64
	BalanceAfter int64
	CreatedAt    time.Time
}

type VirtualCardStatus string

const (
	VirtualCardStatusActive VirtualCardStatus = "ACTIVE"
)

// VirtualCard is issued once per succeeded CARD_PURCHASE intent.
type VirtualCard struct {
	ID        string
	WalletID  string
	Reference string
	Status    VirtualCardStatus
	CreatedAt time.Time
}

// LedgerEntryType returns the entry a success of this intent produces.
func (p *PaymentIntent) LedgerEntryType() LedgerEntryType {
	if p.Purpose == PurposeCardPurchase {
		return LedgerEntryCardActivation
	}
	return LedgerEntryDepositCredit
}
