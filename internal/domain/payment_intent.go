package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentIntent is one attempt to collect money from a phone number via the
// gateway. It is the only state shared between the callback receiver and the
// status poller.
type PaymentIntent struct {
	ID                 string
	Reference          string
	WalletID           string
	Purpose            PaymentPurpose
	Amount             int64 // whole KES
	SourceAmountUSD    *decimal.Decimal
	PhoneNumber        string
	CustomerName       string
	ProviderCheckoutID string
	ProviderReceipt    string
	Status             IntentStatus
	ResolvedVia        ResolutionSource
	FailureReason      string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
}

type IntentStatus string

const (
	IntentStatusPending   IntentStatus = "PENDING"
	IntentStatusSucceeded IntentStatus = "SUCCEEDED"
	IntentStatusFailed    IntentStatus = "FAILED"
	IntentStatusError     IntentStatus = "ERROR"
)

// IsTerminal reports whether no further transition is allowed.
func (s IntentStatus) IsTerminal() bool {
	switch s {
	case IntentStatusSucceeded, IntentStatusFailed, IntentStatusError:
		return true
	}
	return false
}

type ResolutionSource string

const (
	ResolvedViaCallback   ResolutionSource = "CALLBACK"
	ResolvedViaPoll       ResolutionSource = "POLL"
	ResolvedViaUnresolved ResolutionSource = "UNRESOLVED"
)

type PaymentPurpose string

const (
	PurposeDeposit      PaymentPurpose = "DEPOSIT"
	PurposeCardPurchase PaymentPurpose = "CARD_PURCHASE"
)

func (p PaymentPurpose) IsValid() bool {
	return p == PurposeDeposit || p == PurposeCardPurchase
}

// Failure reasons recorded by the service itself rather than the provider.
const (
	FailureReasonAmountMismatch = "amount_mismatch"
	FailureReasonExpired        = "expired"
)

// NewPaymentIntent creates a PENDING intent. The reference must already be
// generated; it is never reassigned afterwards.
func NewPaymentIntent(id, reference, walletID string, purpose PaymentPurpose, amount int64, phone string, now time.Time) (*PaymentIntent, error) {
	if reference == "" {
		return nil, ErrInvalidReference
	}
	if walletID == "" {
		return nil, ErrInvalidWalletID
	}
	if !purpose.IsValid() {
		return nil, ErrInvalidPurpose
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if phone == "" {
		return nil, ErrInvalidPhoneNumber
	}

	return &PaymentIntent{
		ID:          id,
		Reference:   reference,
		WalletID:    walletID,
		Purpose:     purpose,
		Amount:      amount,
		PhoneNumber: phone,
		Status:      IntentStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (p *PaymentIntent) IsTerminal() bool {
	return p.Status.IsTerminal()
}

// Apply moves a PENDING intent to the resolution's terminal status.
func (p *PaymentIntent) Apply(res Resolution) error {
	if err := res.Validate(); err != nil {
		return err
	}
	if p.IsTerminal() {
		return ErrIntentTerminal
	}

	resolvedAt := res.ResolvedAt
	p.Status = res.Status
	p.ResolvedVia = res.Via
	if res.Receipt != "" {
		p.ProviderReceipt = res.Receipt
	}
	if p.ProviderCheckoutID == "" {
		p.ProviderCheckoutID = res.CheckoutID
	}
	p.FailureReason = res.Reason
	p.ResolvedAt = &resolvedAt
	p.UpdatedAt = resolvedAt
	return nil
}

// Resolution is a terminal outcome reported for a reference by one of the
// resolution paths.
type Resolution struct {
	Reference  string
	Status     IntentStatus
	Via        ResolutionSource
	Receipt    string
	Reason     string
	// Amount is what the provider reports as collected; zero when unknown.
	Amount     int64
	// CheckoutID fills ProviderCheckoutID when initiation never recorded it.
	CheckoutID string
	ResolvedAt time.Time
}

func (r Resolution) Validate() error {
	if r.Reference == "" {
		return ErrInvalidReference
	}
	if !r.Status.IsTerminal() {
		return ErrInvalidResolution
	}
	switch r.Via {
	case ResolvedViaCallback, ResolvedViaPoll, ResolvedViaUnresolved:
	default:
		return ErrInvalidResolution
	}
	return nil
}
