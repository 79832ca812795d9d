package domain

import (
	"context"
	"time"
)

type WalletRepository interface {
	FindByID(ctx context.Context, walletID string) (*Wallet, error)
	Create(ctx context.Context, wallet *Wallet) error
}

type PaymentIntentRepository interface {
	Create(ctx context.Context, intent *PaymentIntent) error
	FindByReference(ctx context.Context, reference string) (*PaymentIntent, error)
	AttachCheckout(ctx context.Context, reference, checkoutID string) error
	// Resolve applies res only if the intent is still PENDING, together with
	// the ledger side effect of a success. applied is false when another
	// resolution got there first; the returned intent is the stored one.
	Resolve(ctx context.Context, res Resolution) (intent *PaymentIntent, applied bool, err error)
	FindPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]*PaymentIntent, error)
	FindByWalletIDWithPagination(ctx context.Context, walletID string, limit, offset int) ([]*PaymentIntent, error)
	CountByWalletID(ctx context.Context, walletID string) (int64, error)
}

// ReferenceLocker serialises resolution attempts for one reference.
type ReferenceLocker interface {
	Acquire(ctx context.Context, reference string) (release func(), err error)
}
