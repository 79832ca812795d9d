package persistence

import (
	"encoding/json"
	"time"

	"github.com/gigmile/mobile-money-service/internal/domain"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Models lists every table for AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&WalletModel{},
		&PaymentIntentModel{},
		&LedgerEntryModel{},
		&VirtualCardModel{},
		&ProviderEventModel{},
	}
}

// WalletModel represents the database schema for wallets
type WalletModel struct {
	ID             string `gorm:"primaryKey;type:varchar(50)"`
	OwnerName      string `gorm:"type:varchar(100)"`
	PhoneNumber    string `gorm:"type:varchar(20)"`
	Balance        int64  `gorm:"not null;default:0"`
	TotalDeposited int64  `gorm:"not null;default:0"`
	LastDepositAt  *time.Time
	Status         string    `gorm:"type:varchar(20);not null;index"`
	Version        int64     `gorm:"not null;default:1"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (WalletModel) TableName() string {
	return "wallets"
}

// ToDomain converts database model to domain entity
func (m *WalletModel) ToDomain() *domain.Wallet {
	return &domain.Wallet{
		ID:             m.ID,
		OwnerName:      m.OwnerName,
		PhoneNumber:    m.PhoneNumber,
		Balance:        m.Balance,
		TotalDeposited: m.TotalDeposited,
		LastDepositAt:  m.LastDepositAt,
		Status:         domain.WalletStatus(m.Status),
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

// WalletModelFromDomain converts domain entity to database model
func WalletModelFromDomain(wallet *domain.Wallet) *WalletModel {
	return &WalletModel{
		ID:             wallet.ID,
		OwnerName:      wallet.OwnerName,
		PhoneNumber:    wallet.PhoneNumber,
		Balance:        wallet.Balance,
		TotalDeposited: wallet.TotalDeposited,
		LastDepositAt:  wallet.LastDepositAt,
		Status:         string(wallet.Status),
		Version:        wallet.Version,
		CreatedAt:      wallet.CreatedAt,
		UpdatedAt:      wallet.UpdatedAt,
	}
}

// PaymentIntentModel represents the database schema for payment intents
type PaymentIntentModel struct {
	ID                 string              `gorm:"primaryKey;type:varchar(36)"`
	Reference          string              `gorm:"type:varchar(32);uniqueIndex;not null"`
	WalletID           string              `gorm:"type:varchar(50);not null;index"`
	Purpose            string              `gorm:"type:varchar(20);not null"`
	Amount             int64               `gorm:"not null"`
	SourceAmountUSD    decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	PhoneNumber        string              `gorm:"type:varchar(20);not null"`
	CustomerName       string              `gorm:"type:varchar(100)"`
	ProviderCheckoutID string              `gorm:"type:varchar(100);index"`
	ProviderReceipt    string              `gorm:"type:varchar(50)"`
	Status             string              `gorm:"type:varchar(20);not null;index:idx_status_created"`
	ResolvedVia        string              `gorm:"type:varchar(20)"`
	FailureReason      string              `gorm:"type:varchar(255)"`
	CreatedAt          time.Time           `gorm:"not null;index:idx_status_created"`
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
}

func (PaymentIntentModel) TableName() string {
	return "payment_intents"
}

// ToDomain converts database model to domain entity
func (m *PaymentIntentModel) ToDomain() *domain.PaymentIntent {
	intent := &domain.PaymentIntent{
		ID:                 m.ID,
		Reference:          m.Reference,
		WalletID:           m.WalletID,
		Purpose:            domain.PaymentPurpose(m.Purpose),
		Amount:             m.Amount,
		PhoneNumber:        m.PhoneNumber,
		CustomerName:       m.CustomerName,
		ProviderCheckoutID: m.ProviderCheckoutID,
		ProviderReceipt:    m.ProviderReceipt,
		Status:             domain.IntentStatus(m.Status),
		ResolvedVia:        domain.ResolutionSource(m.ResolvedVia),
		FailureReason:      m.FailureReason,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
		ResolvedAt:         m.ResolvedAt,
	}
	if m.SourceAmountUSD.Valid {
		usd := m.SourceAmountUSD.Decimal
		intent.SourceAmountUSD = &usd
	}
	return intent
}

// PaymentIntentModelFromDomain converts domain entity to database model
func PaymentIntentModelFromDomain(intent *domain.PaymentIntent) *PaymentIntentModel {
	model := &PaymentIntentModel{
		ID:                 intent.ID,
		Reference:          intent.Reference,
		WalletID:           intent.WalletID,
		Purpose:            string(intent.Purpose),
		Amount:             intent.Amount,
		PhoneNumber:        intent.PhoneNumber,
		CustomerName:       intent.CustomerName,
		ProviderCheckoutID: intent.ProviderCheckoutID,
		ProviderReceipt:    intent.ProviderReceipt,
		Status:             string(intent.Status),
		ResolvedVia:        string(intent.ResolvedVia),
		FailureReason:      intent.FailureReason,
		CreatedAt:          intent.CreatedAt,
		UpdatedAt:          intent.UpdatedAt,
		ResolvedAt:         intent.ResolvedAt,
	}
	if intent.SourceAmountUSD != nil {
		model.SourceAmountUSD = decimal.NewNullDecimal(*intent.SourceAmountUSD)
	}
	return model
}

// LedgerEntryModel represents the database schema for ledger entries
type LedgerEntryModel struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)"`
	Reference    string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	WalletID     string    `gorm:"type:varchar(50);not null;index"`
	EntryType    string    `gorm:"type:varchar(20);not null"`
	Amount       int64     `gorm:"not null"`
	BalanceAfter int64     `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
}

func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

func (m *LedgerEntryModel) ToDomain() *domain.LedgerEntry {
	return &domain.LedgerEntry{
		ID:           m.ID,
		Reference:    m.Reference,
		WalletID:     m.WalletID,
		EntryType:    domain.LedgerEntryType(m.EntryType),
		Amount:       m.Amount,
		BalanceAfter: m.BalanceAfter,
		CreatedAt:    m.CreatedAt,
	}
}

func LedgerEntryModelFromDomain(entry *domain.LedgerEntry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:           entry.ID,
		Reference:    entry.Reference,
		WalletID:     entry.WalletID,
		EntryType:    string(entry.EntryType),
		Amount:       entry.Amount,
		BalanceAfter: entry.BalanceAfter,
		CreatedAt:    entry.CreatedAt,
	}
}

// VirtualCardModel represents the database schema for virtual cards
type VirtualCardModel struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)"`
	WalletID  string    `gorm:"type:varchar(50);not null;index"`
	Reference string    `gorm:"type:varchar(32);uniqueIndex;not null"`
	Status    string    `gorm:"type:varchar(20);not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (VirtualCardModel) TableName() string {
	return "virtual_cards"
}

func (m *VirtualCardModel) ToDomain() *domain.VirtualCard {
	return &domain.VirtualCard{
		ID:        m.ID,
		WalletID:  m.WalletID,
		Reference: m.Reference,
		Status:    domain.VirtualCardStatus(m.Status),
		CreatedAt: m.CreatedAt,
	}
}

func VirtualCardModelFromDomain(card *domain.VirtualCard) *VirtualCardModel {
	return &VirtualCardModel{
		ID:        card.ID,
		WalletID:  card.WalletID,
		Reference: card.Reference,
		Status:    string(card.Status),
		CreatedAt: card.CreatedAt,
	}
}

// ProviderEventModel stores raw provider messages, many per intent.
type ProviderEventModel struct {
	ID             string         `gorm:"primaryKey;type:varchar(36)"`
	Reference      string         `gorm:"type:varchar(32);not null;index:idx_reference_received"`
	Source         string         `gorm:"type:varchar(20);not null"`
	ProviderStatus string         `gorm:"type:varchar(30)"`
	ResultCode     int            `gorm:"not null;default:0"`
	Outcome        string         `gorm:"type:varchar(30)"`
	Payload        datatypes.JSON `gorm:"type:json"`
	ReceivedAt     time.Time      `gorm:"not null;index:idx_reference_received"`
}

func (ProviderEventModel) TableName() string {
	return "provider_events"
}

func (m *ProviderEventModel) ToDomain() *domain.ProviderEvent {
	return &domain.ProviderEvent{
		ID:             m.ID,
		Reference:      m.Reference,
		Source:         domain.ResolutionSource(m.Source),
		ProviderStatus: m.ProviderStatus,
		ResultCode:     m.ResultCode,
		Outcome:        m.Outcome,
		Payload:        json.RawMessage(m.Payload),
		ReceivedAt:     m.ReceivedAt,
	}
}

func ProviderEventModelFromDomain(event *domain.ProviderEvent) *ProviderEventModel {
	return &ProviderEventModel{
		ID:             event.ID,
		Reference:      event.Reference,
		Source:         string(event.Source),
		ProviderStatus: event.ProviderStatus,
		ResultCode:     event.ResultCode,
		Outcome:        event.Outcome,
		Payload:        datatypes.JSON(event.Payload),
		ReceivedAt:     event.ReceivedAt,
	}
}
