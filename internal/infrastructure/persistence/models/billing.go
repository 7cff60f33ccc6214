package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/billing"
)

// SubscriptionModel is the persistence model for the user_subscriptions table.
// The partial unique index on user_id backs the one-active-subscription rule.
type SubscriptionModel struct {
	AggregateModel
	UserID                 string     `gorm:"type:varchar(255);not null;index:idx_user_subscriptions_user_id;index:idx_user_subscriptions_one_active,unique,where:is_active = true"`
	TierID                 uuid.UUID  `gorm:"type:uuid;not null;index"`
	Tier                   *TierModel `gorm:"foreignKey:TierID;constraint:OnDelete:CASCADE"`
	StartDate              time.Time  `gorm:"not null"`
	EndDate                time.Time  `gorm:"not null"`
	IsActive               bool       `gorm:"not null;default:true"`
	ExternalSubscriptionID *string    `gorm:"type:varchar(255);index"`
	QuotaResetAt           time.Time  `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "user_subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription
func (m *SubscriptionModel) ToDomain() *billing.Subscription {
	s := &billing.Subscription{
		BaseAggregateRoot:      m.root(),
		UserID:                 m.UserID,
		TierID:                 m.TierID,
		StartDate:              m.StartDate,
		EndDate:                m.EndDate,
		IsActive:               m.IsActive,
		ExternalSubscriptionID: derefString(m.ExternalSubscriptionID),
		QuotaResetAt:           m.QuotaResetAt,
	}
	if m.Tier != nil && m.Tier.ID != uuid.Nil {
		s.Tier = m.Tier.ToDomain()
	}
	return s
}

// FromDomain populates the persistence model from a domain Subscription
func (m *SubscriptionModel) FromDomain(s *billing.Subscription) {
	m.setRoot(s.BaseAggregateRoot)
	m.UserID = s.UserID
	m.TierID = s.TierID
	m.StartDate = s.StartDate
	m.EndDate = s.EndDate
	m.IsActive = s.IsActive
	m.ExternalSubscriptionID = nullableString(s.ExternalSubscriptionID)
	m.QuotaResetAt = s.QuotaResetAt
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription
func SubscriptionModelFromDomain(s *billing.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(s)
	return m
}

// PaymentModel is the persistence model for the payments ledger
type PaymentModel struct {
	BaseModel
	UserID            uuid.UUID             `gorm:"type:uuid;not null;index"`
	TierID            uuid.UUID             `gorm:"type:uuid;not null"`
	ExternalPaymentID string                `gorm:"type:varchar(255);not null;uniqueIndex:idx_payments_external_payment_id"`
	Amount            int64                 `gorm:"not null"`
	Currency          string                `gorm:"type:varchar(3);not null"`
	Status            billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'completed';index"`
	PaymentDate       time.Time             `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *billing.Payment {
	return &billing.Payment{
		BaseEntity:        m.entity(),
		UserID:            m.UserID,
		TierID:            m.TierID,
		ExternalPaymentID: m.ExternalPaymentID,
		Amount:            m.Amount,
		Currency:          m.Currency,
		Status:            m.Status,
		PaymentDate:       m.PaymentDate,
	}
}

// FromDomain populates the persistence model from a domain Payment
func (m *PaymentModel) FromDomain(p *billing.Payment) {
	m.setEntity(p.BaseEntity)
	m.UserID = p.UserID
	m.TierID = p.TierID
	m.ExternalPaymentID = p.ExternalPaymentID
	m.Amount = p.Amount
	m.Currency = p.Currency
	m.Status = p.Status
	m.PaymentDate = p.PaymentDate
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *billing.Payment) *PaymentModel {
	m := &PaymentModel{}
	m.FromDomain(p)
	return m
}

// AllModels lists the models for schema auto-migration in tests and local tooling
func AllModels() []any {
	return []any{
		&UserModel{},
		&ProductModel{},
		&TierModel{},
		&TierProductModel{},
		&SubscriptionModel{},
		&PaymentModel{},
	}
}
