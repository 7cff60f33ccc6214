package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSubscriptionRepository implements SubscriptionRepository using GORM
type GormSubscriptionRepository struct {
	db *gorm.DB
}

// NewGormSubscriptionRepository creates a new GormSubscriptionRepository
func NewGormSubscriptionRepository(db *gorm.DB) *GormSubscriptionRepository {
	return &GormSubscriptionRepository{db: db}
}

// FindActiveByUser loads the active subscription, its tier (joined) and the tier's products
// (one batched preload), so the query count does not grow with the product count.
func (r *GormSubscriptionRepository) FindActiveByUser(ctx context.Context, userID string) (*billing.Subscription, error) {
	q := r.db.WithContext(ctx).
		Joins("Tier").
		Preload("Tier.Products").
		Where("user_subscriptions.user_id = ? AND user_subscriptions.is_active = ?", userID, true)
	return firstAs[models.SubscriptionModel, billing.Subscription](q, billing.ErrSubscriptionNotFound)
}

// FindByUser lists every subscription row of a user, newest first
func (r *GormSubscriptionRepository) FindByUser(ctx context.Context, userID string) ([]billing.Subscription, error) {
	var rows []models.SubscriptionModel
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("start_date DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return subscriptionsToDomain(rows), nil
}

// FindByExternalID finds the subscription bound to a provider subscription id
func (r *GormSubscriptionRepository) FindByExternalID(ctx context.Context, externalID string) (*billing.Subscription, error) {
	return firstAs[models.SubscriptionModel, billing.Subscription](
		r.db.WithContext(ctx).Where("external_subscription_id = ?", externalID),
		billing.ErrSubscriptionNotFound,
	)
}

// FindRefillCandidates lists active subscriptions on recurring paid tiers, with their tier
func (r *GormSubscriptionRepository) FindRefillCandidates(ctx context.Context) ([]billing.Subscription, error) {
	db := r.db.WithContext(ctx)
	recurring := db.Model(&models.TierModel{}).
		Select("id").
		Where("is_free = ? AND billing_period IN ?", false,
			[]catalog.BillingPeriod{catalog.BillingPeriodMonthly, catalog.BillingPeriodYearly})

	var rows []models.SubscriptionModel
	err := db.Preload("Tier").
		Where("is_active = ? AND tier_id IN (?)", true, recurring).
		Order("quota_reset_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return subscriptionsToDomain(rows), nil
}

// CountActiveByTier counts active subscriptions on a tier
func (r *GormSubscriptionRepository) CountActiveByTier(ctx context.Context, tierID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SubscriptionModel{}).
		Where("tier_id = ? AND is_active = ?", tierID, true).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a subscription
func (r *GormSubscriptionRepository) Save(ctx context.Context, subscription *billing.Subscription) error {
	model := models.SubscriptionModelFromDomain(subscription)
	return r.db.WithContext(ctx).Omit("Tier").Save(model).Error
}

// Delete removes a subscription row
func (r *GormSubscriptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SubscriptionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return billing.ErrSubscriptionNotFound
	}
	return nil
}

func subscriptionsToDomain(rows []models.SubscriptionModel) []billing.Subscription {
	subs := make([]billing.Subscription, 0, len(rows))
	for i := range rows {
		subs = append(subs, *rows[i].ToDomain())
	}
	return subs
}

// Ensure GormSubscriptionRepository implements SubscriptionRepository
var _ billing.SubscriptionRepository = (*GormSubscriptionRepository)(nil)

// GormPaymentRepository implements PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByExternalID finds a payment by provider payment id
func (r *GormPaymentRepository) FindByExternalID(ctx context.Context, externalID string) (*billing.Payment, error) {
	return firstAs[models.PaymentModel, billing.Payment](
		r.db.WithContext(ctx).Where("external_payment_id = ?", externalID),
		billing.ErrPaymentNotFound,
	)
}

// ExistsByExternalID reports whether a payment with that provider id was already recorded
func (r *GormPaymentRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("external_payment_id = ?", externalID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create appends a ledger entry
func (r *GormPaymentRepository) Create(ctx context.Context, payment *billing.Payment) error {
	return r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(payment)).Error
}

// UpdateStatus persists a status transition. No other column is written.
func (r *GormPaymentRepository) UpdateStatus(ctx context.Context, payment *billing.Payment) error {
	result := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("id = ?", payment.ID).
		Updates(map[string]any{
			"status":     payment.Status,
			"updated_at": payment.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return billing.ErrPaymentNotFound
	}
	return nil
}

// SumCompleted returns the total of completed payments in minor units
func (r *GormPaymentRepository) SumCompleted(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Where("status = ?", billing.PaymentStatusCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// ListCompletedSince lists completed payments made at or after since
func (r *GormPaymentRepository) ListCompletedSince(ctx context.Context, since time.Time) ([]billing.Payment, error) {
	var rows []models.PaymentModel
	err := r.db.WithContext(ctx).
		Where("status = ? AND payment_date >= ?", billing.PaymentStatusCompleted, since).
		Order("payment_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	payments := make([]billing.Payment, 0, len(rows))
	for i := range rows {
		payments = append(payments, *rows[i].ToDomain())
	}
	return payments, nil
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
