package billing

import (
	"context"
	"errors"
	"time"

	"github.com/tierhub/backend/internal/domain/billing"
	"go.uber.org/zap"
)

// RefillResult summarizes one refill run
type RefillResult struct {
	Candidates int
	Refilled   int
	Failed     int
}

// RefillService grants a fresh monthly allowance to subscribers of recurring paid tiers
type RefillService struct {
	txScope          TransactionScope
	subscriptionRepo billing.SubscriptionRepository
	metrics          Metrics
	logger           *zap.Logger
}

// NewRefillService creates a new RefillService
func NewRefillService(txScope TransactionScope, subscriptionRepo billing.SubscriptionRepository, metrics Metrics, logger *zap.Logger) *RefillService {
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &RefillService{
		txScope:          txScope,
		subscriptionRepo: subscriptionRepo,
		metrics:          metrics,
		logger:           logger,
	}
}

// RefillDue resets the quota of every subscription whose last reset is at least
// RefillInterval old. Each user is refilled in its own locked transaction, and a
// failure for one user does not stop the run.
func (s *RefillService) RefillDue(ctx context.Context, now time.Time) (*RefillResult, error) {
	candidates, err := s.subscriptionRepo.FindRefillCandidates(ctx)
	if err != nil {
		return nil, err
	}

	result := &RefillResult{Candidates: len(candidates)}
	for i := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		sub := &candidates[i]
		if !sub.RefillDue(now) {
			continue
		}
		refilled, err := s.refillOne(ctx, sub, now)
		if err != nil {
			result.Failed++
			s.logger.Error("quota refill failed",
				zap.String("user_id", sub.UserID),
				zap.String("subscription_id", sub.ID.String()),
				zap.Error(err))
			continue
		}
		if refilled {
			result.Refilled++
		}
	}

	s.metrics.RecordQuotaRefills(ctx, result.Refilled, result.Failed)
	s.logger.Info("quota refill run complete",
		zap.Int("candidates", result.Candidates),
		zap.Int("refilled", result.Refilled),
		zap.Int("failed", result.Failed))
	return result, nil
}

func (s *RefillService) refillOne(ctx context.Context, candidate *billing.Subscription, now time.Time) (bool, error) {
	refilled := false
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		user, err := repos.UserRepo().FindByExternalIDForUpdate(ctx, candidate.UserID)
		if err != nil {
			return err
		}
		// Re-read under the lock; the subscription may have been replaced meanwhile.
		sub, err := repos.SubscriptionRepo().FindActiveByUser(ctx, candidate.UserID)
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		if sub.ID != candidate.ID || !sub.RefillDue(now) || sub.Tier == nil {
			return nil
		}

		user.GrantQuota(sub.Tier.Tokens)
		if err := repos.UserRepo().Save(ctx, user); err != nil {
			return err
		}
		sub.MarkRefilled(now)
		if err := repos.SubscriptionRepo().Save(ctx, sub); err != nil {
			return err
		}
		refilled = true
		return nil
	})
	return refilled, err
}
