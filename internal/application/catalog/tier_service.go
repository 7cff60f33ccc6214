package catalog

import (
	"context"

	"github.com/google/uuid"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"go.uber.org/zap"
)

// TierInput is the admin payload for creating or updating a tier
type TierInput struct {
	catalog.TierSpec
	ProductIDs []uuid.UUID
}

// TierService manages the tier catalog. It enforces the single free tier and
// single popular tier rules inside one transaction per change.
type TierService struct {
	txScope     appbilling.TransactionScope
	tierRepo    catalog.TierRepository
	productRepo catalog.ProductRepository
	logger      *zap.Logger
}

// NewTierService creates a new TierService
func NewTierService(
	txScope appbilling.TransactionScope,
	tierRepo catalog.TierRepository,
	productRepo catalog.ProductRepository,
	logger *zap.Logger,
) *TierService {
	return &TierService{
		txScope:     txScope,
		tierRepo:    tierRepo,
		productRepo: productRepo,
		logger:      logger,
	}
}

// List returns all tiers, cheapest first
func (s *TierService) List(ctx context.Context) ([]catalog.Tier, error) {
	return s.tierRepo.FindAll(ctx)
}

// Get returns one tier with its products
func (s *TierService) Get(ctx context.Context, id uuid.UUID) (*catalog.Tier, error) {
	return s.tierRepo.FindByID(ctx, id)
}

// Create adds a tier
func (s *TierService) Create(ctx context.Context, in TierInput) (*catalog.Tier, error) {
	tier, err := catalog.NewTier(in.TierSpec)
	if err != nil {
		return nil, err
	}
	products, err := s.resolveProducts(ctx, in.ProductIDs)
	if err != nil {
		return nil, err
	}
	tier.SetProducts(products)

	if err := s.txScope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		return s.persist(ctx, repos, tier)
	}); err != nil {
		return nil, err
	}

	s.logger.Info("tier created",
		zap.String("tier_id", tier.ID.String()),
		zap.String("name", tier.Name),
		zap.Bool("is_free", tier.IsFree))
	return tier, nil
}

// Update replaces a tier's attributes and product association
func (s *TierService) Update(ctx context.Context, id uuid.UUID, in TierInput) (*catalog.Tier, error) {
	products, err := s.resolveProducts(ctx, in.ProductIDs)
	if err != nil {
		return nil, err
	}

	var tier *catalog.Tier
	err = s.txScope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		tier, err = repos.TierRepo().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := tier.Update(in.TierSpec); err != nil {
			return err
		}
		tier.SetProducts(products)
		return s.persist(ctx, repos, tier)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("tier updated", zap.String("tier_id", tier.ID.String()))
	return tier, nil
}

// Delete removes a tier that no active subscription uses
func (s *TierService) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.txScope.Execute(ctx, func(repos appbilling.TransactionalRepositories) error {
		active, err := repos.SubscriptionRepo().CountActiveByTier(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return catalog.ErrTierInUse
		}
		return repos.TierRepo().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.logger.Info("tier deleted", zap.String("tier_id", id.String()))
	return nil
}

func (s *TierService) persist(ctx context.Context, repos appbilling.TransactionalRepositories, tier *catalog.Tier) error {
	if tier.IsFree {
		exists, err := repos.TierRepo().ExistsFreeOtherThan(ctx, tier.ID)
		if err != nil {
			return err
		}
		if exists {
			return catalog.ErrFreeTierExists
		}
	}
	if tier.Popular {
		if err := repos.TierRepo().ClearPopularExcept(ctx, tier.ID); err != nil {
			return err
		}
	}
	return repos.TierRepo().Save(ctx, tier)
}

func (s *TierService) resolveProducts(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	products, err := s.productRepo.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	if len(products) != len(unique) {
		return nil, catalog.ErrProductNotFound
	}
	return products, nil
}
