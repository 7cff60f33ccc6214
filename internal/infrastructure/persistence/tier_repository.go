package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormTierRepository implements TierRepository using GORM
type GormTierRepository struct {
	db *gorm.DB
}

// NewGormTierRepository creates a new GormTierRepository
func NewGormTierRepository(db *gorm.DB) *GormTierRepository {
	return &GormTierRepository{db: db}
}

// FindByID finds a tier with its products
func (r *GormTierRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Tier, error) {
	return firstAs[models.TierModel, catalog.Tier](
		r.db.WithContext(ctx).Preload("Products").Where("id = ?", id),
		catalog.ErrTierNotFound,
	)
}

// FindFree finds the tier flagged as free
func (r *GormTierRepository) FindFree(ctx context.Context) (*catalog.Tier, error) {
	return firstAs[models.TierModel, catalog.Tier](
		r.db.WithContext(ctx).Preload("Products").Where("is_free = ?", true),
		catalog.ErrFreeTierNotFound,
	)
}

// FindAll lists tiers with their products, cheapest first
func (r *GormTierRepository) FindAll(ctx context.Context) ([]catalog.Tier, error) {
	var rows []models.TierModel
	if err := r.db.WithContext(ctx).Preload("Products").Order("price_amount ASC, name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	tiers := make([]catalog.Tier, 0, len(rows))
	for i := range rows {
		tiers = append(tiers, *rows[i].ToDomain())
	}
	return tiers, nil
}

// Save creates or updates a tier and replaces its product association
func (r *GormTierRepository) Save(ctx context.Context, tier *catalog.Tier) error {
	model := models.TierModelFromDomain(tier)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Products").Save(model).Error; err != nil {
			return err
		}
		if err := tx.Where("tier_id = ?", tier.ID).Delete(&models.TierProductModel{}).Error; err != nil {
			return err
		}
		ids := tier.ProductIDs()
		if len(ids) == 0 {
			return nil
		}
		links := make([]models.TierProductModel, 0, len(ids))
		for _, pid := range ids {
			links = append(links, models.TierProductModel{TierID: tier.ID, ProductID: pid})
		}
		return tx.Create(&links).Error
	})
}

// Delete removes a tier and its product association
func (r *GormTierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tier_id = ?", id).Delete(&models.TierProductModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.TierModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return catalog.ErrTierNotFound
		}
		return nil
	})
}

// ExistsFreeOtherThan reports whether a free tier other than id exists
func (r *GormTierRepository) ExistsFreeOtherThan(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.TierModel{}).
		Where("is_free = ? AND id <> ?", true, id).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ClearPopularExcept clears the popular flag on every tier but id
func (r *GormTierRepository) ClearPopularExcept(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Model(&models.TierModel{}).
		Where("popular = ? AND id <> ?", true, id).
		Update("popular", false).Error
}

// Ensure GormTierRepository implements TierRepository
var _ catalog.TierRepository = (*GormTierRepository)(nil)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	return firstAs[models.ProductModel, catalog.Product](r.db.WithContext(ctx).Where("id = ?", id), catalog.ErrProductNotFound)
}

// FindByIDs returns the products matching ids
func (r *GormProductRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]catalog.Product, error) {
	if len(ids) == 0 {
		return []catalog.Product{}, nil
	}
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// FindAll lists every product by name
func (r *GormProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return productsToDomain(rows), nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return r.db.WithContext(ctx).Save(models.ProductModelFromDomain(product)).Error
}

// Delete removes a product and detaches it from every tier
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("product_id = ?", id).Delete(&models.TierProductModel{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProductModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return catalog.ErrProductNotFound
		}
		return nil
	})
}

func productsToDomain(rows []models.ProductModel) []catalog.Product {
	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)
