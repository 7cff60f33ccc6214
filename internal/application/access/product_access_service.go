// Package access issues and verifies single-use tokens that let a subscribed
// user open a product frontend.
package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/domain/catalog"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/infrastructure/auth"
	"go.uber.org/zap"
)

var (
	// ErrAccessDenied is returned when the caller's tier does not include the product
	ErrAccessDenied = shared.NewDomainError("PRODUCT_ACCESS_DENIED", "Your subscription does not include this product")
	// ErrTokenInvalid covers bad signatures, expiry, audience mismatch and replay
	ErrTokenInvalid = shared.NewDomainError("INVALID_ACCESS_TOKEN", "Access token is invalid or already used")
)

// NonceStore records issued nonces so each token is consumed once
type NonceStore interface {
	Store(ctx context.Context, nonce string, ttl time.Duration) error
	Consume(ctx context.Context, nonce string) (bool, error)
}

// TokenCodec signs and parses product access tokens
type TokenCodec interface {
	IssueProductAccessToken(userID, productID, audience string) (*auth.IssuedProductToken, error)
	ParseProductAccessToken(token string) (*auth.ProductAccessClaims, error)
	ProductAccessTTL() time.Duration
}

// IssuedToken is returned to the dashboard, which hands it to the product frontend
type IssuedToken struct {
	Token       string
	ExpiresAt   time.Time
	FrontendURL string
}

// VerifiedAccess is the identity a product frontend learns from a token
type VerifiedAccess struct {
	UserID    string
	ProductID uuid.UUID
}

// ProductAccessService grants product access tokens to entitled users
type ProductAccessService struct {
	productRepo  catalog.ProductRepository
	entitlements *appbilling.EntitlementService
	codec        TokenCodec
	nonces       NonceStore
	logger       *zap.Logger
}

// NewProductAccessService creates a new ProductAccessService
func NewProductAccessService(
	productRepo catalog.ProductRepository,
	entitlements *appbilling.EntitlementService,
	codec TokenCodec,
	nonces NonceStore,
	logger *zap.Logger,
) *ProductAccessService {
	return &ProductAccessService{
		productRepo:  productRepo,
		entitlements: entitlements,
		codec:        codec,
		nonces:       nonces,
		logger:       logger,
	}
}

// Issue signs a token for userID if their active tier includes the product
func (s *ProductAccessService) Issue(ctx context.Context, userID string, productID uuid.UUID) (*IssuedToken, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	allowed, err := s.entitlements.HasProductAccess(ctx, userID, product)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, ErrAccessDenied
	}

	issued, err := s.codec.IssueProductAccessToken(userID, product.ID.String(), product.FrontendURL)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInternalError, "failed to sign access token", err)
	}
	if err := s.nonces.Store(ctx, issued.Nonce, s.codec.ProductAccessTTL()); err != nil {
		return nil, shared.WrapDomainError(shared.CodeInternalError, "failed to record access token", err)
	}

	s.logger.Info("product access token issued",
		zap.String("user_id", userID),
		zap.String("product_id", product.ID.String()))

	return &IssuedToken{
		Token:       issued.Token,
		ExpiresAt:   issued.ExpiresAt,
		FrontendURL: product.FrontendURL,
	}, nil
}

// Verify checks the token and consumes its nonce. A second verification of the same token fails.
func (s *ProductAccessService) Verify(ctx context.Context, token string) (*VerifiedAccess, error) {
	claims, err := s.codec.ParseProductAccessToken(token)
	if err != nil {
		return nil, ErrTokenInvalid
	}
	productID, err := uuid.Parse(claims.ProductID)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) || errors.Is(err, catalog.ErrProductNotFound) {
			return nil, ErrTokenInvalid
		}
		return nil, err
	}
	if !audienceMatches(claims.Audience, product.FrontendURL) {
		return nil, ErrTokenInvalid
	}

	fresh, err := s.nonces.Consume(ctx, claims.Nonce)
	if err != nil {
		return nil, shared.WrapDomainError(shared.CodeInternalError, "failed to consume access token", err)
	}
	if !fresh {
		s.logger.Warn("product access token replayed",
			zap.String("user_id", claims.Subject),
			zap.String("product_id", claims.ProductID))
		return nil, ErrTokenInvalid
	}

	return &VerifiedAccess{UserID: claims.Subject, ProductID: productID}, nil
}

func audienceMatches(aud []string, frontendURL string) bool {
	for _, a := range aud {
		if a == frontendURL {
			return true
		}
	}
	return false
}
