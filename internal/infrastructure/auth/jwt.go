package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/tierhub/backend/internal/infrastructure/config"
)

// NonceBytes is the entropy of a product access nonce
const NonceBytes = 32

// Common errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingSubject   = errors.New("missing subject in claims")
	ErrInvalidAudience  = errors.New("token audience mismatch")
)

// SessionClaims identifies the caller of the REST API. Subject is the external identity id.
type SessionClaims struct {
	jwt.RegisteredClaims
}

// ProductAccessClaims grant a single use of a product frontend
type ProductAccessClaims struct {
	jwt.RegisteredClaims
	ProductID string `json:"product_id"`
	Nonce     string `json:"nonce"`
}

// IssuedProductToken is a signed product access token with its nonce
type IssuedProductToken struct {
	Token     string
	Nonce     string
	ExpiresAt time.Time
}

// JWTService signs and validates session and product access tokens (HS256)
type JWTService struct {
	sessionSecret []byte
	productSecret []byte
	productTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewJWTService creates a new JWT service
func NewJWTService(cfg config.AuthConfig) *JWTService {
	productSecret := []byte(cfg.ProductAccessSecret)
	if cfg.ProductAccessSecret == "" {
		productSecret = []byte(cfg.SessionSecret)
	}
	ttl := cfg.ProductAccessTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &JWTService{
		sessionSecret: []byte(cfg.SessionSecret),
		productSecret: productSecret,
		productTTL:    ttl,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}
}

// ProductAccessTTL returns the lifetime of product access tokens
func (s *JWTService) ProductAccessTTL() time.Duration {
	return s.productTTL
}

// GenerateSessionToken signs a session token for an external identity id
func (s *JWTService) GenerateSessionToken(externalID string, ttl time.Duration) (string, error) {
	if externalID == "" {
		return "", ErrMissingSubject
	}
	now := s.now()
	claims := &SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   externalID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.sessionSecret)
}

// ValidateSessionToken validates a session token and returns its claims
func (s *JWTService) ValidateSessionToken(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(tokenString, claims, s.sessionSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	return claims, nil
}

// IssueProductAccessToken signs a short lived token bound to a product frontend
func (s *JWTService) IssueProductAccessToken(userID, productID, audience string) (*IssuedProductToken, error) {
	nonce, err := newNonce()
	if err != nil {
		return nil, err
	}
	now := s.now()
	expiresAt := now.Add(s.productTTL)
	claims := &ProductAccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ProductID: productID,
		Nonce:     nonce,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.productSecret)
	if err != nil {
		return nil, err
	}
	return &IssuedProductToken{Token: token, Nonce: nonce, ExpiresAt: expiresAt}, nil
}

// ParseProductAccessToken validates signature and expiry. The nonce is not consumed here.
func (s *JWTService) ParseProductAccessToken(tokenString string) (*ProductAccessClaims, error) {
	claims := &ProductAccessClaims{}
	if err := s.parse(tokenString, claims, s.productSecret); err != nil {
		return nil, err
	}
	if claims.Subject == "" {
		return nil, ErrMissingSubject
	}
	if claims.ProductID == "" || claims.Nonce == "" {
		return nil, ErrInvalidClaims
	}
	return claims, nil
}

func (s *JWTService) parse(tokenString string, claims jwt.Claims, secret []byte) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrTokenNotValidYet) {
			return ErrTokenNotYetValid
		}
		return ErrInvalidToken
	}
	if !token.Valid {
		return ErrInvalidClaims
	}
	return nil
}

func newNonce() (string, error) {
	buf := make([]byte, NonceBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
