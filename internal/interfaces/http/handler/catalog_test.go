package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tierhub/backend/internal/application/access"
	appcatalog "github.com/tierhub/backend/internal/application/catalog"
	"github.com/tierhub/backend/internal/domain/catalog"
)

func newTestProduct(t *testing.T) *catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(catalog.ProductSpec{Name: "Translator", FrontendURL: "https://translator.example.com"})
	require.NoError(t, err)
	return p
}

func TestTierHandler_List(t *testing.T) {
	free := newTestTier(t, true)
	pro := newTestTier(t, false)
	pro.SetProducts([]catalog.Product{*newTestProduct(t)})

	svc := new(mockTierService)
	svc.On("List", mock.Anything).Return([]catalog.Tier{*free, *pro}, nil)
	r := newTestRouter("")
	r.GET("/tiers", NewTierHandler(svc).List)

	w := doJSON(r, "GET", "/tiers", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData[[]TierResponse](t, w)
	require.Len(t, data, 2)
	assert.True(t, data[0].IsFree)
	assert.Equal(t, "free", data[0].BillingPeriod)
	assert.Empty(t, data[0].Products)
	assert.Equal(t, "price_pro", data[1].ExternalPriceID)
	require.Len(t, data[1].Products, 1)
	assert.Equal(t, "Translator", data[1].Products[0].Name)
}

func TestTierHandler_Create(t *testing.T) {
	productID := uuid.New()
	req := TierRequest{
		Name:            "Pro",
		PriceAmount:     1999,
		Currency:        "eur",
		BillingPeriod:   "monthly",
		Tokens:          5000,
		ExternalPriceID: "price_pro",
		Popular:         true,
		ProductIDs:      []uuid.UUID{productID},
	}

	t.Run("maps request to input", func(t *testing.T) {
		svc := new(mockTierService)
		svc.On("Create", mock.Anything, mock.MatchedBy(func(in appcatalog.TierInput) bool {
			return in.Name == "Pro" && in.PriceAmount == 1999 && in.BillingPeriod == catalog.BillingPeriodMonthly &&
				in.Popular && len(in.ProductIDs) == 1 && in.ProductIDs[0] == productID
		})).Return(newTestTier(t, false), nil)
		r := newTestRouter("admin_1")
		r.POST("/tiers", NewTierHandler(svc).Create)

		w := doJSON(r, "POST", "/tiers", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		svc.AssertExpectations(t)
	})

	t.Run("second free tier conflicts", func(t *testing.T) {
		svc := new(mockTierService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, catalog.ErrFreeTierExists)
		r := newTestRouter("admin_1")
		r.POST("/tiers", NewTierHandler(svc).Create)

		w := doJSON(r, "POST", "/tiers", TierRequest{Name: "Free 2", IsFree: true})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "FREE_TIER_EXISTS", decodeResponse(t, w).Error.Code)
	})

	t.Run("paid tier without price reference", func(t *testing.T) {
		svc := new(mockTierService)
		svc.On("Create", mock.Anything, mock.Anything).Return(nil, catalog.ErrPaidTierRequiresPrice)
		r := newTestRouter("admin_1")
		r.POST("/tiers", NewTierHandler(svc).Create)

		w := doJSON(r, "POST", "/tiers", TierRequest{Name: "Paid", PriceAmount: 500})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects bad billing period before the service", func(t *testing.T) {
		svc := new(mockTierService)
		r := newTestRouter("admin_1")
		r.POST("/tiers", NewTierHandler(svc).Create)

		w := doJSON(r, "POST", "/tiers", TierRequest{Name: "Weekly", BillingPeriod: "weekly"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestTierHandler_UpdateAndDelete(t *testing.T) {
	id := uuid.New()
	svc := new(mockTierService)
	svc.On("Update", mock.Anything, id, mock.Anything).Return(newTestTier(t, false), nil)
	svc.On("Delete", mock.Anything, id).Return(catalog.ErrTierInUse)
	h := NewTierHandler(svc)
	r := newTestRouter("admin_1")
	r.PUT("/tiers/:id", h.Update)
	r.DELETE("/tiers/:id", h.Delete)
	r.GET("/tiers/:id", h.Get)

	w := doJSON(r, "PUT", "/tiers/"+id.String(), TierRequest{Name: "Pro", ExternalPriceID: "price_pro"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, "DELETE", "/tiers/"+id.String(), nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "TIER_IN_USE", decodeResponse(t, w).Error.Code)

	w = doJSON(r, "GET", "/tiers/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_CRUD(t *testing.T) {
	product := newTestProduct(t)
	spec := catalog.ProductSpec{Name: "Translator", FrontendURL: "https://translator.example.com"}

	svc := new(mockProductService)
	svc.On("Create", mock.Anything, spec).Return(product, nil)
	svc.On("Get", mock.Anything, product.ID).Return(product, nil)
	missing := uuid.New()
	svc.On("Delete", mock.Anything, missing).Return(catalog.ErrProductNotFound)

	h := NewProductHandler(svc, new(mockAccessService))
	r := newTestRouter("admin_1")
	r.POST("/products", h.Create)
	r.GET("/products/:id", h.Get)
	r.DELETE("/products/:id", h.Delete)

	w := doJSON(r, "POST", "/products", ProductRequest{Name: "Translator", FrontendURL: "https://translator.example.com"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(r, "GET", "/products/"+product.ID.String(), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, product.ID.String(), decodeData[ProductResponse](t, w).ID)

	w = doJSON(r, "DELETE", "/products/"+missing.String(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(r, "POST", "/products", ProductRequest{Name: "Bad", FrontendURL: "not a url"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_AccessTokens(t *testing.T) {
	productID := uuid.New()
	expires := time.Now().Add(5 * time.Minute).UTC().Truncate(time.Second)

	tokens := new(mockAccessService)
	tokens.On("Issue", mock.Anything, "user_1", productID).
		Return(&access.IssuedToken{Token: "tok", ExpiresAt: expires, FrontendURL: "https://translator.example.com"}, nil)
	tokens.On("Verify", mock.Anything, "tok").Return(&access.VerifiedAccess{UserID: "user_1", ProductID: productID}, nil)
	tokens.On("Verify", mock.Anything, "replayed").Return(nil, access.ErrTokenInvalid)

	h := NewProductHandler(new(mockProductService), tokens)
	r := newTestRouter("user_1")
	r.POST("/products/:id/access-token", h.IssueAccessToken)
	r.POST("/products/access-token/verify", h.VerifyAccessToken)

	w := doJSON(r, "POST", "/products/"+productID.String()+"/access-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	issued := decodeData[AccessTokenResponse](t, w)
	assert.Equal(t, "tok", issued.Token)
	assert.True(t, expires.Equal(issued.ExpiresAt))

	w = doJSON(r, "POST", "/products/access-token/verify", VerifyTokenRequest{Token: "tok"})
	assert.Equal(t, http.StatusOK, w.Code)
	verified := decodeData[VerifiedAccessResponse](t, w)
	assert.Equal(t, "user_1", verified.UserID)
	assert.Equal(t, productID.String(), verified.ProductID)

	w = doJSON(r, "POST", "/products/access-token/verify", VerifyTokenRequest{Token: "replayed"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_ACCESS_TOKEN", decodeResponse(t, w).Error.Code)
}

func TestProductHandler_AccessDenied(t *testing.T) {
	productID := uuid.New()
	tokens := new(mockAccessService)
	tokens.On("Issue", mock.Anything, "user_1", productID).Return(nil, access.ErrAccessDenied)

	r := newTestRouter("user_1")
	r.POST("/products/:id/access-token", NewProductHandler(new(mockProductService), tokens).IssueAccessToken)

	w := doJSON(r, "POST", "/products/"+productID.String()+"/access-token", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "PRODUCT_ACCESS_DENIED", decodeResponse(t, w).Error.Code)
}
