package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/tierhub/backend/internal/application/access"
	"github.com/tierhub/backend/internal/domain/catalog"
)

// ProductCatalog manages products
type ProductCatalog interface {
	List(ctx context.Context) ([]catalog.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*catalog.Product, error)
	Create(ctx context.Context, spec catalog.ProductSpec) (*catalog.Product, error)
	Update(ctx context.Context, id uuid.UUID, spec catalog.ProductSpec) (*catalog.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductAccessIssuer grants and redeems single-use product access tokens
type ProductAccessIssuer interface {
	Issue(ctx context.Context, userID string, productID uuid.UUID) (*access.IssuedToken, error)
	Verify(ctx context.Context, token string) (*access.VerifiedAccess, error)
}

// ProductHandler handles product catalog and product access requests
type ProductHandler struct {
	BaseHandler
	products ProductCatalog
	access   ProductAccessIssuer
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products ProductCatalog, tokens ProductAccessIssuer) *ProductHandler {
	return &ProductHandler{products: products, access: tokens}
}

// AccessTokenResponse is handed to the product frontend
//
//	@Description	Single-use product access token
type AccessTokenResponse struct {
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
	FrontendURL string    `json:"frontend_url" example:"https://translator.example.com"`
}

// VerifyTokenRequest carries a token presented by a product frontend
type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// VerifiedAccessResponse identifies the user a token was issued to
//
//	@Description	Identity behind a redeemed product access token
type VerifiedAccessResponse struct {
	UserID    string `json:"user_id" example:"user_2abc"`
	ProductID string `json:"product_id"`
}

// List godoc
//
//	@ID				listProducts
//	@Summary		List products
//	@Tags			products
//	@Produce		json
//	@Success		200	{object}	APIResponse[[]ProductResponse]
//	@Failure		500	{object}	ErrorResponse
//	@Router			/products [get]
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, toProductResponse(&products[i]))
	}
	h.Success(c, out)
}

// Get godoc
//
//	@ID				getProduct
//	@Summary		Get a product
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string	true	"Product ID"	format(uuid)
//	@Success		200	{object}	APIResponse[ProductResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/products/{id} [get]
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "product")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// Create godoc
//
//	@ID				createProduct
//	@Summary		Create a product
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ProductRequest	true	"Product"
//	@Success		201		{object}	APIResponse[ProductResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products [post]
func (h *ProductHandler) Create(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	product, err := h.products.Create(c.Request.Context(), req.toSpec())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toProductResponse(product))
}

// Update godoc
//
//	@ID				updateProduct
//	@Summary		Replace a product
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Product ID"	format(uuid)
//	@Param			request	body		ProductRequest	true	"Product"
//	@Success		200		{object}	APIResponse[ProductResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		403		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{id} [put]
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "product")
	if !ok {
		return
	}
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, req.toSpec())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toProductResponse(product))
}

// Delete godoc
//
//	@ID				deleteProduct
//	@Summary		Delete a product
//	@Tags			products
//	@Param			id	path	string	true	"Product ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{id} [delete]
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "product")
	if !ok {
		return
	}
	if err := h.products.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// IssueAccessToken godoc
//
//	@ID				issueProductAccessToken
//	@Summary		Get a product access token
//	@Description	Issue a five minute single-use token when the caller's active tier includes the product
//	@Tags			products
//	@Produce		json
//	@Param			id	path		string	true	"Product ID"	format(uuid)
//	@Success		200	{object}	APIResponse[AccessTokenResponse]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		401	{object}	ErrorResponse
//	@Failure		403	{object}	ErrorResponse	"Tier does not include the product"
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/products/{id}/access-token [post]
func (h *ProductHandler) IssueAccessToken(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}
	id, ok := h.uuidParam(c, "id", "product")
	if !ok {
		return
	}

	issued, err := h.access.Issue(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, AccessTokenResponse{
		Token:       issued.Token,
		ExpiresAt:   issued.ExpiresAt,
		FrontendURL: issued.FrontendURL,
	})
}

// VerifyAccessToken godoc
//
//	@ID				verifyProductAccessToken
//	@Summary		Redeem a product access token
//	@Description	Validate signature and expiry, then consume the token. A second redemption fails.
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyTokenRequest	true	"Token"
//	@Success		200		{object}	APIResponse[VerifiedAccessResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse	"Invalid, expired or replayed token"
//	@Router			/products/access-token/verify [post]
func (h *ProductHandler) VerifyAccessToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	verified, err := h.access.Verify(c.Request.Context(), req.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, VerifiedAccessResponse{
		UserID:    verified.UserID,
		ProductID: verified.ProductID.String(),
	})
}
