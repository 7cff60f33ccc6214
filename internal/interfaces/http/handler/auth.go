package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appidentity "github.com/tierhub/backend/internal/application/identity"
)

// IdentitySyncer creates or refreshes a local user from the identity provider
type IdentitySyncer interface {
	Sync(ctx context.Context, externalID string) (*appidentity.SyncResult, error)
}

// AuthHandler handles identity sync requests
type AuthHandler struct {
	BaseHandler
	users IdentitySyncer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users IdentitySyncer) *AuthHandler {
	return &AuthHandler{users: users}
}

// Sync godoc
//
//	@ID				syncIdentity
//	@Summary		Sync a user from the identity provider
//	@Description	Fetch the profile for clerk_id and create or refresh the local user. The first user ever synced becomes an administrator.
//	@Tags			auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		SyncRequest	true	"Identity to sync"
//	@Success		200		{object}	APIResponse[SyncResponse]	"Existing user refreshed"
//	@Success		201		{object}	APIResponse[SyncResponse]	"User created"
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		502		{object}	ErrorResponse
//	@Router			/auth/sync [post]
func (h *AuthHandler) Sync(c *gin.Context) {
	var req SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.users.Sync(c.Request.Context(), req.ClerkID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := SyncResponse{User: toUserResponse(result.User), Created: result.Created}
	if result.Created {
		h.Created(c, resp)
		return
	}
	h.Success(c, resp)
}
