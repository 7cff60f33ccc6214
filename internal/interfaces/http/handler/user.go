package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	"github.com/tierhub/backend/internal/domain/identity"
)

// UserAccountService is the self-service surface of the identity service
type UserAccountService interface {
	GetMe(ctx context.Context, externalID string) (*appbilling.UserDetails, error)
	UpdateLanguage(ctx context.Context, externalID, language string) (*identity.User, error)
	RecordAPICall(ctx context.Context, externalID string) (*identity.User, error)
}

// UserHandler handles requests about the authenticated user
type UserHandler struct {
	BaseHandler
	users UserAccountService
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users UserAccountService) *UserHandler {
	return &UserHandler{users: users}
}

// GetMe godoc
//
//	@ID				getCurrentUser
//	@Summary		Get the current user
//	@Description	Return the user with its active subscription and tier, and stamp the last connection time
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	APIResponse[UserDetailsResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	details, err := h.users.GetMe(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserDetailsResponse(details))
}

// UpdateLanguage godoc
//
//	@ID				updateUserLanguage
//	@Summary		Change the interface language
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LanguageRequest	true	"Language, one of en, fr, es, de"
//	@Success		200		{object}	APIResponse[UserResponse]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Security		BearerAuth
//	@Router			/users/language [patch]
func (h *UserHandler) UpdateLanguage(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	var req LanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	user, err := h.users.UpdateLanguage(c.Request.Context(), userID, req.Language)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// RecordAPICall godoc
//
//	@ID				recordApiCall
//	@Summary		Consume one API call from the quota
//	@Description	Increment the caller's API call counter. Fails once the counter has reached the tier quota.
//	@Tags			users
//	@Produce		json
//	@Success		200	{object}	APIResponse[APICallResponse]
//	@Failure		401	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		429	{object}	ErrorResponse	"Quota exhausted"
//	@Security		BearerAuth
//	@Router			/users/me/api-calls [post]
func (h *UserHandler) RecordAPICall(c *gin.Context) {
	userID, ok := h.requireUser(c)
	if !ok {
		return
	}

	user, err := h.users.RecordAPICall(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, APICallResponse{
		APICallsCount:  user.APICallsCount,
		APIMaxCalls:    user.APIMaxCalls,
		RemainingCalls: user.RemainingCalls(),
	})
}
