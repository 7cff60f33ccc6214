package handler

import "github.com/tierhub/backend/internal/interfaces/http/dto"

// The types below only describe response bodies for swag; handlers write
// dto.Response values.

// APIResponse is the success envelope with a typed data field
//
//	@Description	Success envelope
type APIResponse[T any] struct {
	Success bool           `json:"success" example:"true"`
	Data    T              `json:"data,omitempty"`
	Error   *dto.ErrorInfo `json:"error,omitempty"`
}

// ErrorResponse is the failure envelope
//
//	@Description	Error envelope; details lists rejected fields on VALIDATION_ERROR
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}

// MessageData is returned by operations that have no resource to show
//
//	@Description	Confirmation message
type MessageData struct {
	Message string `json:"message" example:"Subscription cancelled"`
}
