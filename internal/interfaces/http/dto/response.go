package dto

// Response is the envelope of every JSON body the API writes
type Response struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorInfo `json:"error,omitempty"`
}

// ErrorInfo is the error half of the envelope. Code is one of the ErrCode
// constants or a domain error code.
type ErrorInfo struct {
	Code      string             `json:"code" example:"TIER_NOT_FOUND"`
	Message   string             `json:"message" example:"Tier not found"`
	RequestID string             `json:"request_id,omitempty" example:"4f1c2a9e0b7d4e21"`
	Details   []ValidationDetail `json:"details,omitempty"`
}

// ValidationDetail describes one rejected request field
type ValidationDetail struct {
	Field   string `json:"field" example:"tier_id"`
	Message string `json:"message" example:"This field is required"`
}

// NewSuccessResponse wraps data in a success envelope
func NewSuccessResponse(data any) Response {
	return Response{Success: true, Data: data}
}

// NewErrorResponseWithRequestID builds an error envelope; requestID is
// omitted from the body when empty
func NewErrorResponseWithRequestID(code, message, requestID string) Response {
	return Response{Error: &ErrorInfo{Code: code, Message: message, RequestID: requestID}}
}

// NewValidationErrorResponse builds a VALIDATION_ERROR envelope listing the
// rejected fields
func NewValidationErrorResponse(message, requestID string, details []ValidationDetail) Response {
	resp := NewErrorResponseWithRequestID(ErrCodeValidation, message, requestID)
	resp.Error.Details = details
	return resp
}
