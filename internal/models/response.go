package models

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error codes carried in ErrorResponse.Code.
const (
	ErrCodeBadRequest        = 40000
	ErrCodeValidation        = 40001
	ErrCodeInvalidReference  = 40002
	ErrCodeTokenInvalid      = 40100
	ErrCodeTokenExpired      = 40101
	ErrCodeForbidden         = 40300
	ErrCodeNotFound          = 40400
	ErrCodeInvalidNavigation = 40401
	ErrCodeNumberingConflict = 40900
	ErrCodeAlreadyBookmarked = 40901
	ErrCodeInternal          = 50000
)
