// Package response defines the JSON envelope every API endpoint returns.
package response

import "github.com/gin-gonic/gin"

// Error codes surfaced to clients.
const (
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInactiveUser       = "INACTIVE_USER"
	CodeNotFound           = "NOT_FOUND"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeConflict           = "CONFLICT"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
)

// Envelope is the uniform response shape: success with data, or an error
// with a stable code.
type Envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *ErrorDoc `json:"error,omitempty"`
}

// ErrorDoc carries the machine-readable code and human-readable message.
type ErrorDoc struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// OK writes a success envelope with the given status and data.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Data: data})
}

// Err writes an error envelope and stops further handlers.
func Err(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorDoc{Code: code, Message: message},
	})
}
