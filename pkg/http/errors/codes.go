package errors

// Error codes for standardized error responses
const (
	// Validation errors
	ErrCodeInvalidRequest   = "invalid_request"
	ErrCodeValidationFailed = "validation_failed"

	// Generation errors
	ErrCodeGenerationFailed = "generation_failed"
	ErrCodeUpstreamError    = "upstream_error"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeStorageError  = "storage_error"
)
