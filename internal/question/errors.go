package question

import "fmt"

// GenerationErrorKind names one normalized provider failure mode.
type GenerationErrorKind string

const (
	GenErrMalformedJSON    GenerationErrorKind = "malformed_json"
	GenErrSchemaValidation GenerationErrorKind = "schema_validation"
	GenErrRateLimited      GenerationErrorKind = "rate_limited"
	GenErrTimeout          GenerationErrorKind = "timed_out"
	GenErrUnauthenticated  GenerationErrorKind = "unauthenticated"
	GenErrUpstream         GenerationErrorKind = "upstream_error"
	GenErrUpstreamUnknown  GenerationErrorKind = "unknown_upstream_error"
	GenErrNoContent        GenerationErrorKind = "no_content"
)

// GenerationError is the single error value every provider-level failure is
// normalized into. Kind stays inspectable so callers can later handle, say,
// rate limits differently from auth failures; the provider's native error
// type never leaks past the client.
type GenerationError struct {
	Kind  GenerationErrorKind
	Cause string
	err   error
}

// NewGenerationError builds a normalized provider error. err may be nil
// when the failure has no underlying error (e.g. an empty choice list).
func NewGenerationError(kind GenerationErrorKind, cause string, err error) *GenerationError {
	return &GenerationError{Kind: kind, Cause: cause, err: err}
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed (%s): %s", e.Kind, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.err }
