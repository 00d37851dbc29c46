package dispatcher

// Error codes returned in ErrorDetail.Code.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeMethodNotFound  = "METHOD_NOT_FOUND"
	CodeUnknownView     = "UNKNOWN_VIEW"
	CodeUpstream        = "UPSTREAM_ERROR"
	CodeInternal        = "INTERNAL_ERROR"
)
