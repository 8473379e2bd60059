package apperror

const (
	// Client errors (4xx)
	CodeInvalidInput         = "VALIDATION_ERROR"
	CodeUnauthorized         = "UNAUTHORIZED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeConflict             = "CONFLICT"
	CodeInvalidState         = "INVALID_STATE"
	CodeDuplicateCommission  = "DUPLICATE_COMMISSION"
	CodeAmountExceedsPending = "AMOUNT_EXCEEDS_PENDING"
	CodeInvalidCalculation   = "INVALID_CALCULATION"

	// Server errors (5xx)
	CodeInternalError      = "INTERNAL_ERROR"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)
