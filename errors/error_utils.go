// Package errors provides coded errors and helpers for categorizing block maker failures.
package errors

// IsLimitError determines if an error reports a resource budget violation (block size or sigops).
// These are expected during normal operation and the caller may retry with a smaller request.
func IsLimitError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_SIZE_LIMIT_EXCEEDED,
			ERR_SIGOP_LIMIT_EXCEEDED,
			ERR_THRESHOLD_EXCEEDED:
			return true
		}
	}

	return false
}

// IsContractError determines if an error was caused by the caller passing malformed input,
// such as an oversized payout script or both an extranonce and a work id.
//
// Parameters:
//   - err: Error to check
//
// Returns:
//   - bool: true if the caller should fix its input rather than retry
func IsContractError(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_INVALID_ARGUMENT,
			ERR_EXTRANONCE_INVALID,
			ERR_MUTATION_NOT_PERMITTED:
			return true
		}
	}

	return false
}

// IsTemplateExhausted determines if the template can no longer produce work and must be replaced.
func IsTemplateExhausted(err error) bool {
	if err == nil {
		return false
	}

	var tErr *Error
	if As(err, &tErr) {
		switch tErr.Code() {
		case ERR_TEMPLATE_EXPIRED,
			ERR_WORK_EXHAUSTED:
			return true
		}
	}

	return false
}
