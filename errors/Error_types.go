package errors

var (
	ErrUnknown                    = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument            = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrThresholdExceeded          = New(ERR_THRESHOLD_EXCEEDED, "threshold exceeded")
	ErrNotFound                   = New(ERR_NOT_FOUND, "not found")
	ErrProcessing                 = New(ERR_PROCESSING, "error processing")
	ErrConfiguration              = New(ERR_CONFIGURATION, "configuration error")
	ErrServiceUnavailable         = New(ERR_SERVICE_UNAVAILABLE, "service unavailable")
	ErrServiceError               = New(ERR_SERVICE_ERROR, "service error")
	ErrError                      = New(ERR_ERROR, "generic error")
	ErrBlockInvalid               = New(ERR_BLOCK_INVALID, "block invalid")
	ErrTxInvalid                  = New(ERR_TX_INVALID, "tx invalid")
	ErrCoinbaseMissingBlockHeight = New(ERR_COINBASE_MISSING_BLOCK_HEIGHT, "the coinbase signature script doesn't have the block height")
	ErrMutationNotPermitted       = New(ERR_MUTATION_NOT_PERMITTED, "template does not permit this mutation")
	ErrSizeLimit                  = New(ERR_SIZE_LIMIT_EXCEEDED, "size limit exceeded")
	ErrSigOpLimit                 = New(ERR_SIGOP_LIMIT_EXCEEDED, "sigop limit exceeded")
	ErrExtranonce                 = New(ERR_EXTRANONCE_INVALID, "invalid extranonce")
	ErrCoinbaseValueUnknown       = New(ERR_COINBASE_VALUE_UNKNOWN, "coinbase value unknown")
	ErrCoinbaseMissing            = New(ERR_COINBASE_MISSING, "template has no coinbase transaction")
	ErrTemplateExpired            = New(ERR_TEMPLATE_EXPIRED, "template expired")
	ErrWorkExhausted              = New(ERR_WORK_EXHAUSTED, "no work left in template")
	ErrHashFailed                 = New(ERR_HASH_FAILED, "hashing failed")
	ErrRuleUnsupported            = New(ERR_RULE_UNSUPPORTED, "unsupported rule")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewThresholdExceededError(message string, params ...interface{}) error {
	return New(ERR_THRESHOLD_EXCEEDED, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewServiceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_UNAVAILABLE, message, params...)
}

func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}

func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewBlockInvalidError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_INVALID, message, params...)
}
func NewTxInvalidError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID, message, params...)
}
func NewCoinbaseMissingBlockHeightError(message string, params ...interface{}) error {
	return New(ERR_COINBASE_MISSING_BLOCK_HEIGHT, message, params...)
}
func NewMutationNotPermittedError(message string, params ...interface{}) error {
	return New(ERR_MUTATION_NOT_PERMITTED, message, params...)
}
func NewSizeLimitError(message string, params ...interface{}) error {
	return New(ERR_SIZE_LIMIT_EXCEEDED, message, params...)
}
func NewSigOpLimitError(message string, params ...interface{}) error {
	return New(ERR_SIGOP_LIMIT_EXCEEDED, message, params...)
}
func NewExtranonceError(message string, params ...interface{}) error {
	return New(ERR_EXTRANONCE_INVALID, message, params...)
}
func NewCoinbaseValueUnknownError(message string, params ...interface{}) error {
	return New(ERR_COINBASE_VALUE_UNKNOWN, message, params...)
}
func NewCoinbaseMissingError(message string, params ...interface{}) error {
	return New(ERR_COINBASE_MISSING, message, params...)
}
func NewTemplateExpiredError(message string, params ...interface{}) error {
	return New(ERR_TEMPLATE_EXPIRED, message, params...)
}
func NewWorkExhaustedError(message string, params ...interface{}) error {
	return New(ERR_WORK_EXHAUSTED, message, params...)
}
func NewHashFailedError(message string, params ...interface{}) error {
	return New(ERR_HASH_FAILED, message, params...)
}
func NewRuleUnsupportedError(message string, params ...interface{}) error {
	return New(ERR_RULE_UNSUPPORTED, message, params...)
}
