package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrderRequest  ErrorCode = 102
	ErrCodeInvalidAction        ErrorCode = 103
	ErrCodeUnsupportedSymbol    ErrorCode = 104
	ErrCodeInvalidVolume        ErrorCode = 105
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110

	// Signal feed errors (200-299)
	ErrCodeSignalParseFailed  ErrorCode = 200
	ErrCodeSignalSourceFailed ErrorCode = 201
	ErrCodeMissingColumn      ErrorCode = 202
	ErrCodeQueryFailed        ErrorCode = 203

	// Venue errors (500-599)
	ErrCodeOrderFailed        ErrorCode = 500
	ErrCodeGatewayUnavailable ErrorCode = 501
	ErrCodeQuoteUnavailable   ErrorCode = 502
	ErrCodeVenueRejected      ErrorCode = 503
	ErrCodeInvalidProvider    ErrorCode = 504
	ErrCodeVenueProtocol      ErrorCode = 505
)
