package types

import "errors"

// Error is the engine-wide error shape. Code is stable and machine-readable;
// Message is user-facing.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

// Error codes, grouped by the recovery policy applied to them.
const (
	// Recovered locally: one field degrades to absent / zero.
	ErrDecodeFailed    = "DECODE_FAILED"
	ErrNormalizeFailed = "NORMALIZE_FAILED"

	// Whole record dropped, caller sees one fewer entity.
	ErrMappingRejected = "MAPPING_REJECTED"

	// Surfaced verbatim, never retried.
	ErrUserRejected = "USER_REJECTED"

	// One bounded auto-remediation attempt, then surfaced.
	ErrTrustlineMissing = "TRUSTLINE_MISSING"

	// Terminal contract errors, never retried automatically.
	ErrNotDue              = "NOT_DUE"
	ErrInsufficientBalance = "INSUFFICIENT_BALANCE"
	ErrNotFound            = "NOT_FOUND"
	ErrInactive            = "INACTIVE"
	ErrInvalidParameters   = "INVALID_PARAMETERS"
	ErrNothingToWithdraw   = "NOTHING_TO_WITHDRAW"

	// The mutation may or may not have succeeded; the caller must not
	// assume either.
	ErrConfirmationTimeout = "CONFIRMATION_TIMEOUT"

	ErrSimulationFailed = "SIMULATION_FAILED"
	ErrSubmissionFailed = "SUBMISSION_FAILED"
	ErrNetworkError     = "NETWORK_ERROR"
	ErrConfigError      = "CONFIG_ERROR"

	// Signer capability gap: the wallet cannot sign authorization entries
	// individually. The fallback path proceeds without them.
	ErrAuthSigningUnsupported = "AUTH_SIGNING_UNSUPPORTED"
)

// NewError builds an *Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the engine error code from err, or empty when err is not
// an *Error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsUserRejected reports whether err is the user declining to sign. It is a
// cancellation, not a protocol error, and must never trigger the fallback
// signing path.
func IsUserRejected(err error) bool {
	return CodeOf(err) == ErrUserRejected
}

// IsTrustlineMissing reports whether err is the remediable missing asset
// acceptance condition.
func IsTrustlineMissing(err error) bool {
	return CodeOf(err) == ErrTrustlineMissing
}

// IsAuthSigningUnsupported reports whether the signer lacks per-entry
// authorization signing.
func IsAuthSigningUnsupported(err error) bool {
	return CodeOf(err) == ErrAuthSigningUnsupported
}

// Contract error codes as defined by the streamer contract, mapped onto the
// user-facing taxonomy.
var contractErrors = map[int64]*Error{
	1:  {Code: ErrInvalidParameters, Message: "contract already initialized"},
	2:  {Code: ErrInvalidParameters, Message: "invalid parameters"},
	3:  {Code: ErrInsufficientBalance, Message: "contract holds insufficient balance"},
	4:  {Code: ErrNotFound, Message: "stream not found"},
	5:  {Code: ErrInactive, Message: "stream is no longer active"},
	6:  {Code: ErrNothingToWithdraw, Message: "nothing to withdraw yet"},
	7:  {Code: ErrNotFound, Message: "subscription not found"},
	8:  {Code: ErrInactive, Message: "subscription is no longer active"},
	9:  {Code: ErrNotDue, Message: "subscription is not due yet"},
	10: {Code: ErrInsufficientBalance, Message: "subscription balance cannot cover this charge"},
	11: {Code: ErrConfigError, Message: "contract not initialized"},
}

// FromContractCode maps a numeric contract failure code to a typed error.
// Unknown codes surface as a generic submission failure.
func FromContractCode(code int64) *Error {
	if e, ok := contractErrors[code]; ok {
		return &Error{Code: e.Code, Message: e.Message, Data: code}
	}
	return &Error{Code: ErrSubmissionFailed, Message: "contract call failed", Data: code}
}
