package errno

import (
	"errors"
	"fmt"
)

// Errno defines the error code logic
type Errno struct {
	Code    int
	Message string
}

func (e Errno) Error() string {
	return e.Message
}

// WithMessage 返回同一错误码但使用自定义信息的错误
func (e Errno) WithMessage(msg string) error {
	return &Error{Errno: e, Cause: errors.New(msg)}
}

// Error carries an Errno kind together with the underlying cause.
// Error() returns the cause's message verbatim so callers can display it directly.
type Error struct {
	Errno
	Step  string
	Cause error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches on the error code, so errors.Is(err, errno.ErrUserRejected) works through wrapping.
func (e *Error) Is(target error) bool {
	switch t := target.(type) {
	case Errno:
		return t.Code == e.Code
	case *Error:
		return t.Code == e.Code
	}
	return false
}

// Wrap tags cause with kind. A nil cause yields an error whose message is the kind's message.
func Wrap(kind Errno, cause error) error {
	return &Error{Errno: kind, Cause: cause}
}

// New tags a formatted message with kind.
func New(kind Errno, format string, args ...interface{}) error {
	return &Error{Errno: kind, Cause: fmt.Errorf(format, args...)}
}

// StepFailed wraps cause as ChainStepFailed for the named step.
func StepFailed(step string, cause error) error {
	return &Error{Errno: ErrChainStepFailed, Step: step, Cause: cause}
}

// KindOf returns the outermost Errno kind carried by err.
func KindOf(err error) (Errno, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Errno, true
	}
	var bare Errno
	if errors.As(err, &bare) {
		return bare, true
	}
	return Errno{}, false
}

// Decode tries to convert an error to Errno
func Decode(err error) (int, string) {
	if err == nil {
		return OK.Code, OK.Message
	}

	switch typed := err.(type) {
	case *Error:
		return typed.Code, typed.Error()
	case *Errno:
		return typed.Code, typed.Message
	case Errno:
		return typed.Code, typed.Message
	default:
		if kind, ok := KindOf(err); ok {
			return kind.Code, err.Error()
		}
		return InternalServerError.Code, err.Error()
	}
}

// Common Errors
var (
	OK                  = Errno{Code: 0, Message: "Success"}
	InternalServerError = Errno{Code: 10001, Message: "Internal server error"}
	ErrBind             = Errno{Code: 10002, Message: "Error occurred while binding the request body to the struct"}
	ErrInvalidParam     = Errno{Code: 10003, Message: "Invalid parameter"}
	ErrDatabase         = Errno{Code: 10004, Message: "Database error"}
)

// Wallet Errors (30000+)
var (
	ErrInvalidAmount          = Errno{Code: 30101, Message: "Invalid amount"}
	ErrInvalidAddress         = Errno{Code: 30102, Message: "Invalid address"}
	ErrInvalidKeystore        = Errno{Code: 30103, Message: "Invalid keystore file"}
	ErrFeeQueryFailed         = Errno{Code: 30201, Message: "Failed to query step costs"}
	ErrSigningFailed          = Errno{Code: 30301, Message: "Signing failed"}
	ErrSignInFlight           = Errno{Code: 30302, Message: "Another signing request is already pending for this wallet"}
	ErrDeviceError            = Errno{Code: 30303, Message: "Hardware device communication failed"}
	ErrUserRejected           = Errno{Code: 30304, Message: "Transaction was rejected by the user"}
	ErrUnknownRelayEvent      = Errno{Code: 30305, Message: "Unknown relay event"}
	ErrSubmissionRejected     = Errno{Code: 30401, Message: "Transaction rejected by the network"}
	ErrRPC                    = Errno{Code: 30402, Message: "Network request failed"}
	ErrConfirmationTimeout    = Errno{Code: 30501, Message: "Timed out waiting for transaction confirmation"}
	ErrTransactionFailed      = Errno{Code: 30502, Message: "Transaction failed"}
	ErrChainStepFailed        = Errno{Code: 30601, Message: "Chained operation step failed"}
	ErrChainBusy              = Errno{Code: 30602, Message: "Chained operation is already running"}
	ErrStepNotRetryable       = Errno{Code: 30603, Message: "Step is not in an errored state"}
	ErrNoDelegations          = Errno{Code: 30701, Message: "No delegations to distribute votes to"}
	ErrDelegationExceedsStake = Errno{Code: 30702, Message: "Total delegation exceeds staked balance"}
	ErrNoSession              = Errno{Code: 30801, Message: "No wallet is unlocked"}
)
