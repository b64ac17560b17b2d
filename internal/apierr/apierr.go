// Package apierr defines the closed set of error kinds the data-access layer
// returns. Callers match on Kind instead of sniffing error strings or codes.
package apierr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindLocked
	KindRateLimited
	KindAuth
	KindNetwork
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindLocked:
		return "locked"
	case KindRateLimited:
		return "rate_limited"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Error is the single error shape crossing service boundaries. Message is the
// user-facing Arabic text; Err carries the wrapped cause for logs.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

// KindOf extracts the kind from any error, classifying plain errors by their
// transport symptoms. Plain unknown errors stay KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}

	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Retryable reports whether a retry wrapper should attempt the call again.
// Validation, auth and lockout failures never get better on retry.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindAuth, KindLocked, KindConflict, KindNotFound, KindRateLimited:
		return false
	default:
		return true
	}
}

// HTTPStatus maps an error kind to the response status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindLocked:
		return http.StatusLocked
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindAuth:
		return http.StatusUnauthorized
	case KindNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage resolves the Arabic message shown to the beneficiary. Explicit
// messages on the error win; otherwise the kind's generic text is used.
func UserMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}

	switch KindOf(err) {
	case KindNetwork:
		return "حدث خطأ في الاتصال بالشبكة. يرجى التحقق من اتصالك بالإنترنت."
	case KindAuth:
		return "انتهت صلاحية الجلسة. يرجى تسجيل الدخول مرة أخرى."
	case KindNotFound:
		return "السجل المطلوب غير موجود"
	case KindLocked:
		return "الحساب مقفل مؤقتاً. يرجى المحاولة لاحقاً"
	case KindRateLimited:
		return "عدد كبير من المحاولات. يرجى الانتظار قبل المحاولة مرة أخرى"
	case KindValidation:
		return "البيانات المدخلة غير صحيحة"
	default:
		return "حدث خطأ غير متوقع. يرجى المحاولة مرة أخرى."
	}
}
