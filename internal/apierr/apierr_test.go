package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindNotFound, KindOf(New(KindNotFound, "missing")))
	assert.Equal(t, KindNetwork, KindOf(context.DeadlineExceeded))

	wrapped := fmt.Errorf("loading record: %w", New(KindLocked, "locked"))
	assert.Equal(t, KindLocked, KindOf(wrapped))
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:  http.StatusBadRequest,
		KindNotFound:    http.StatusNotFound,
		KindConflict:    http.StatusConflict,
		KindLocked:      http.StatusLocked,
		KindRateLimited: http.StatusTooManyRequests,
		KindAuth:        http.StatusUnauthorized,
		KindNetwork:     http.StatusBadGateway,
		KindUnknown:     http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(New(kind, "")), kind.String())
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(errors.New("plain")))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(New(KindNetwork, "")))
	assert.True(t, Retryable(errors.New("plain")))

	for _, kind := range []Kind{KindValidation, KindAuth, KindLocked, KindConflict, KindNotFound, KindRateLimited} {
		assert.False(t, Retryable(New(kind, "")), kind.String())
	}
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "رقم الهوية غير موجود", UserMessage(New(KindNotFound, "رقم الهوية غير موجود")))

	// kind fallback when no explicit message is set
	assert.Equal(t, "الحساب مقفل مؤقتاً. يرجى المحاولة لاحقاً", UserMessage(Wrap(KindLocked, errors.New("db"))))
	assert.Equal(t, "حدث خطأ غير متوقع. يرجى المحاولة مرة أخرى.", UserMessage(errors.New("plain")))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("timeout")
	err := Wrap(KindNetwork, cause)
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "network")
}
