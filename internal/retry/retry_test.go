package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficiary-portal/internal/apierr"
)

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	result, err := Do(context.Background(), func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, WithDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, "ok", result)
	assert.Equal(t, 3, calls)
}

func TestDoStopsOnNonRetryableError(t *testing.T) {
	calls := 0
	authErr := apierr.New(apierr.KindAuth, "bad pin")
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, authErr
	}, WithDelay(time.Millisecond))

	assert.ErrorIs(t, err, authErr)
	assert.Equal(t, 1, calls)
}

func TestDoExhaustsBudget(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("still failing")
	}, WithMaxRetries(2), WithDelay(time.Millisecond))

	assert.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestDoAbortsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := Do(ctx, func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	}, WithDelay(time.Minute))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestDoCustomRetryIf(t *testing.T) {
	calls := 0
	_, err := Do(context.Background(), func(ctx context.Context) (int, error) {
		calls++
		return 0, errors.New("transient")
	}, WithDelay(time.Millisecond), WithRetryIf(func(err error) bool { return false }))

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestExec(t *testing.T) {
	calls := 0
	err := Exec(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 2 {
			return errors.New("transient")
		}
		return nil
	}, WithDelay(time.Millisecond))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}
