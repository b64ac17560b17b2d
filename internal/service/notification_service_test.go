package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beneficiary-portal/internal/apierr"
	"beneficiary-portal/internal/config"
	"beneficiary-portal/internal/models"
	"beneficiary-portal/internal/whatsapp"
)

type notificationFixture struct {
	service     *NotificationService
	repo        *fakeNotificationRepo
	featureRepo *fakeFeatureRepo
}

func newNotificationFixture(cfg *config.Config) *notificationFixture {
	if cfg == nil {
		cfg = &config.Config{}
	}

	repo := newFakeNotificationRepo()
	featureRepo := newFakeFeatureRepo()
	features := NewFeatureService(featureRepo, &fakeSnapshotCache{}, cfg)

	return &notificationFixture{
		service:     NewNotificationService(repo, features, nil, cfg),
		repo:        repo,
		featureRepo: featureRepo,
	}
}

func enqueueOne(t *testing.T, f *notificationFixture) *models.WhatsAppNotification {
	t.Helper()

	err := f.service.Enqueue(context.Background(), &EnqueueRequest{
		BeneficiaryID:    "ben-1",
		NotificationType: whatsapp.TypeOTPCode,
		Phone:            "0599505699",
		Variables:        map[string]string{"name": "أحمد", "otp": "123456"},
	})
	require.NoError(t, err)
	require.Len(t, f.repo.order, 1)
	return f.repo.notifications[f.repo.order[0]]
}

func TestEnqueueStoresTemplateAndNormalizedPhone(t *testing.T) {
	f := newNotificationFixture(nil)
	n := enqueueOne(t, f)

	assert.Equal(t, models.NotificationStatusPending, n.Status)
	assert.Equal(t, "+970599505699", n.WhatsAppNumber)
	assert.Equal(t, whatsapp.OTPCodeTemplate(), n.MessageTemplate)
	// the queue stores template plus variables, not rendered text
	assert.Contains(t, n.MessageTemplate, "{{otp}}")
}

func TestEnqueueRejectsUnknownTypeAndBadPhone(t *testing.T) {
	f := newNotificationFixture(nil)
	ctx := context.Background()

	err := f.service.Enqueue(ctx, &EnqueueRequest{
		BeneficiaryID:    "ben-1",
		NotificationType: "nonsense",
		Phone:            "0599505699",
	})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))

	err = f.service.Enqueue(ctx, &EnqueueRequest{
		BeneficiaryID:    "ben-1",
		NotificationType: whatsapp.TypeOTPCode,
		Phone:            "12345",
	})
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestRenderMessageAndSendLink(t *testing.T) {
	f := newNotificationFixture(nil)
	n := enqueueOne(t, f)

	rendered := f.service.RenderMessage(n)
	assert.Contains(t, rendered, "أحمد")
	assert.Contains(t, rendered, "123456")
	assert.NotContains(t, rendered, "{{")

	link := f.service.SendLink(n)
	assert.Contains(t, link, "https://wa.me/970599505699?text=")
}

func TestNotificationTransitions(t *testing.T) {
	f := newNotificationFixture(nil)
	ctx := context.Background()
	n := enqueueOne(t, f)

	require.NoError(t, f.service.MarkSent(ctx, n.ID))
	assert.Equal(t, models.NotificationStatusSent, f.repo.notifications[n.ID].Status)
	assert.NotNil(t, f.repo.notifications[n.ID].SentAt)

	// terminal rows stay terminal
	err := f.service.Cancel(ctx, n.ID)
	assert.Equal(t, apierr.KindConflict, apierr.KindOf(err))
}

func TestMarkFailedBumpsRetryCount(t *testing.T) {
	f := newNotificationFixture(nil)
	ctx := context.Background()
	n := enqueueOne(t, f)

	require.NoError(t, f.service.MarkFailed(ctx, n.ID, "provider timeout"))

	stored := f.repo.notifications[n.ID]
	assert.Equal(t, models.NotificationStatusFailed, stored.Status)
	assert.Equal(t, "provider timeout", stored.ErrorMessage)
	assert.Equal(t, 1, stored.RetryCount)
}

func TestTransitionUnknownNotification(t *testing.T) {
	f := newNotificationFixture(nil)

	err := f.service.MarkSent(context.Background(), "missing")
	assert.Equal(t, apierr.KindNotFound, apierr.KindOf(err))
}

func TestSendViaAPIUnconfigured(t *testing.T) {
	f := newNotificationFixture(nil)
	n := enqueueOne(t, f)

	err := f.service.SendViaAPI(context.Background(), n)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestSendViaAPIStatusMapping(t *testing.T) {
	var gotAuth string
	status := http.StatusOK
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(status)
	}))
	defer server.Close()

	f := newNotificationFixture(&config.Config{
		WhatsApp: config.WhatsAppConfig{
			APIURL:       server.URL,
			APIKey:       "secret",
			SenderNumber: "+970590000000",
		},
	})
	n := enqueueOne(t, f)
	ctx := context.Background()

	require.NoError(t, f.service.SendViaAPI(ctx, n))
	assert.Equal(t, "Bearer secret", gotAuth)

	status = http.StatusInternalServerError
	err := f.service.SendViaAPI(ctx, n)
	assert.Equal(t, apierr.KindNetwork, apierr.KindOf(err))
	assert.True(t, apierr.Retryable(err))

	// a provider rejection is permanent; the dispatcher must not retry it
	status = http.StatusBadRequest
	err = f.service.SendViaAPI(ctx, n)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
	assert.False(t, apierr.Retryable(err))
}

func TestDispatchPendingRequiresAutoSend(t *testing.T) {
	f := newNotificationFixture(nil)

	_, err := f.service.DispatchPending(context.Background(), 10)
	assert.Equal(t, apierr.KindValidation, apierr.KindOf(err))
}

func TestDispatchPendingSendsQueuedRows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	f := newNotificationFixture(&config.Config{
		WhatsApp: config.WhatsAppConfig{
			APIURL:       server.URL,
			APIKey:       "secret",
			SenderNumber: "+970590000000",
		},
	})
	f.featureRepo.enable(models.FeatureWhatsAppAutoSend, nil)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, f.service.Enqueue(ctx, &EnqueueRequest{
			BeneficiaryID:    "ben-1",
			NotificationType: whatsapp.TypeOTPCode,
			Phone:            "0599505699",
			Variables:        map[string]string{"name": "أحمد", "otp": "123456"},
		}))
	}

	sent, err := f.service.DispatchPending(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)

	stats, err := f.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sent)
	assert.Zero(t, stats.Pending)
}
