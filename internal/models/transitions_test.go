package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextPackageStatuses(t *testing.T) {
	assert.Equal(t, []string{PackageStatusAssigned}, NextPackageStatuses(PackageStatusPending))
	assert.Equal(t, []string{PackageStatusInDelivery}, NextPackageStatuses(PackageStatusAssigned))
	assert.Equal(t, []string{PackageStatusDelivered}, NextPackageStatuses(PackageStatusInDelivery))

	assert.Nil(t, NextPackageStatuses(PackageStatusDelivered))
	assert.Nil(t, NextPackageStatuses("unknown"))
}

func TestCanTransitionNotification(t *testing.T) {
	assert.True(t, CanTransitionNotification(NotificationStatusPending, NotificationStatusSent))
	assert.True(t, CanTransitionNotification(NotificationStatusPending, NotificationStatusFailed))
	assert.True(t, CanTransitionNotification(NotificationStatusPending, NotificationStatusCancelled))

	// terminal states never move again
	assert.False(t, CanTransitionNotification(NotificationStatusSent, NotificationStatusPending))
	assert.False(t, CanTransitionNotification(NotificationStatusFailed, NotificationStatusSent))
	assert.False(t, CanTransitionNotification(NotificationStatusCancelled, NotificationStatusSent))
	assert.False(t, CanTransitionNotification(NotificationStatusPending, "unknown"))
}

func TestValidOTPPurpose(t *testing.T) {
	for _, purpose := range []string{OTPPurposeRegistration, OTPPurposeLogin, OTPPurposePasswordReset, OTPPurposeDataUpdate} {
		assert.True(t, ValidOTPPurpose(purpose), purpose)
	}
	assert.False(t, ValidOTPPurpose("unknown"))
	assert.False(t, ValidOTPPurpose(""))
}
