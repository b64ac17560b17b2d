package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolate(t *testing.T) {
	out := Interpolate("مرحباً {{name}}، رمزك {{otp}}", map[string]string{
		"name": "أحمد",
		"otp":  "123456",
	})
	assert.Equal(t, "مرحباً أحمد، رمزك 123456", out)
}

func TestInterpolateLeavesUnknownPlaceholders(t *testing.T) {
	out := Interpolate("مرحباً {{name}}، رمزك {{otp}}", map[string]string{
		"name": "أحمد",
	})
	assert.Equal(t, "مرحباً أحمد، رمزك {{otp}}", out)
}

func TestInterpolateIgnoresExtraVariables(t *testing.T) {
	out := Interpolate("مرحباً {{name}}", map[string]string{
		"name":  "أحمد",
		"extra": "unused",
	})
	assert.Equal(t, "مرحباً أحمد", out)
}

func TestTemplateFor(t *testing.T) {
	types := []string{
		TypeTemporaryPassword,
		TypeOTPCode,
		TypePackageStatusChange,
		TypeIdentityApproved,
		TypeIdentityRejected,
		TypeReuploadRequired,
		TypeWelcomeRegistration,
	}
	for _, notificationType := range types {
		body, ok := TemplateFor(notificationType)
		assert.True(t, ok, notificationType)
		assert.Contains(t, body, "{{name}}", notificationType)
	}

	_, ok := TemplateFor("unknown_type")
	assert.False(t, ok)
}

func TestTemplatePlaceholders(t *testing.T) {
	assert.Contains(t, TemporaryPasswordTemplate(), "{{password}}")
	assert.Contains(t, OTPCodeTemplate(), "{{otp}}")
	assert.Contains(t, PackageStatusChangeTemplate(), "{{package_name}}")
	assert.Contains(t, PackageStatusChangeTemplate(), "{{new_status}}")
	assert.Contains(t, ReuploadRequiredTemplate(), "{{reason}}")
	assert.Contains(t, WelcomeRegistrationTemplate(), "{{support_phone}}")
}
