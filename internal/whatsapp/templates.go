package whatsapp

import (
	"fmt"
	"strings"
)

// Notification types carried on queue rows
const (
	TypeTemporaryPassword   = "temporary_password"
	TypeOTPCode             = "otp_code"
	TypePackageStatusChange = "package_status_change"
	TypeIdentityApproved    = "identity_approved"
	TypeIdentityRejected    = "identity_rejected"
	TypeReuploadRequired    = "reupload_required"
	TypeWelcomeRegistration = "welcome_registration"
)

// Interpolate replaces {{key}} placeholders with variable values. Placeholders
// without a matching variable are left verbatim so a misdispatched message is
// visible instead of silently blank.
func Interpolate(template string, variables map[string]string) string {
	result := template
	for key, value := range variables {
		result = strings.ReplaceAll(result, fmt.Sprintf("{{%s}}", key), value)
	}
	return result
}

// Message templates sent to beneficiaries, in Arabic. Variables are
// interpolated at dispatch time so the queue stores template + variables,
// not the final text.

func TemporaryPasswordTemplate() string {
	return "مرحباً {{name}}،\n\nتم إنشاء كلمة مرور مؤقتة لحسابك:\n\n🔑 كلمة المرور: {{password}}\n\n⚠️ هذه الكلمة صالحة لمدة 24 ساعة فقط.\n\nيرجى استخدامها لتسجيل الدخول ثم قم بتغييرها إلى كلمة مرور جديدة.\n\nللدعم: {{support_phone}}"
}

func OTPCodeTemplate() string {
	return "مرحباً {{name}}،\n\nرمز التحقق الخاص بك هو:\n\n🔢 {{otp}}\n\n⏰ صالح لمدة 5 دقائق.\n\nللدعم: {{support_phone}}"
}

func PackageStatusChangeTemplate() string {
	return "مرحباً {{name}}،\n\nتم تحديث حالة طردك:\n\n📦 {{package_name}}\n📍 الحالة الجديدة: {{new_status}}\n\nللاستفسار يرجى التواصل معنا."
}

func IdentityApprovedTemplate() string {
	return "مرحباً {{name}}،\n\n✅ تم الموافقة على توثيق هويتك بنجاح!\n\nيمكنك الآن الوصول إلى جميع خدمات النظام من خلال بوابة المستفيدين.\n\nنتمنى لك تجربة موفقة."
}

func IdentityRejectedTemplate() string {
	return "مرحباً {{name}}،\n\n❌ نأسف لإبلاغك أن طلب التوثيق الخاص بك قد تم رفضه.\n\nيرجى التواصل مع الدعم للمزيد من المعلومات:\n{{support_phone}}"
}

func ReuploadRequiredTemplate() string {
	return "مرحباً {{name}}،\n\n📸 يُرجى إعادة رفع صور الهوية.\n\nالسبب: {{reason}}\n\nيمكنك إعادة الرفع من خلال بوابة المستفيدين.\n\nللدعم: {{support_phone}}"
}

func WelcomeRegistrationTemplate() string {
	return "مرحباً {{name}}،\n\n🎉 تم استلام طلب تسجيلك بنجاح!\n\nطلبك الآن قيد المراجعة من قبل فريقنا. سنتواصل معك قريباً.\n\nللاستفسار: {{support_phone}}"
}

// TemplateFor returns the template body for a notification type
func TemplateFor(notificationType string) (string, bool) {
	switch notificationType {
	case TypeTemporaryPassword:
		return TemporaryPasswordTemplate(), true
	case TypeOTPCode:
		return OTPCodeTemplate(), true
	case TypePackageStatusChange:
		return PackageStatusChangeTemplate(), true
	case TypeIdentityApproved:
		return IdentityApprovedTemplate(), true
	case TypeIdentityRejected:
		return IdentityRejectedTemplate(), true
	case TypeReuploadRequired:
		return ReuploadRequiredTemplate(), true
	case TypeWelcomeRegistration:
		return WelcomeRegistrationTemplate(), true
	}
	return "", false
}
