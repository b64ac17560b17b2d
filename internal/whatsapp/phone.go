package whatsapp

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const countryPrefix = "+970"

var phonePattern = regexp.MustCompile(`^(?:\+970|0)?5[0-9]{8}$`)

func cleanPhone(phone string) string {
	return strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(phone)
}

// FormatPhoneNumber normalizes a Palestinian mobile number to +9705XXXXXXXX.
// Already-normalized input passes through unchanged; anything unrecognized is
// returned as given.
func FormatPhoneNumber(phone string) string {
	cleaned := cleanPhone(phone)

	switch {
	case strings.HasPrefix(cleaned, countryPrefix):
		return cleaned
	case strings.HasPrefix(cleaned, "970"):
		return "+" + cleaned
	case strings.HasPrefix(cleaned, "05"):
		return countryPrefix + cleaned[1:]
	case strings.HasPrefix(cleaned, "5"):
		return countryPrefix + cleaned
	}

	return phone
}

// ValidatePhoneNumber reports whether the input is a Palestinian mobile
// number in local or international form.
func ValidatePhoneNumber(phone string) bool {
	return phonePattern.MatchString(cleanPhone(phone))
}

// GenerateLink builds a wa.me deep link with the message prefilled.
// Spaces are escaped as %20; wa.me does not decode the form-encoding plus.
func GenerateLink(phone, message string) string {
	digits := strings.TrimPrefix(FormatPhoneNumber(phone), "+")
	encoded := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return fmt.Sprintf("https://wa.me/%s?text=%s", digits, encoded)
}
