// Package validate holds the pure format checks for portal identifiers.
package validate

import "strings"

// NationalID accepts exactly 9 digits after stripping whitespace
func NationalID(nationalID string) bool {
	cleaned := stripSpaces(nationalID)
	return isDigits(cleaned, 9)
}

// PIN accepts exactly 6 digits
func PIN(pin string) bool {
	return isDigits(pin, 6)
}

// PhoneNumber accepts Palestinian mobile numbers in local or international
// form: +970XXXXXXXXX, 970..., 05..., or 5...
func PhoneNumber(phone string) bool {
	cleaned := stripPhoneSeparators(phone)

	switch {
	case strings.HasPrefix(cleaned, "+970"):
		cleaned = cleaned[4:]
	case strings.HasPrefix(cleaned, "0"):
		cleaned = cleaned[1:]
	}

	return len(cleaned) == 9 && cleaned[0] == '5' && isDigits(cleaned, 9)
}

// CleanNationalID returns the national ID with whitespace removed
func CleanNationalID(nationalID string) string {
	return stripSpaces(nationalID)
}

func stripSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func stripPhoneSeparators(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case ' ', '-', '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isDigits(s string, length int) bool {
	if len(s) != length {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
