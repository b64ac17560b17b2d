package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNationalID(t *testing.T) {
	assert.True(t, NationalID("123456789"))
	assert.True(t, NationalID(" 123 456 789 "))

	assert.False(t, NationalID("12345678"))
	assert.False(t, NationalID("1234567890"))
	assert.False(t, NationalID("12345678a"))
	assert.False(t, NationalID(""))
}

func TestPIN(t *testing.T) {
	assert.True(t, PIN("123456"))
	assert.True(t, PIN("000000"))

	assert.False(t, PIN("12345"))
	assert.False(t, PIN("1234567"))
	assert.False(t, PIN("12345a"))
	assert.False(t, PIN(""))
}

func TestPhoneNumber(t *testing.T) {
	valid := []string{
		"+970599505699",
		"0599505699",
		"599505699",
		"059-950-5699",
		"05 99 50 56 99",
	}
	for _, phone := range valid {
		assert.True(t, PhoneNumber(phone), phone)
	}

	invalid := []string{
		"",
		"+970499505699",
		"059950569",
		"05995056999",
		"abc",
	}
	for _, phone := range invalid {
		assert.False(t, PhoneNumber(phone), phone)
	}
}

func TestCleanNationalID(t *testing.T) {
	assert.Equal(t, "123456789", CleanNationalID(" 123 456 789 "))
	assert.Equal(t, "123456789", CleanNationalID("123456789"))
}
