package whatsapp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatPhoneNumber(t *testing.T) {
	cases := map[string]string{
		"+970599505699":  "+970599505699",
		"970599505699":   "+970599505699",
		"0599505699":     "+970599505699",
		"599505699":      "+970599505699",
		"05 99-50(56)99": "+970599505699",
	}
	for input, want := range cases {
		assert.Equal(t, want, FormatPhoneNumber(input), input)
	}
}

func TestFormatPhoneNumberIdempotent(t *testing.T) {
	once := FormatPhoneNumber("0599505699")
	assert.Equal(t, once, FormatPhoneNumber(once))
}

func TestFormatPhoneNumberUnrecognizedPassthrough(t *testing.T) {
	assert.Equal(t, "12345", FormatPhoneNumber("12345"))
	assert.Equal(t, "", FormatPhoneNumber(""))
}

func TestValidatePhoneNumber(t *testing.T) {
	assert.True(t, ValidatePhoneNumber("+970599505699"))
	assert.True(t, ValidatePhoneNumber("0599505699"))
	assert.True(t, ValidatePhoneNumber("599505699"))
	assert.True(t, ValidatePhoneNumber("059-950-5699"))

	assert.False(t, ValidatePhoneNumber("970599505699"))
	assert.False(t, ValidatePhoneNumber("0499505699"))
	assert.False(t, ValidatePhoneNumber("05995056"))
	assert.False(t, ValidatePhoneNumber(""))
}

func TestGenerateLink(t *testing.T) {
	link := GenerateLink("0599505699", "مرحبا بك")

	assert.Contains(t, link, "https://wa.me/970599505699?text=")
	// spaces must be %20, wa.me does not decode form-encoded plus
	assert.NotContains(t, link, "+")
	assert.Contains(t, link, "%20")
}
