package translator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"local trunk prefix", "050 123 4567", "+971501234567"},
		{"already international", "+971501234567", "+971501234567"},
		{"foreign plus kept", "+44 20 7946 0000", "+442079460000"},
		{"double zero prefix", "00971501234567", "+971501234567"},
		{"country code without plus", "971501234567", "+971501234567"},
		{"bare subscriber number", "501234567", "+971501234567"},
		{"tabs and newlines", "\t050\n1234567 ", "+971501234567"},
		{"empty", "   ", "+971"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizePhone(tt.raw, "971"))
		})
	}
}

func TestNormalizePhone_Idempotent(t *testing.T) {
	inputs := []string{"0501234567", "00447911123456", "971501234567", "501234567", "+1 212 555 0100", "", " \t "}

	for _, in := range inputs {
		once := NormalizePhone(in, "971")
		assert.Equal(t, once, NormalizePhone(once, "971"), in)
		assert.True(t, strings.HasPrefix(once, "+"), in)
	}
}

func TestNormalizePhone_BlankGetsCountryCode(t *testing.T) {
	assert.Equal(t, "+971", NormalizePhone("", "971"))
	assert.Equal(t, "+971", NormalizePhone(" \t ", "+971"))
}

func TestNormalizePhone_CountryCodeWithPlus(t *testing.T) {
	assert.Equal(t, "+966501234567", NormalizePhone("0501234567", "+966"))
}
