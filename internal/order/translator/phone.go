package translator

import (
	"strings"
	"unicode"
)

// NormalizePhone turns customer input into international form. It is idempotent:
// anything it returns starts with "+" and is returned unchanged on a second pass.
func NormalizePhone(raw, countryCode string) string {
	phone := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, raw)
	countryCode = strings.TrimPrefix(countryCode, "+")

	switch {
	case phone == "":
		return "+" + countryCode
	case strings.HasPrefix(phone, "+"):
		return phone
	case strings.HasPrefix(phone, "00"):
		return "+" + phone[2:]
	case countryCode != "" && strings.HasPrefix(phone, countryCode):
		return "+" + phone
	case strings.HasPrefix(phone, "0"):
		return "+" + countryCode + phone[1:]
	default:
		return "+" + countryCode + phone
	}
}
