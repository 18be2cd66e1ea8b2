package phone

import "strings"

// Normalize converts a phone number to canonical international form.
// Every character that is not a digit is stripped, a single leading "+"
// is preserved, and a missing "+" is prepended. Empty input normalizes
// to an empty string. The operation is idempotent.
func Normalize(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 1)

	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if digits == "" {
		return ""
	}

	return "+" + digits
}

// Mask hides all but the last four digits of a phone number, keeping it
// safe to write to logs. Numbers shorter than four digits are masked
// entirely.
func Mask(number string) string {
	digits := strings.TrimPrefix(Normalize(number), "+")
	if len(digits) <= 4 {
		return "****"
	}
	return "****" + digits[len(digits)-4:]
}

// MaskKey masks the identity portion of a rate-limit key. Phone-based
// keys ("phone:+15551234567") keep their namespace and last four digits
// ("phone:****4567"); any other key is returned unchanged, since IP-based
// keys carry no per-person secret.
func MaskKey(key string) string {
	number, ok := strings.CutPrefix(key, "phone:")
	if !ok {
		return key
	}
	return "phone:" + Mask(number)
}
