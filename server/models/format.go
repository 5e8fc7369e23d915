package models

import "strings"

// NormalizeLogin is the canonical login-name form used on persist and
// on credential comparison: trimmed and lower-cased, which makes the
// uniqueness constraint case-insensitive end to end.
func NormalizeLogin(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizePhone re-masks raw input as `(DD) DDDDD-DDDD`, truncating
// extra digits. Partial input gets a partial mask, so the result is
// canonical at every keystroke. Idempotent.
func NormalizePhone(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) > 11 {
		digits = digits[:11]
	}

	if len(digits) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteByte('(')
	if len(digits) <= 2 {
		b.WriteString(digits)
		return b.String()
	}

	b.WriteString(digits[:2])
	b.WriteString(") ")
	if len(digits) <= 7 {
		b.WriteString(digits[2:])
		return b.String()
	}

	b.WriteString(digits[2:7])
	b.WriteByte('-')
	b.WriteString(digits[7:])
	return b.String()
}

// NormalizeCEP strips non-digits and inserts the hyphen after the 5th
// digit once the input runs past five digits. Idempotent.
func NormalizeCEP(raw string) string {
	digits := onlyDigits(raw)
	if len(digits) > 8 {
		digits = digits[:8]
	}

	if len(digits) <= 5 {
		return digits
	}

	return digits[:5] + "-" + digits[5:]
}

func onlyDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
