package maskrule

import "strings"

// MaskIDCard redacts an ID card number: first 6 + "********" + last 4.
// Returns "***" if shorter than 10 runes.
func MaskIDCard(v string) string {
	r := []rune(v)
	if len(r) < 10 {
		return "***"
	}
	return string(r[:6]) + "********" + string(r[len(r)-4:])
}

// MaskPhone redacts a phone number by its digit shape:
//   - >= 11 digits starting with '1': first 3 + "****" + last 4
//   - >= 10 digits starting with '0': first 3 + "****" + last 4
//   - otherwise: first 2 + "***" + last 2
//   - fewer than 7 digits: "***"
func MaskPhone(v string) string {
	digits := make([]rune, 0, len(v))
	for _, c := range v {
		if c >= '0' && c <= '9' {
			digits = append(digits, c)
		}
	}
	n := len(digits)
	if n < 7 {
		return "***"
	}
	if n >= 11 && digits[0] == '1' {
		return string(digits[:3]) + "****" + string(digits[n-4:])
	}
	if n >= 10 && digits[0] == '0' {
		return string(digits[:3]) + "****" + string(digits[n-4:])
	}
	return string(digits[:2]) + "***" + string(digits[n-2:])
}

// MaskEmail redacts an email: first char of local + "***" + last char of
// local + "@" + domain. Returns "***" if there's no "@" or the local part
// is too short to take a distinct first and last character from.
func MaskEmail(v string) string {
	at := strings.IndexByte(v, '@')
	if at < 0 {
		return "***"
	}
	local := []rune(v[:at])
	domain := v[at:]
	if len(local) < 2 {
		return "***"
	}
	return string(local[0]) + "***" + string(local[len(local)-1]) + domain
}

// MaskAddress redacts an address: first 2 + "***" + last 2.
// Returns "***" if 4 runes or fewer.
func MaskAddress(v string) string {
	r := []rune(v)
	if len(r) <= 4 {
		return "***"
	}
	return string(r[:2]) + "***" + string(r[len(r)-2:])
}

// MaskPassword always returns "***", regardless of input.
func MaskPassword(string) string { return "***" }

// MaskToken keeps keepPrefix and keepSuffix characters around a "***"
// center, if the value is longer than their sum; otherwise "***".
func MaskToken(v string, keepPrefix, keepSuffix int) string {
	r := []rune(v)
	if keepPrefix < 0 {
		keepPrefix = 0
	}
	if keepSuffix < 0 {
		keepSuffix = 0
	}
	if len(r) <= keepPrefix+keepSuffix {
		return "***"
	}
	return string(r[:keepPrefix]) + "***" + string(r[len(r)-keepSuffix:])
}
