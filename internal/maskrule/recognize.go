// Package maskrule implements the value-shape recognizers and redaction
// formatters that every shape masker in internal/mask builds on.
//
// Each recognizer answers one question about a single already-extracted
// string value — "is this an ID card number", "is this an email" — with no
// knowledge of where the value came from (JSON leaf, query param, SQL
// parameter, …). Formatters turn a recognized value into its redacted form.
// Neither recognizers nor formatters ever raise: a string that doesn't fit
// the shape is simply reported as not matching.
package maskrule

import (
	"math"
	"regexp"
	"strings"
)

// DefaultMaxValueLength is used when a caller doesn't have a configured
// ecc.masking.max.value.length.
const DefaultMaxValueLength = 50

// IsEmptyLike reports whether v is null/empty/whitespace-only, or the
// literal "null" (case-insensitive) — values that are never collected or
// redacted regardless of shape.
func IsEmptyLike(v string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || strings.EqualFold(trimmed, "null")
}

// tooLong reports whether v exceeds maxLen; maxLen <= 0 disables the check.
func tooLong(v string, maxLen int) bool {
	if maxLen <= 0 {
		return false
	}
	return len([]rune(v)) > maxLen
}

var (
	idCardFullRe = regexp.MustCompile(`^\d{6}(?:18|19|20)\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])\d{3}[0-9Xx]$`)
	idCardScanRe = regexp.MustCompile(`\b\d{6}(?:18|19|20)\d{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12]\d|3[01])\d{3}[0-9Xx]\b`)

	mobileFullRe = regexp.MustCompile(`^(?:\+86|86-)?1\d{10}$`)
	mobileScanRe = regexp.MustCompile(`(?:\+86|86-)1\d{10}|\b1\d{10}\b`)

	emailFullRe = regexp.MustCompile(`(?i)^[A-Za-z0-9._%+\-]{1,64}@[A-Za-z0-9.\-]{1,255}\.[A-Za-z]{2,}$`)
	emailScanRe = regexp.MustCompile(`(?i)\b[A-Za-z0-9._%+\-]{1,64}@[A-Za-z0-9.\-]{1,255}\.[A-Za-z]{2,}\b`)

	uuidRe       = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
	hexBlockRe   = regexp.MustCompile(`^[0-9a-fA-F]{32}$|^[0-9a-fA-F]{40}$|^[0-9a-fA-F]{64}$`)
	userAgentRe  = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.\-]*/\d+(?:\.\d+){0,3}$`)
	dataURIRe    = regexp.MustCompile(`(?i)^data:image`)
	hasUpperRe   = regexp.MustCompile(`[A-Z]`)
	hasLowerRe   = regexp.MustCompile(`[a-z]`)
	hasDigitRe   = regexp.MustCompile(`[0-9]`)
	looksLikeURL = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.\-]*://`)
)

// IsIDCard reports whether v is a full-match 18-digit Chinese ID card number.
func IsIDCard(v string, maxValueLength int) bool {
	if IsEmptyLike(v) || tooLong(v, maxValueLength) {
		return false
	}
	return idCardFullRe.MatchString(v)
}

// FindIDCards returns the byte offsets of every free-text ID card match in
// text, honoring word boundaries (used by the plain-text fallback masker).
func FindIDCards(text string) [][]int { return idCardScanRe.FindAllStringIndex(text, -1) }

// IsMobile reports whether v is a full-match Chinese mobile number, with an
// optional +86/86- prefix.
func IsMobile(v string, maxValueLength int) bool {
	if IsEmptyLike(v) || tooLong(v, maxValueLength) {
		return false
	}
	return mobileFullRe.MatchString(v)
}

// FindMobiles returns the byte offsets of every free-text mobile number
// match in text.
func FindMobiles(text string) [][]int { return mobileScanRe.FindAllStringIndex(text, -1) }

// IsEmail reports whether v is a full-match RFC-lite email address.
func IsEmail(v string, maxValueLength int) bool {
	if IsEmptyLike(v) || tooLong(v, maxValueLength) {
		return false
	}
	return emailFullRe.MatchString(v)
}

// FindEmails returns the byte offsets of every free-text email match in text.
func FindEmails(text string) [][]int { return emailScanRe.FindAllStringIndex(text, -1) }

// AddressKeywords holds the three keyword sets that gate strict-address
// detection (spec §4.1). Any gate may be disabled independently.
type AddressKeywords struct {
	RequireRegion bool
	RequireDetail bool
	Region        []string
	Detail        []string
	Exclude       []string
}

func containsAny(v string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(v, k) {
			return true
		}
	}
	return false
}

// IsStrictAddress reports whether v passes the two-stage address gate: at
// least one region keyword AND at least one detail keyword (each gate
// skippable via configuration), AND no exclude keyword present.
func IsStrictAddress(v string, maxValueLength int, kw AddressKeywords) bool {
	if IsEmptyLike(v) || tooLong(v, maxValueLength) {
		return false
	}
	if kw.RequireRegion && !containsAny(v, kw.Region) {
		return false
	}
	if kw.RequireDetail && !containsAny(v, kw.Detail) {
		return false
	}
	if containsAny(v, kw.Exclude) {
		return false
	}
	return true
}

// EntropyOptions configures the high-entropy-token recognizer.
type EntropyOptions struct {
	Enabled            bool
	RequireMixedCharset bool
	MinLength          int
	MaxValueLength     int
	Threshold          float64 // Shannon entropy in bits; default 3.5
}

// ShannonEntropy returns the Shannon entropy, in bits, of the byte
// distribution of s.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	var counts [256]int
	for i := 0; i < len(s); i++ {
		counts[s[i]]++
	}
	n := float64(len(s))
	var entropy float64
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// IsHighEntropyToken reports whether v looks like an opaque high-entropy
// secret. Callers are responsible for checking that the surrounding key is
// in the token-like set before invoking this — the recognizer itself only
// looks at the value.
func IsHighEntropyToken(v string, opts EntropyOptions) bool {
	if !opts.Enabled || IsEmptyLike(v) {
		return false
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = 3.5
	}
	minLen := opts.MinLength
	if minLen <= 0 {
		minLen = 20
	}
	maxLen := opts.MaxValueLength
	if maxLen <= 0 {
		maxLen = DefaultMaxValueLength
	}

	n := len([]rune(v))
	if n < minLen || n > maxLen {
		return false
	}
	if looksLikeURL.MatchString(v) || dataURIRe.MatchString(v) || strings.Contains(strings.ToLower(v), "base64") {
		return false
	}
	if uuidRe.MatchString(v) || hexBlockRe.MatchString(v) || userAgentRe.MatchString(v) {
		return false
	}
	if opts.RequireMixedCharset {
		if !hasUpperRe.MatchString(v) || !hasLowerRe.MatchString(v) || !hasDigitRe.MatchString(v) {
			return false
		}
	}
	return ShannonEntropy(v) >= threshold
}
