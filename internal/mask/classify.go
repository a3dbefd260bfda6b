package mask

import (
	"strings"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/maskrule"
)

// classifier carries the configuration needed to classify and redact a
// single (key, value) leaf the same way across every shape masker (§4.2.1
// step "value classifier", reused by the query-string, SQL, and key/value
// maskers).
type classifier struct {
	cfg *config.Config
}

func newClassifier(cfg *config.Config) *classifier {
	return &classifier{cfg: cfg}
}

// classifyValue applies the shared value classifier to a (key, value) pair.
// It returns the redacted form and true if the value was recognized and
// should be collected, or (v, false) if v should pass through unchanged.
func (c *classifier) classifyValue(key, v string) (string, bool) {
	if maskrule.IsEmptyLike(v) {
		return v, false
	}
	lowerKey := strings.ToLower(key)

	if c.cfg.IsSensitiveKey(lowerKey) {
		return c.redactByKeyFamily(lowerKey, v)
	}
	if c.cfg.IsTokenLikeKey(lowerKey) {
		opts := maskrule.EntropyOptions{
			Enabled:             c.cfg.HighEntropyEnabled,
			RequireMixedCharset: c.cfg.HighEntropyRequireMixedCharset,
			MinLength:           c.cfg.HighEntropyMinLength,
			MaxValueLength:      c.cfg.MaxValueLength,
			Threshold:           c.cfg.HighEntropyThreshold,
		}
		if maskrule.IsHighEntropyToken(v, opts) {
			return maskrule.MaskToken(v, c.cfg.TokenKeepPrefix, c.cfg.TokenKeepSuffix), true
		}
	}

	maxLen := c.cfg.MaxValueLength
	if maskrule.IsIDCard(v, maxLen) {
		return maskrule.MaskIDCard(v), true
	}
	if maskrule.IsMobile(v, maxLen) {
		return maskrule.MaskPhone(v), true
	}
	if maskrule.IsEmail(v, maxLen) {
		return maskrule.MaskEmail(v), true
	}
	if c.isStrictAddress(v) {
		return maskrule.MaskAddress(v), true
	}
	return v, false
}

func (c *classifier) isStrictAddress(v string) bool {
	return maskrule.IsStrictAddress(v, c.cfg.MaxValueLength, maskrule.AddressKeywords{
		RequireRegion: c.cfg.AddressRequireRegion,
		RequireDetail: c.cfg.AddressRequireDetail,
		Region:        c.cfg.AddressRegionWords,
		Detail:        c.cfg.AddressDetailWords,
		Exclude:       c.cfg.AddressExcludeWords,
	})
}

// redactByKeyFamily applies §4.2.1's key-family redaction map. lowerKey is
// assumed already lowercased. The bool return reports whether the value was
// actually changed; a sensitive "address" key whose value fails the strict
// address check is passed through untouched and must not be collected (§8:
// re-masking a masked message must not uncover new sensitive values).
func (c *classifier) redactByKeyFamily(lowerKey, v string) (string, bool) {
	switch {
	case strings.Contains(lowerKey, "password"), lowerKey == "pwd", lowerKey == "pass":
		return maskrule.MaskPassword(v), true
	case strings.Contains(lowerKey, "token"), strings.Contains(lowerKey, "secret"),
		strings.Contains(lowerKey, "apikey"), strings.Contains(lowerKey, "clientsecret"),
		lowerKey == "key":
		return maskrule.MaskToken(v, c.cfg.TokenKeepPrefix, c.cfg.TokenKeepSuffix), true
	case strings.Contains(lowerKey, "idcard"), strings.Contains(lowerKey, "cardnumber"):
		return maskrule.MaskIDCard(v), true
	case strings.Contains(lowerKey, "mobile"), strings.Contains(lowerKey, "phone"), strings.Contains(lowerKey, "tel"):
		return maskrule.MaskPhone(v), true
	case strings.Contains(lowerKey, "email"):
		return maskrule.MaskEmail(v), true
	case strings.Contains(lowerKey, "address"):
		if c.isStrictAddress(v) {
			return maskrule.MaskAddress(v), true
		}
		return v, false
	default:
		return "***", true
	}
}
