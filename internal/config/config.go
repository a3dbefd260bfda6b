// Package config loads and holds all securelog-ecc configuration.
// Settings are layered: hard-coded defaults → embedded default resource →
// working-directory securelog-ecc.properties → programmatic overrides (last
// writer wins). The public key is the only setting with no usable default;
// its absence is a ConfigError raised once at load time.
package config

import (
	"embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/magiconair/properties"

	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/secerr"
)

//go:embed default.properties
var embeddedDefaults embed.FS

// Config is the immutable, fully-parsed view of every tunable consumed by
// the masking engine, envelope builder, key cache, and crypto façade.
type Config struct {
	PublicKeyB64          string
	CryptoProvider        string
	SM2CurveName          string
	SM2Transformation     string
	SM4Transformation     string

	SessionCacheSize          int
	SessionCacheBufferRatio   float64
	SystemCacheSize           int
	SystemCacheBufferRatio    float64
	SystemIDChangeIntervalMin int

	SecureDataContextKey       string
	PublicKeyFingerprintKey    string
	TraceIDContextKeys         []string

	SensitiveKeys map[string]bool
	TokenLikeKeys map[string]bool

	QueryStringEnabled bool
	FallbackEnabled    bool

	AddressRequireRegion bool
	AddressRequireDetail bool
	AddressRegionWords   []string
	AddressDetailWords   []string
	AddressExcludeWords  []string

	HighEntropyEnabled             bool
	HighEntropyRequireMixedCharset bool
	HighEntropyMinLength           int
	HighEntropyThreshold           float64

	TokenKeepPrefix int
	TokenKeepSuffix int
	MaxValueLength  int

	LogLevel string
}

// Option mutates a Config after layered loading, for programmatic overrides
// applied by the embedding process (e.g. tests, or a CLI flag).
type Option func(*Config)

// WithPublicKey overrides the configured SM2 public key.
func WithPublicKey(b64 string) Option {
	return func(c *Config) { c.PublicKeyB64 = b64 }
}

// WithLogLevel overrides the configured log level.
func WithLogLevel(level string) Option {
	return func(c *Config) { c.LogLevel = level }
}

// Load resolves configuration from defaults, the embedded resource, an
// optional securelog-ecc.properties in the working directory, then applies
// opts in order. Returns a ConfigError if the resulting configuration is
// unusable (missing public key, or an invalid cache size).
func Load(opts ...Option) (*Config, error) {
	cfg := defaults()

	if data, err := embeddedDefaults.ReadFile("default.properties"); err == nil {
		applyProperties(cfg, mustParseProperties(data))
	}

	if p, err := properties.LoadFile("securelog-ecc.properties", properties.UTF8); err == nil {
		applyProperties(cfg, p)
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func mustParseProperties(data []byte) *properties.Properties {
	p, err := properties.LoadString(string(data))
	if err != nil {
		return properties.NewProperties()
	}
	return p
}

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.PublicKeyB64) == "" {
		return &secerr.ConfigError{Reason: "ecc.public.key is required and was not set"}
	}
	if _, err := crypto.B64Decode(cfg.PublicKeyB64); err != nil {
		return &secerr.ConfigError{Reason: fmt.Sprintf("ecc.public.key is not valid base64: %v", err)}
	}
	if cfg.SessionCacheSize <= 0 {
		return &secerr.ConfigError{Reason: "ecc.session.key.cache.size must be > 0"}
	}
	if cfg.SystemCacheSize <= 0 {
		return &secerr.ConfigError{Reason: "ecc.system.key.cache.size must be > 0"}
	}
	if _, err := crypto.ParseSm4Mode(cfg.SM4Transformation); err != nil {
		return &secerr.ConfigError{Reason: fmt.Sprintf("ecc.sm4.cipher.transformation invalid: %v", err)}
	}
	return nil
}

func defaults() *Config {
	return &Config{
		CryptoProvider:    "BC",
		SM2CurveName:      "sm2p256v1",
		SM2Transformation: "SM2",
		SM4Transformation: "SM4/GCM/NoPadding",

		SessionCacheSize:          30000,
		SessionCacheBufferRatio:   0.05,
		SystemCacheSize:           1000,
		SystemCacheBufferRatio:    0.10,
		SystemIDChangeIntervalMin: 15,

		SecureDataContextKey:    "SECURE_DATA",
		PublicKeyFingerprintKey: "PUB_KEY_FINGERPRINT",
		TraceIDContextKeys: []string{
			"trace_id", "traceId", "requestId", "correlationId", "X-Trace-Code", "X-Trace-Id",
		},

		SensitiveKeys: normalizeKeySet([]string{
			"password", "pwd", "pass", "token", "access_token", "clientSecret",
			"secret", "apiKey", "idcard", "cardNumber", "jbrCardNumber",
			"mobile", "phone", "tel", "email", "address",
		}),
		TokenLikeKeys: normalizeKeySet([]string{
			"token", "access_token", "clientSecret", "secret", "apiKey", "key", "auth", "credential",
		}),

		QueryStringEnabled: true,
		FallbackEnabled:    true,

		AddressRequireRegion: true,
		AddressRequireDetail: true,
		AddressRegionWords:   []string{"省", "市", "区", "县"},
		AddressDetailWords:   []string{"街", "路", "道", "巷", "镇", "乡", "号", "院", "楼", "室"},
		AddressExcludeWords:  nil,

		HighEntropyEnabled:             true,
		HighEntropyRequireMixedCharset: true,
		HighEntropyMinLength:           20,
		HighEntropyThreshold:           3.5,

		TokenKeepPrefix: 4,
		TokenKeepSuffix: 4,
		MaxValueLength:  50,

		LogLevel: "info",
	}
}

// normalizeKeySet lowercases every entry and additionally stores its
// underscore-stripped alias, matching §3's "lowercased, underscore-stripped
// alias" rule for sensitive/token-like key matching.
func normalizeKeySet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys)*2)
	for _, k := range keys {
		lower := strings.ToLower(k)
		set[lower] = true
		set[strings.ReplaceAll(lower, "_", "")] = true
	}
	return set
}

func splitCSV(v string) []string {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func applyProperties(cfg *Config, p *properties.Properties) {
	str := func(key string, dst *string) {
		if v, ok := p.Get(key); ok {
			*dst = v
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := p.Get(key); ok {
			*dst = v == "true"
		}
	}
	intg := func(key string, dst *int) {
		if v, ok := p.Get(key); ok {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := p.Get(key); ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				*dst = f
			}
		}
	}
	csv := func(key string, dst *[]string) {
		if v, ok := p.Get(key); ok {
			*dst = splitCSV(v)
		}
	}
	keySet := func(key string, dst *map[string]bool) {
		if v, ok := p.Get(key); ok {
			*dst = normalizeKeySet(splitCSV(v))
		}
	}

	str("ecc.public.key", &cfg.PublicKeyB64)
	str("ecc.crypto.provider", &cfg.CryptoProvider)
	str("ecc.sm2.curve.name", &cfg.SM2CurveName)
	str("ecc.sm2.cipher.transformation", &cfg.SM2Transformation)
	str("ecc.sm4.cipher.transformation", &cfg.SM4Transformation)

	intg("ecc.session.key.cache.size", &cfg.SessionCacheSize)
	float("ecc.session.key.cache.buffer.percentage", &cfg.SessionCacheBufferRatio)
	intg("ecc.system.key.cache.size", &cfg.SystemCacheSize)
	float("ecc.system.key.cache.buffer.percentage", &cfg.SystemCacheBufferRatio)
	intg("ecc.system.id.change.interval.minutes", &cfg.SystemIDChangeIntervalMin)

	str("mdc.secure.data.key", &cfg.SecureDataContextKey)
	str("mdc.pub.key.fingerprint.key", &cfg.PublicKeyFingerprintKey)
	csv("mdc.trace.id.keys", &cfg.TraceIDContextKeys)

	keySet("ecc.masking.sensitive.keys", &cfg.SensitiveKeys)
	keySet("ecc.masking.tokenlike.keys", &cfg.TokenLikeKeys)

	boolean("ecc.masking.querystring.enabled", &cfg.QueryStringEnabled)
	boolean("ecc.masking.fallback.enabled", &cfg.FallbackEnabled)

	boolean("ecc.masking.address.require.region", &cfg.AddressRequireRegion)
	boolean("ecc.masking.address.require.detail", &cfg.AddressRequireDetail)
	csv("ecc.masking.address.region.keywords", &cfg.AddressRegionWords)
	csv("ecc.masking.address.detail.keywords", &cfg.AddressDetailWords)
	csv("ecc.masking.address.exclude.keywords", &cfg.AddressExcludeWords)

	boolean("ecc.masking.high.entropy.enabled", &cfg.HighEntropyEnabled)
	boolean("ecc.masking.high.entropy.require.upper.lower.digit", &cfg.HighEntropyRequireMixedCharset)
	intg("ecc.masking.high.entropy.min.length", &cfg.HighEntropyMinLength)
	float("ecc.masking.high.entropy.threshold", &cfg.HighEntropyThreshold)

	intg("ecc.masking.token.keep.prefix", &cfg.TokenKeepPrefix)
	intg("ecc.masking.token.keep.suffix", &cfg.TokenKeepSuffix)
	intg("ecc.masking.max.value.length", &cfg.MaxValueLength)

	str("log.level", &cfg.LogLevel)
}

// IsSensitiveKey reports whether k (already lowercased by the caller's
// normalization step) is in the sensitive-key set, checking both the exact
// and underscore-stripped forms.
func (c *Config) IsSensitiveKey(k string) bool {
	k = strings.ToLower(k)
	return c.SensitiveKeys[k] || c.SensitiveKeys[strings.ReplaceAll(k, "_", "")]
}

// IsTokenLikeKey reports whether k is in the token-like-key set.
func (c *Config) IsTokenLikeKey(k string) bool {
	k = strings.ToLower(k)
	return c.TokenLikeKeys[k] || c.TokenLikeKeys[strings.ReplaceAll(k, "_", "")]
}
