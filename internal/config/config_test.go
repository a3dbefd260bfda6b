package config

import (
	"testing"

	"securelog-ecc/internal/crypto"
)

func testPublicKeyB64(t *testing.T) string {
	t.Helper()
	pair, err := crypto.GenerateSM2KeyPair()
	if err != nil {
		t.Fatalf("GenerateSM2KeyPair: %v", err)
	}
	der, err := crypto.EncodePublicKeyX509(pair.Public)
	if err != nil {
		t.Fatalf("EncodePublicKeyX509: %v", err)
	}
	return crypto.B64Encode(der)
}

func TestLoad_MissingPublicKeyFails(t *testing.T) {
	if _, err := Load(); err == nil {
		t.Fatal("expected ConfigError for missing public key")
	}
}

func TestLoad_WithPublicKeyOption(t *testing.T) {
	cfg, err := Load(WithPublicKey(testPublicKeyB64(t)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SessionCacheSize != 30000 {
		t.Errorf("SessionCacheSize = %d, want 30000 default", cfg.SessionCacheSize)
	}
	if cfg.SM4Transformation != "SM4/GCM/NoPadding" {
		t.Errorf("SM4Transformation = %q, want default", cfg.SM4Transformation)
	}
}

func TestLoad_InvalidSM4Transformation(t *testing.T) {
	_, err := Load(WithPublicKey(testPublicKeyB64(t)), func(c *Config) {
		c.SM4Transformation = "SM4/DES/NoPadding"
	})
	if err == nil {
		t.Fatal("expected ConfigError for invalid sm4 transformation")
	}
}

func TestIsSensitiveKey(t *testing.T) {
	cfg, err := Load(WithPublicKey(testPublicKeyB64(t)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cases := []struct {
		key  string
		want bool
	}{
		{"password", true},
		{"PASSWORD", true},
		{"access_token", true},
		{"accesstoken", true},
		{"username", false},
	}
	for _, c := range cases {
		if got := cfg.IsSensitiveKey(c.key); got != c.want {
			t.Errorf("IsSensitiveKey(%q) = %v, want %v", c.key, got, c.want)
		}
	}
}

func TestIsTokenLikeKey(t *testing.T) {
	cfg, err := Load(WithPublicKey(testPublicKeyB64(t)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.IsTokenLikeKey("apiKey") {
		t.Error("expected apiKey to be token-like")
	}
	if cfg.IsTokenLikeKey("username") {
		t.Error("expected username to not be token-like")
	}
}

func TestSplitCSV(t *testing.T) {
	if got := splitCSV(""); got != nil {
		t.Errorf("splitCSV(empty) = %v, want nil", got)
	}
	got := splitCSV("a, b ,c")
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("splitCSV length = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("splitCSV[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
