package envelope

import (
	"testing"

	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/keycache"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/metrics"
)

func newTestManager(t *testing.T) *keycache.Manager {
	t.Helper()
	pair, err := crypto.GenerateSM2KeyPair()
	if err != nil {
		t.Fatalf("GenerateSM2KeyPair: %v", err)
	}
	log := logger.New("KEYCACHE", "error")
	met := metrics.New()
	session, err := keycache.New("session", 100, 0.05, pair, log, met)
	if err != nil {
		t.Fatalf("keycache.New(session): %v", err)
	}
	system, err := keycache.New("system", 10, 0.1, pair, log, met)
	if err != nil {
		t.Fatalf("keycache.New(system): %v", err)
	}
	return keycache.NewManager(session, system, 15)
}

func TestBuilder_Build_RoundTripsViaPrivateKey(t *testing.T) {
	pair, err := crypto.GenerateSM2KeyPair()
	if err != nil {
		t.Fatalf("GenerateSM2KeyPair: %v", err)
	}
	log := logger.New("KEYCACHE", "error")
	met := metrics.New()
	session, err := keycache.New("session", 100, 0.05, pair, log, met)
	if err != nil {
		t.Fatalf("keycache.New: %v", err)
	}
	system, err := keycache.New("system", 10, 0.1, pair, log, met)
	if err != nil {
		t.Fatalf("keycache.New: %v", err)
	}
	mgr := keycache.NewManager(session, system, 15)

	b := NewBuilder(mgr, crypto.ModeGCM, log, met)
	originals := []byte(`{"password":"p@ssw0rd"}`)
	secureData, ok := b.Build(originals, "trace-123")
	if !ok {
		t.Fatal("expected Build to succeed")
	}

	env, err := DecodeB64(secureData)
	if err != nil {
		t.Fatalf("DecodeB64: %v", err)
	}
	sm4Key, err := crypto.SM2DecryptKey(pair.Private, env.SM2WrappedKey)
	if err != nil {
		t.Fatalf("SM2DecryptKey: %v", err)
	}
	plaintext, err := crypto.SM4Decrypt(crypto.ModeGCM, sm4Key, env.IV, env.SM4Ciphertext)
	if err != nil {
		t.Fatalf("SM4Decrypt: %v", err)
	}
	if string(plaintext) != string(originals) {
		t.Errorf("decrypted = %q, want %q", plaintext, originals)
	}
}

func TestBuilder_Build_SameTraceIDReusesKey(t *testing.T) {
	mgr := newTestManager(t)
	log := logger.New("KEYCACHE", "error")
	met := metrics.New()
	b := NewBuilder(mgr, crypto.ModeCBC, log, met)

	a, ok := b.Build([]byte("payload-a"), "trace-x")
	if !ok {
		t.Fatal("expected first Build to succeed")
	}
	envA, err := DecodeB64(a)
	if err != nil {
		t.Fatalf("DecodeB64: %v", err)
	}

	c, ok := b.Build([]byte("payload-b"), "trace-x")
	if !ok {
		t.Fatal("expected second Build to succeed")
	}
	envC, err := DecodeB64(c)
	if err != nil {
		t.Fatalf("DecodeB64: %v", err)
	}

	if string(envA.SM2WrappedKey) != string(envC.SM2WrappedKey) {
		t.Error("expected the same wrapped SM4 key for the same trace id")
	}
}
