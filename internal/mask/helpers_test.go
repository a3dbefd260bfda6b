package mask

import (
	"testing"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/crypto"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	pair, err := crypto.GenerateSM2KeyPair()
	if err != nil {
		t.Fatalf("GenerateSM2KeyPair: %v", err)
	}
	der, err := crypto.EncodePublicKeyX509(pair.Public)
	if err != nil {
		t.Fatalf("EncodePublicKeyX509: %v", err)
	}
	cfg, err := config.Load(config.WithPublicKey(crypto.B64Encode(der)))
	if err != nil {
		t.Fatalf("config.Load: %v", err)
	}
	return cfg
}
