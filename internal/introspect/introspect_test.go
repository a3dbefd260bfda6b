package introspect

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/metrics"
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

func TestHandleStatus_ReturnsConfigSummary(t *testing.T) {
	cfg := testConfig(t)
	srv := New(cfg, metrics.New(), logger.New("INTROSPECT", "error"))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if body["status"] != "running" {
		t.Errorf("status field = %v, want running", body["status"])
	}
	if body["sm4Transformation"] != cfg.SM4Transformation {
		t.Errorf("sm4Transformation = %v, want %v", body["sm4Transformation"], cfg.SM4Transformation)
	}
}

func TestHandleMetrics_ReturnsSnapshot(t *testing.T) {
	cfg := testConfig(t)
	met := metrics.New()
	met.RecordsProcessed.Add(3)
	srv := New(cfg, met, logger.New("INTROSPECT", "error"))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var snap metrics.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("unmarshal snapshot: %v", err)
	}
	if snap.Records.Processed != 3 {
		t.Errorf("Records.Processed = %d, want 3", snap.Records.Processed)
	}
}

func TestHandleMetrics_NilMetricsReturns503(t *testing.T) {
	cfg := testConfig(t)
	srv := New(cfg, nil, logger.New("INTROSPECT", "error"))

	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	srv.Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rr.Code)
	}
}
