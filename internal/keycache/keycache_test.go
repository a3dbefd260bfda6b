package keycache

import (
	"fmt"
	"sync"
	"testing"

	"go.uber.org/goleak"

	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/metrics"
)

func testKeyPair(t *testing.T) *crypto.SM2KeyPair {
	t.Helper()
	pair, err := crypto.GenerateSM2KeyPair()
	if err != nil {
		t.Fatalf("GenerateSM2KeyPair: %v", err)
	}
	return pair
}

func newTestCache(t *testing.T, capacity int, bufferRatio float64) *Cache {
	t.Helper()
	c, err := New("test", capacity, bufferRatio, testKeyPair(t), logger.New("KEYCACHE", "error"), metrics.New())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestGetOrCreate_MissThenHitSameKeyInfo(t *testing.T) {
	t.Parallel()
	c := newTestCache(t, 10, 0.1)

	a, err := c.GetOrCreate("trace-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	b, err := c.GetOrCreate("trace-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if &a.SM4Key[0] != &b.SM4Key[0] {
		t.Error("expected the same KeyInfo on repeat lookup for the same cache key")
	}
}

func TestGetOrCreate_DistinctKeysDistinctKeyInfo(t *testing.T) {
	t.Parallel()
	c := newTestCache(t, 10, 0.1)

	a, err := c.GetOrCreate("trace-1")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	b, err := c.GetOrCreate("trace-2")
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if string(a.SM4Key) == string(b.SM4Key) {
		t.Error("expected distinct keys for distinct cache keys")
	}
}

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	_, err := New("test", 0, 0.1, testKeyPair(t), nil, nil)
	if err == nil {
		t.Fatal("expected InvariantError for capacity 0")
	}
}

func TestMaybeEvict_ConvergesToBufferTarget(t *testing.T) {
	t.Parallel()
	capacity := 20
	bufferRatio := 0.25
	c := newTestCache(t, capacity, bufferRatio)

	for i := 0; i < capacity+10; i++ {
		if _, err := c.GetOrCreate(fmt.Sprintf("trace-%d", i)); err != nil {
			t.Fatalf("GetOrCreate: %v", err)
		}
	}

	want := int(float64(capacity) * (1 - bufferRatio))
	if got := c.Size(); got > capacity || got < want-1 {
		t.Errorf("Size() = %d, want roughly %d (capacity %d)", got, want, capacity)
	}
}

func TestGetOrCreate_SingleFlightUnderConcurrency(t *testing.T) {
	defer goleak.VerifyNone(t)

	c := newTestCache(t, 1000, 0.1)
	const n = 64
	results := make([]*KeyInfo, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			info, err := c.GetOrCreate("shared-trace")
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
				return
			}
			results[i] = info
		}(i)
	}
	wg.Wait()

	first := results[0]
	for i, r := range results {
		if r == nil {
			t.Fatalf("result %d is nil", i)
		}
		if r != first {
			t.Errorf("result %d is a different KeyInfo pointer than result 0; expected single-flight to share one", i)
		}
	}
	if got := c.Size(); got != 1 {
		t.Errorf("Size() = %d, want 1 (one cache key inserted)", got)
	}
}
