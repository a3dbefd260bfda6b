package metrics

import (
	"testing"
	"time"
)

func TestNew_StartTimeSet(t *testing.T) {
	before := time.Now()
	m := New()
	after := time.Now()

	if m.startTime.Before(before) || m.startTime.After(after) {
		t.Errorf("startTime %v not in expected range [%v, %v]", m.startTime, before, after)
	}
}

func TestZeroValue_SnapshotSafe(t *testing.T) {
	var m Metrics
	s := m.Snapshot()
	if s.Records.Processed != 0 {
		t.Errorf("expected 0 processed records, got %d", s.Records.Processed)
	}
}

func TestRecordCounters(t *testing.T) {
	m := New()
	m.RecordsProcessed.Add(10)
	m.RecordsWithSecure.Add(7)
	m.RecordsEmpty.Add(2)

	s := m.Snapshot()
	if s.Records.Processed != 10 {
		t.Errorf("Processed: got %d, want 10", s.Records.Processed)
	}
	if s.Records.WithSecure != 7 {
		t.Errorf("WithSecure: got %d, want 7", s.Records.WithSecure)
	}
	if s.Records.Empty != 2 {
		t.Errorf("Empty: got %d, want 2", s.Records.Empty)
	}
}

func TestShapeCounters(t *testing.T) {
	m := New()
	m.ShapeJSON.Add(3)
	m.ShapeSQL.Add(2)
	m.ShapeFallback.Add(1)

	s := m.Snapshot()
	if s.Shapes.JSON != 3 {
		t.Errorf("JSON: got %d, want 3", s.Shapes.JSON)
	}
	if s.Shapes.SQL != 2 {
		t.Errorf("SQL: got %d, want 2", s.Shapes.SQL)
	}
	if s.Shapes.Fallback != 1 {
		t.Errorf("Fallback: got %d, want 1", s.Shapes.Fallback)
	}
}

func TestCacheCounters(t *testing.T) {
	m := New()
	m.SessionCacheHits.Add(5)
	m.SessionCacheMisses.Add(1)
	m.SystemCacheHits.Add(2)
	m.SystemCacheMisses.Add(1)
	m.SingleFlightShared.Add(4)

	s := m.Snapshot()
	if s.Cache.SessionHits != 5 {
		t.Errorf("SessionHits: got %d, want 5", s.Cache.SessionHits)
	}
	if s.Cache.SystemMisses != 1 {
		t.Errorf("SystemMisses: got %d, want 1", s.Cache.SystemMisses)
	}
	if s.Cache.SingleFlightShared != 4 {
		t.Errorf("SingleFlightShared: got %d, want 4", s.Cache.SingleFlightShared)
	}
}

func TestEnvelopeCounters(t *testing.T) {
	m := New()
	m.EnvelopeBuildFailures.Add(2)
	m.EnvelopeDegraded.Add(1)

	s := m.Snapshot()
	if s.Envelope.BuildFailures != 2 {
		t.Errorf("BuildFailures: got %d, want 2", s.Envelope.BuildFailures)
	}
	if s.Envelope.Degraded != 1 {
		t.Errorf("Degraded: got %d, want 1", s.Envelope.Degraded)
	}
}

func TestRecordMaskLatency_SingleSample(t *testing.T) {
	m := New()
	m.RecordMaskLatency(100 * time.Millisecond)

	s := m.Snapshot()
	if s.Latency.MaskMs.Count != 1 {
		t.Errorf("Count: got %d, want 1", s.Latency.MaskMs.Count)
	}
	if s.Latency.MaskMs.MinMs < 90 || s.Latency.MaskMs.MinMs > 110 {
		t.Errorf("MinMs: got %f, want ~100", s.Latency.MaskMs.MinMs)
	}
}

func TestRecordEnvelopeLatency_MinMaxMean(t *testing.T) {
	m := New()
	m.RecordEnvelopeLatency(50 * time.Millisecond)
	m.RecordEnvelopeLatency(150 * time.Millisecond)
	m.RecordEnvelopeLatency(100 * time.Millisecond)

	s := m.Snapshot()
	ls := s.Latency.EnvelopeMs
	if ls.Count != 3 {
		t.Errorf("Count: got %d, want 3", ls.Count)
	}
	if ls.MinMs > 60 {
		t.Errorf("MinMs too high: %f", ls.MinMs)
	}
	if ls.MaxMs < 140 {
		t.Errorf("MaxMs too low: %f", ls.MaxMs)
	}
	if ls.MeanMs < 90 || ls.MeanMs > 110 {
		t.Errorf("MeanMs: got %f, want ~100", ls.MeanMs)
	}
}

func TestSnapshotLatency_EmptyIsZeroValue(t *testing.T) {
	m := New()
	s := m.Snapshot()
	if s.Latency.MaskMs.Count != 0 {
		t.Errorf("empty mask latency count should be 0")
	}
	if s.Latency.EnvelopeMs.Count != 0 {
		t.Errorf("empty envelope latency count should be 0")
	}
}

func TestSnapshot_UptimePositive(t *testing.T) {
	m := New()
	time.Sleep(5 * time.Millisecond)
	s := m.Snapshot()
	if s.UptimeSecs <= 0 {
		t.Errorf("UptimeSecs should be positive, got %f", s.UptimeSecs)
	}
}

func TestRound2(t *testing.T) {
	cases := []struct {
		input float64
		want  float64
	}{
		{1.236, 1.24},
		{1.234, 1.23},
		{100.0, 100.0},
		{0.0, 0.0},
	}
	for _, c := range cases {
		got := round2(c.input)
		if got != c.want {
			t.Errorf("round2(%f) = %f, want %f", c.input, got, c.want)
		}
	}
}

func TestLatencyStats_Record(t *testing.T) {
	var s latencyStats
	s.record(10)
	s.record(20)
	s.record(15)

	snap := s.snapshot()
	if snap.Count != 3 {
		t.Errorf("Count: got %d, want 3", snap.Count)
	}
	if snap.MinMs != 10 {
		t.Errorf("MinMs: got %f, want 10", snap.MinMs)
	}
	if snap.MaxMs != 20 {
		t.Errorf("MaxMs: got %f, want 20", snap.MaxMs)
	}
	if snap.MeanMs != 15 {
		t.Errorf("MeanMs: got %f, want 15", snap.MeanMs)
	}
}

func TestLatencyStats_Empty(t *testing.T) {
	var s latencyStats
	snap := s.snapshot()
	if snap.Count != 0 || snap.MinMs != 0 || snap.MaxMs != 0 || snap.MeanMs != 0 {
		t.Errorf("empty stats snapshot should be zero, got %+v", snap)
	}
}
