// Package securelog orchestrates the masking engine and envelope builder
// into the single process/clear_context contract the logging adapter calls
// per record (§4.7).
package securelog

import "context"

type contextKeyType struct{}

var contextKey = contextKeyType{}

// Bag is the ambient per-record context the logging adapter reads trace ids
// from and writes SECURE_DATA/fingerprint into (§9's "explicit Context
// parameter" choice for languages without a thread-local MDC). The adapter
// is responsible for creating one per record and threading it through
// context.Context; the core never reads or writes any global state.
type Bag struct {
	values map[string]string
}

// NewContext returns a context carrying a fresh, empty Bag.
func NewContext(parent context.Context) context.Context {
	return context.WithValue(parent, contextKey, &Bag{values: make(map[string]string)})
}

// bagFrom returns the Bag attached to ctx, or nil if none was attached via
// NewContext.
func bagFrom(ctx context.Context) *Bag {
	b, _ := ctx.Value(contextKey).(*Bag)
	return b
}

// Set writes a trace-id-lookup candidate (or any other ambient field) into
// ctx's Bag. A no-op if ctx carries no Bag.
func Set(ctx context.Context, key, value string) {
	if b := bagFrom(ctx); b != nil {
		b.values[key] = value
	}
}

// Get reads a field previously written with Set, or "" if absent.
func Get(ctx context.Context, key string) string {
	if b := bagFrom(ctx); b != nil {
		return b.values[key]
	}
	return ""
}

// ClearContext removes the secure-data and fingerprint fields the processor
// wrote into ctx's Bag after the caller has emitted them (§6's
// clear_context contract).
func ClearContext(ctx context.Context, secureDataKey, fingerprintKey string) {
	if b := bagFrom(ctx); b != nil {
		delete(b.values, secureDataKey)
		delete(b.values, fingerprintKey)
	}
}

// traceID reads the first non-empty value among keys, in order (§4.7 step 5).
func traceID(ctx context.Context, keys []string) string {
	for _, k := range keys {
		if v := Get(ctx, k); v != "" {
			return v
		}
	}
	return ""
}
