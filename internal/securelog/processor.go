package securelog

import (
	"context"
	"strings"
	"time"

	"securelog-ecc/internal/config"
	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/envelope"
	"securelog-ecc/internal/keycache"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/mask"
	"securelog-ecc/internal/metrics"
	"securelog-ecc/internal/secerr"
)

// Result is the triple returned by Process (§6).
type Result struct {
	Masked      string
	SecureData  string // empty if no originals were collected or the envelope build failed
	Fingerprint string // empty unless SecureData is non-empty
}

// Processor implements §4.7: dispatch to the masking engine, and on a
// non-empty collection, build the envelope and attach the public-key
// fingerprint.
type Processor struct {
	cfg     *config.Config
	engine  *mask.Engine
	builder *envelope.Builder
	log     *logger.Logger
	met     *metrics.Metrics

	fingerprint string // computed once at construction (§3: cached on first use)
}

// New builds a Processor from cfg, constructing the key cache tracks and
// crypto façade pieces it needs. Returns a ConfigError if cfg's public key
// cannot be decoded.
func New(cfg *config.Config, log *logger.Logger, met *metrics.Metrics) (*Processor, error) {
	der, err := crypto.B64Decode(cfg.PublicKeyB64)
	if err != nil {
		return nil, &secerr.ConfigError{Reason: "ecc.public.key is not valid base64: " + err.Error()}
	}
	pub, err := crypto.DecodePublicKeyX509(der)
	if err != nil {
		return nil, &secerr.ConfigError{Reason: "ecc.public.key is not a valid X.509 SM2 public key: " + err.Error()}
	}
	pair := &crypto.SM2KeyPair{Public: pub}

	fp, err := crypto.Fingerprint(pub)
	if err != nil {
		return nil, &secerr.ConfigError{Reason: "failed to compute public key fingerprint: " + err.Error()}
	}

	sessionLog := logger.New("KEYCACHE", cfg.LogLevel)
	session, err := keycache.New("session", cfg.SessionCacheSize, cfg.SessionCacheBufferRatio, pair, sessionLog, met)
	if err != nil {
		return nil, err
	}
	system, err := keycache.New("system", cfg.SystemCacheSize, cfg.SystemCacheBufferRatio, pair, sessionLog, met)
	if err != nil {
		return nil, err
	}
	mgr := keycache.NewManager(session, system, cfg.SystemIDChangeIntervalMin)

	mode, err := crypto.ParseSm4Mode(cfg.SM4Transformation)
	if err != nil {
		return nil, &secerr.ConfigError{Reason: err.Error()}
	}

	return &Processor{
		cfg:         cfg,
		engine:      mask.NewEngine(cfg),
		builder:     envelope.NewBuilder(mgr, mode, logger.New("ENVELOPE", cfg.LogLevel), met),
		log:         logger.New("PROCESSOR", cfg.LogLevel),
		met:         met,
		fingerprint: fp,
	}, nil
}

// Process runs the full pipeline for one log message (§4.7). It never
// returns an error for malformed input; crypto or cache failures degrade to
// a masked-only Result rather than propagating.
func (p *Processor) Process(ctx context.Context, message string) Result {
	if p.met != nil {
		p.met.RecordsProcessed.Add(1)
	}
	if message == "" {
		if p.met != nil {
			p.met.RecordsEmpty.Add(1)
		}
		return Result{Masked: message}
	}

	maskStart := time.Now()
	masked, col, shape := p.engine.Mask(message)
	if p.met != nil {
		p.met.RecordMaskLatency(time.Since(maskStart))
		p.recordShape(shape)
	}
	if col.Empty() {
		return Result{Masked: masked}
	}
	if p.met != nil {
		p.met.ValuesCollected.Add(int64(col.Len()))
	}

	originalsJSON := encodeOriginals(col)
	trace := traceID(ctx, p.cfg.TraceIDContextKeys)

	envStart := time.Now()
	secureData, ok := p.builder.Build(originalsJSON, trace)
	if p.met != nil {
		p.met.RecordEnvelopeLatency(time.Since(envStart))
	}
	if !ok {
		if p.met != nil {
			p.met.EnvelopeDegraded.Add(1)
		}
		return Result{Masked: masked}
	}

	if p.met != nil {
		p.met.RecordsWithSecure.Add(1)
	}
	Set(ctx, p.cfg.SecureDataContextKey, secureData)
	Set(ctx, p.cfg.PublicKeyFingerprintKey, p.fingerprint)

	return Result{Masked: masked, SecureData: secureData, Fingerprint: p.fingerprint}
}

// recordShape increments the per-shape dispatch counter matching which
// masker handled the record (§4.3).
func (p *Processor) recordShape(shape mask.Shape) {
	switch shape {
	case mask.ShapeJSON:
		p.met.ShapeJSON.Add(1)
	case mask.ShapeSQL:
		p.met.ShapeSQL.Add(1)
	case mask.ShapeURLQuery:
		p.met.ShapeURLQuery.Add(1)
	case mask.ShapeQueryBare:
		p.met.ShapeQueryBare.Add(1)
	case mask.ShapeKeyValue:
		p.met.ShapeKeyValue.Add(1)
	case mask.ShapeFallback:
		p.met.ShapeFallback.Add(1)
	}
}

// encodeOriginals serializes the collector to a compact JSON object with
// both keys and values JSON-escaped, preserving collection order (§4.7
// step 4). A hand-written encoder is used instead of encoding/json because
// the ordering guarantee (insertion order, not sorted) is part of the
// round-trip invariant (§8) and Go's map-based json.Marshal cannot provide it.
func encodeOriginals(col *mask.Collector) []byte {
	var b strings.Builder
	b.WriteByte('{')
	for i, p := range col.Pairs() {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(jsonEscape(p.Path))
		b.WriteByte(':')
		b.WriteString(jsonEscape(p.Value))
	}
	b.WriteByte('}')
	return []byte(b.String())
}

func jsonEscape(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
