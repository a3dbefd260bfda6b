package envelope

import (
	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/keycache"
	"securelog-ecc/internal/logger"
	"securelog-ecc/internal/metrics"
)

// Builder implements §4.4: obtain a KeyInfo, generate an IV, SM4-encrypt
// the collected originals, pack the envelope. Any failure degrades to ("",
// false) rather than propagating an error — the caller MUST still emit the
// masked message (§4.4, §7).
type Builder struct {
	mgr  *keycache.Manager
	mode crypto.Sm4Mode
	log  *logger.Logger
	met  *metrics.Metrics
}

// NewBuilder returns a Builder that wraps SM4 keys via mgr and encrypts
// under the given SM4 mode.
func NewBuilder(mgr *keycache.Manager, mode crypto.Sm4Mode, log *logger.Logger, met *metrics.Metrics) *Builder {
	return &Builder{mgr: mgr, mode: mode, log: log, met: met}
}

// Build encrypts originalsJSON and packs a SECURE_DATA envelope (base64
// encoded), keyed by traceID when present (session track) or the current
// time-window identifier (system track). Returns ("", false) on any
// failure, per §4.4's "degrade to no envelope" contract.
func (b *Builder) Build(originalsJSON []byte, traceID string) (string, bool) {
	info, err := b.mgr.KeyFor(traceID)
	if err != nil {
		b.fail("key_cache", err)
		return "", false
	}

	iv, err := crypto.NewIV(b.mode)
	if err != nil {
		b.fail("generate_iv", err)
		return "", false
	}

	ciphertext, err := crypto.SM4Encrypt(b.mode, info.SM4Key, iv, originalsJSON)
	if err != nil {
		b.fail("sm4_encrypt", err)
		return "", false
	}

	return EncodeB64(Envelope{
		Version:       Version,
		SM2WrappedKey: info.SM2WrappedKey,
		IV:            iv,
		SM4Ciphertext: ciphertext,
	}), true
}

func (b *Builder) fail(op string, err error) {
	if b.met != nil {
		b.met.EnvelopeBuildFailures.Add(1)
	}
	if b.log != nil {
		b.log.Warnf("envelope_build", "degrading to no envelope: %s: %v", op, err)
	}
}
