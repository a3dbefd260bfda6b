package crypto

import (
	"crypto/rand"
	"fmt"

	"github.com/tjfoc/gmsm/sm2"
	"github.com/tjfoc/gmsm/x509"
)

// SM2KeyPair holds a generated SM2 key pair.
type SM2KeyPair struct {
	Public  *sm2.PublicKey
	Private *sm2.PrivateKey
}

// GenerateSM2KeyPair creates a new SM2 key pair over the standard curve.
func GenerateSM2KeyPair() (*SM2KeyPair, error) {
	priv, err := sm2.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("crypto: generate sm2 key: %w", err)
	}
	return &SM2KeyPair{Public: &priv.PublicKey, Private: priv}, nil
}

// SM2EncryptKey wraps an SM4 session/system key under an SM2 public key,
// returning the wrapped ciphertext that is embedded in the envelope's
// encrypted-key field (§3).
func SM2EncryptKey(pub *sm2.PublicKey, sm4Key []byte) ([]byte, error) {
	ct, err := sm2.Encrypt(pub, sm4Key, rand.Reader, sm2.C1C3C2)
	if err != nil {
		return nil, fmt.Errorf("crypto: sm2 encrypt: %w", err)
	}
	return ct, nil
}

// SM2DecryptKey recovers an SM4 key previously wrapped with SM2EncryptKey.
func SM2DecryptKey(priv *sm2.PrivateKey, wrapped []byte) ([]byte, error) {
	pt, err := sm2.Decrypt(priv, wrapped, sm2.C1C3C2)
	if err != nil {
		return nil, fmt.Errorf("crypto: sm2 decrypt: %w", err)
	}
	return pt, nil
}

// DecodePublicKeyX509 decodes a DER-encoded (not base64 — callers strip that
// layer first) SM2 public key, as produced by x509.MarshalSm2PublicKey.
func DecodePublicKeyX509(der []byte) (*sm2.PublicKey, error) {
	pub, err := x509.ParseSm2PublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse sm2 public key: %w", err)
	}
	return pub, nil
}

// EncodePublicKeyX509 encodes an SM2 public key to its DER (X.509
// SubjectPublicKeyInfo) representation.
func EncodePublicKeyX509(pub *sm2.PublicKey) ([]byte, error) {
	der, err := x509.MarshalSm2PublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("crypto: marshal sm2 public key: %w", err)
	}
	return der, nil
}

// DecodePrivateKeyX509 decodes a DER-encoded, unencrypted SM2 private key.
func DecodePrivateKeyX509(der []byte) (*sm2.PrivateKey, error) {
	priv, err := x509.ParsePKCS8UnecryptedPrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("crypto: parse sm2 private key: %w", err)
	}
	return priv, nil
}

// EncodePrivateKeyX509 encodes an SM2 private key to its unencrypted
// PKCS#8 DER representation, for local keygen-tool output only; it is
// never transmitted as part of an envelope.
func EncodePrivateKeyX509(priv *sm2.PrivateKey) ([]byte, error) {
	der, err := x509.MarshalPKCS8UnecryptedPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("crypto: marshal sm2 private key: %w", err)
	}
	return der, nil
}
