package crypto

import (
	"crypto/sha256"

	"github.com/tjfoc/gmsm/sm2"
)

// FingerprintLen is the number of leading SHA-256 bytes kept as the public
// key fingerprint (§3): enough to disambiguate keys operationally without
// carrying a full 32-byte digest with every record.
const FingerprintLen = 20

// Fingerprint derives a short, stable identifier for an SM2 public key: the
// first FingerprintLen bytes of SHA-256(DER-encoded public key), base64
// encoded. The same public key always produces the same fingerprint,
// independent of when or where it is computed.
func Fingerprint(pub *sm2.PublicKey) (string, error) {
	der, err := EncodePublicKeyX509(pub)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(der)
	return B64Encode(sum[:FingerprintLen]), nil
}
