package crypto

import "encoding/base64"

// B64Encode is the single base64 alphabet used across the envelope (outer
// frame) and the key-fingerprint encoding (§3, §5): standard alphabet, with
// padding.
func B64Encode(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// B64Decode reverses B64Encode.
func B64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}
