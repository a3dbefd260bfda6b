// Package envelope packs and parses the versioned binary SECURE_DATA
// envelope (§3) and orchestrates the hybrid SM2/SM4 encryption of the
// collected sensitive-value record (§4.4).
package envelope

import (
	"encoding/binary"
	"fmt"

	"securelog-ecc/internal/crypto"
	"securelog-ecc/internal/secerr"
)

// Version is the only envelope format this package produces or accepts.
const Version byte = 2

// minHeaderLen is the fixed header size before the variable-length
// sm2-wrapped key, IV, and ciphertext (§3: version + sm2_key_len + iv_len).
const minHeaderLen = 1 + 4 + 1

// Envelope is the parsed form of a SECURE_DATA payload.
type Envelope struct {
	Version        byte
	SM2WrappedKey  []byte
	IV             []byte
	SM4Ciphertext  []byte
}

// Pack serializes an Envelope to its binary layout (§3), big-endian.
func Pack(e Envelope) []byte {
	buf := make([]byte, minHeaderLen+len(e.SM2WrappedKey)+len(e.IV)+len(e.SM4Ciphertext))
	buf[0] = Version
	binary.BigEndian.PutUint32(buf[1:5], uint32(len(e.SM2WrappedKey)))
	buf[5] = byte(len(e.IV))
	off := minHeaderLen
	off += copy(buf[off:], e.SM2WrappedKey)
	off += copy(buf[off:], e.IV)
	copy(buf[off:], e.SM4Ciphertext)
	return buf
}

// Parse reverses Pack, rejecting any version other than 2 and any length
// inconsistency (§3). raw is the binary envelope, NOT base64-decoded by
// this function — callers decode the outer base64 layer first.
func Parse(raw []byte) (Envelope, error) {
	if len(raw) < minHeaderLen {
		return Envelope{}, &secerr.InputError{Reason: fmt.Sprintf("envelope shorter than header (%d bytes)", len(raw))}
	}
	if raw[0] != Version {
		return Envelope{}, &secerr.InputError{Reason: fmt.Sprintf("unsupported envelope version %d", raw[0])}
	}
	l := binary.BigEndian.Uint32(raw[1:5])
	v := int(raw[5])

	keyStart := minHeaderLen
	keyEnd := keyStart + int(l)
	ivEnd := keyEnd + v
	if keyEnd < keyStart || ivEnd < keyEnd || ivEnd > len(raw) {
		return Envelope{}, &secerr.InputError{Reason: "envelope length fields exceed buffer bounds"}
	}

	return Envelope{
		Version:       raw[0],
		SM2WrappedKey: raw[keyStart:keyEnd],
		IV:            raw[keyEnd:ivEnd],
		SM4Ciphertext: raw[ivEnd:],
	}, nil
}

// EncodeB64 packs and base64-encodes an Envelope for emission as
// SECURE_DATA (§3: "the entire envelope is Base64-encoded for emission").
func EncodeB64(e Envelope) string {
	return crypto.B64Encode(Pack(e))
}

// DecodeB64 reverses EncodeB64.
func DecodeB64(s string) (Envelope, error) {
	raw, err := crypto.B64Decode(s)
	if err != nil {
		return Envelope{}, &secerr.InputError{Reason: fmt.Sprintf("not valid base64: %v", err)}
	}
	return Parse(raw)
}
