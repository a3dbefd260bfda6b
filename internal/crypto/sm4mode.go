package crypto

import (
	"fmt"
	"strings"
)

// Sm4Mode identifies which block-cipher mode SM4 is run in. The mode also
// selects the IV policy (§3, §6): GCM takes a 12-byte nonce, the other
// chaining modes take a 16-byte IV, and ECB takes none.
type Sm4Mode int

// Supported SM4 modes, matching the ecc.sm4.cipher.transformation values.
const (
	ModeECB Sm4Mode = iota
	ModeCBC
	ModeCTR
	ModeCFB
	ModeOFB
	ModeGCM
)

// String returns the canonical transformation-style name for the mode.
func (m Sm4Mode) String() string {
	switch m {
	case ModeECB:
		return "SM4/ECB/PKCS5Padding"
	case ModeCBC:
		return "SM4/CBC/PKCS5Padding"
	case ModeCTR:
		return "SM4/CTR/NoPadding"
	case ModeCFB:
		return "SM4/CFB/NoPadding"
	case ModeOFB:
		return "SM4/OFB/NoPadding"
	case ModeGCM:
		return "SM4/GCM/NoPadding"
	default:
		return "unknown"
	}
}

// IVLen returns the expected IV length in bytes for the mode: 12 for GCM
// (the standard AEAD nonce size), 16 for the other chaining modes (the SM4
// block size), and 0 for ECB.
func (m Sm4Mode) IVLen() int {
	switch m {
	case ModeGCM:
		return 12
	case ModeECB:
		return 0
	default:
		return 16
	}
}

// ParseSm4Mode parses a transformation string such as "SM4/GCM/NoPadding"
// into a Sm4Mode. Matching is on the middle segment (or on the whole string
// when it contains no '/'), case-insensitive.
func ParseSm4Mode(transformation string) (Sm4Mode, error) {
	parts := strings.Split(transformation, "/")
	mode := transformation
	if len(parts) >= 2 {
		mode = parts[1]
	}
	switch strings.ToUpper(strings.TrimSpace(mode)) {
	case "ECB":
		return ModeECB, nil
	case "CBC":
		return ModeCBC, nil
	case "CTR":
		return ModeCTR, nil
	case "CFB":
		return ModeCFB, nil
	case "OFB":
		return ModeOFB, nil
	case "GCM":
		return ModeGCM, nil
	default:
		return 0, fmt.Errorf("crypto: unsupported sm4 transformation %q", transformation)
	}
}

// ModeFromIVLen checks an envelope's declared iv_len against the configured
// mode and returns that mode, or an error when the lengths disagree; used
// by the offline decrypter, which only has the envelope bytes to go on (§6: "Decoder must accept any SM4 mode whose IV length agrees
// with the envelope's declared iv_len"). GCM=12 is unambiguous; a 16-byte
// IV could be CBC, CTR, CFB, or OFB, so the decrypter is told the mode out
// of band (it's recorded in the auditor's own config, not the envelope).
func ModeFromIVLen(ivLen int, configured Sm4Mode) (Sm4Mode, error) {
	want := configured.IVLen()
	if ivLen != want {
		return 0, fmt.Errorf("crypto: envelope iv_len=%d does not match configured mode %s (want %d)", ivLen, configured, want)
	}
	return configured, nil
}
