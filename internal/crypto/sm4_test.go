package crypto

import (
	"bytes"
	"testing"
)

func TestSM4RoundTrip_AllModes(t *testing.T) {
	key, err := GenerateSM4Key()
	if err != nil {
		t.Fatalf("GenerateSM4Key: %v", err)
	}
	plaintext := []byte("the quick brown fox jumps over the lazy dog, 1234567890")

	modes := []Sm4Mode{ModeECB, ModeCBC, ModeCTR, ModeCFB, ModeOFB, ModeGCM}
	for _, mode := range modes {
		iv, err := NewIV(mode)
		if err != nil {
			t.Fatalf("NewIV(%v): %v", mode, err)
		}
		ct, err := SM4Encrypt(mode, key, iv, plaintext)
		if err != nil {
			t.Fatalf("SM4Encrypt(%v): %v", mode, err)
		}
		if bytes.Equal(ct, plaintext) {
			t.Errorf("SM4Encrypt(%v) returned plaintext unchanged", mode)
		}
		pt, err := SM4Decrypt(mode, key, iv, ct)
		if err != nil {
			t.Fatalf("SM4Decrypt(%v): %v", mode, err)
		}
		if !bytes.Equal(pt, plaintext) {
			t.Errorf("SM4Decrypt(%v) = %q, want %q", mode, pt, plaintext)
		}
	}
}

func TestSM4Encrypt_CBCWrongIVLen(t *testing.T) {
	key, _ := GenerateSM4Key()
	_, err := SM4Encrypt(ModeCBC, key, []byte("short"), []byte("data"))
	if err == nil {
		t.Error("expected error for short IV on CBC")
	}
}

func TestSM4Decrypt_GCMTamperedCiphertextFails(t *testing.T) {
	key, _ := GenerateSM4Key()
	iv, _ := NewIV(ModeGCM)
	ct, err := SM4Encrypt(ModeGCM, key, iv, []byte("secret payload"))
	if err != nil {
		t.Fatalf("SM4Encrypt: %v", err)
	}
	ct[0] ^= 0xFF
	if _, err := SM4Decrypt(ModeGCM, key, iv, ct); err == nil {
		t.Error("expected tamper detection to fail GCM decryption")
	}
}

func TestPKCS7Unpad_RejectsMalformed(t *testing.T) {
	if _, err := pkcs7Unpad([]byte{1, 2, 3, 0}, 16); err == nil {
		t.Error("expected error for padLen=0")
	}
	if _, err := pkcs7Unpad([]byte{1, 2, 3, 200}, 16); err == nil {
		t.Error("expected error for padLen > blockSize")
	}
}

func TestParseSm4Mode(t *testing.T) {
	cases := []struct {
		in   string
		want Sm4Mode
	}{
		{"SM4/GCM/NoPadding", ModeGCM},
		{"SM4/CBC/PKCS5Padding", ModeCBC},
		{"ecb", ModeECB},
	}
	for _, c := range cases {
		got, err := ParseSm4Mode(c.in)
		if err != nil {
			t.Fatalf("ParseSm4Mode(%q): %v", c.in, err)
		}
		if got != c.want {
			t.Errorf("ParseSm4Mode(%q) = %v, want %v", c.in, got, c.want)
		}
	}
	if _, err := ParseSm4Mode("SM4/DES/NoPadding"); err == nil {
		t.Error("expected error for unsupported mode")
	}
}

func TestModeFromIVLen(t *testing.T) {
	if _, err := ModeFromIVLen(16, ModeGCM); err == nil {
		t.Error("expected mismatch error for 16-byte iv against GCM")
	}
	got, err := ModeFromIVLen(12, ModeGCM)
	if err != nil || got != ModeGCM {
		t.Errorf("ModeFromIVLen(12, GCM) = %v, %v", got, err)
	}
}
