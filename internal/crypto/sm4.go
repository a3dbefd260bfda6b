package crypto

import (
	gocipher "crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/tjfoc/gmsm/sm4"
)

// SM4KeyLen is the fixed SM4 key size in bytes (128 bits).
const SM4KeyLen = 16

// GenerateSM4Key returns a fresh random 128-bit SM4 key.
func GenerateSM4Key() ([]byte, error) {
	key := make([]byte, SM4KeyLen)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("crypto: generate sm4 key: %w", err)
	}
	return key, nil
}

// NewIV returns a fresh random IV of the correct length for mode (empty for
// ECB, which takes no IV).
func NewIV(mode Sm4Mode) ([]byte, error) {
	n := mode.IVLen()
	if n == 0 {
		return nil, nil
	}
	iv := make([]byte, n)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("crypto: generate iv: %w", err)
	}
	return iv, nil
}

// pkcs7Pad pads data to a multiple of blockSize using PKCS#7.
func pkcs7Pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+padLen)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(padLen)
	}
	return padded
}

// pkcs7Unpad strips PKCS#7 padding, rejecting malformed padding.
func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("crypto: ciphertext not a multiple of block size")
	}
	padLen := int(data[len(data)-1])
	if padLen <= 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("crypto: invalid pkcs7 padding")
	}
	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("crypto: invalid pkcs7 padding")
		}
	}
	return data[:len(data)-padLen], nil
}

// SM4Encrypt encrypts plaintext under key, in the given mode, using iv.
// For GCM, the 16-byte authentication tag is appended to the returned
// ciphertext (Go's cipher.AEAD.Seal convention).
func SM4Encrypt(mode Sm4Mode, key, iv, plaintext []byte) ([]byte, error) {
	block, err := sm4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: sm4 new cipher: %w", err)
	}

	switch mode {
	case ModeECB:
		padded := pkcs7Pad(plaintext, block.BlockSize())
		out := make([]byte, len(padded))
		for off := 0; off < len(padded); off += block.BlockSize() {
			block.Encrypt(out[off:off+block.BlockSize()], padded[off:off+block.BlockSize()])
		}
		return out, nil
	case ModeCBC:
		if len(iv) != block.BlockSize() {
			return nil, fmt.Errorf("crypto: cbc requires a %d-byte iv", block.BlockSize())
		}
		padded := pkcs7Pad(plaintext, block.BlockSize())
		out := make([]byte, len(padded))
		gocipher.NewCBCEncrypter(block, iv).CryptBlocks(out, padded)
		return out, nil
	case ModeCTR:
		out := make([]byte, len(plaintext))
		gocipher.NewCTR(block, iv).XORKeyStream(out, plaintext)
		return out, nil
	case ModeCFB:
		out := make([]byte, len(plaintext))
		gocipher.NewCFBEncrypter(block, iv).XORKeyStream(out, plaintext) //nolint:staticcheck // SM4-CFB has no modern replacement in crypto/cipher
		return out, nil
	case ModeOFB:
		out := make([]byte, len(plaintext))
		gocipher.NewOFB(block, iv).XORKeyStream(out, plaintext)
		return out, nil
	case ModeGCM:
		gcm, err := gocipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return nil, fmt.Errorf("crypto: sm4 gcm: %w", err)
		}
		return gcm.Seal(nil, iv, plaintext, nil), nil
	default:
		return nil, fmt.Errorf("crypto: unsupported sm4 mode %v", mode)
	}
}

// SM4Decrypt reverses SM4Encrypt.
func SM4Decrypt(mode Sm4Mode, key, iv, ciphertext []byte) ([]byte, error) {
	block, err := sm4.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("crypto: sm4 new cipher: %w", err)
	}

	switch mode {
	case ModeECB:
		if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
			return nil, fmt.Errorf("crypto: ecb ciphertext not a multiple of block size")
		}
		out := make([]byte, len(ciphertext))
		for off := 0; off < len(ciphertext); off += block.BlockSize() {
			block.Decrypt(out[off:off+block.BlockSize()], ciphertext[off:off+block.BlockSize()])
		}
		return pkcs7Unpad(out, block.BlockSize())
	case ModeCBC:
		if len(iv) != block.BlockSize() {
			return nil, fmt.Errorf("crypto: cbc requires a %d-byte iv", block.BlockSize())
		}
		if len(ciphertext) == 0 || len(ciphertext)%block.BlockSize() != 0 {
			return nil, fmt.Errorf("crypto: cbc ciphertext not a multiple of block size")
		}
		out := make([]byte, len(ciphertext))
		gocipher.NewCBCDecrypter(block, iv).CryptBlocks(out, ciphertext)
		return pkcs7Unpad(out, block.BlockSize())
	case ModeCTR:
		out := make([]byte, len(ciphertext))
		gocipher.NewCTR(block, iv).XORKeyStream(out, ciphertext)
		return out, nil
	case ModeCFB:
		out := make([]byte, len(ciphertext))
		gocipher.NewCFBDecrypter(block, iv).XORKeyStream(out, ciphertext) //nolint:staticcheck // SM4-CFB has no modern replacement in crypto/cipher
		return out, nil
	case ModeOFB:
		out := make([]byte, len(ciphertext))
		gocipher.NewOFB(block, iv).XORKeyStream(out, ciphertext)
		return out, nil
	case ModeGCM:
		gcm, err := gocipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return nil, fmt.Errorf("crypto: sm4 gcm: %w", err)
		}
		plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
		if err != nil {
			return nil, fmt.Errorf("crypto: sm4 gcm open: %w", err)
		}
		return plaintext, nil
	default:
		return nil, fmt.Errorf("crypto: unsupported sm4 mode %v", mode)
	}
}
