package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/awnumar/memguard"
)

// utf8BOM precedes the text in every envelope so files written here and by
// older tooling stay interchangeable.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// EncryptText encrypts the UTF-8 BOM followed by plaintext with AES-256-CBC
// and returns the ciphertext as standard Base64. Empty plaintext yields an
// empty envelope.
func EncryptText(plaintext string, km KeyMaterial) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := newBlock(km)
	if err != nil {
		return "", err
	}

	text := append(append(make([]byte, 0, len(utf8BOM)+len(plaintext)), utf8BOM...), plaintext...)
	defer memguard.WipeBytes(text)

	data := pkcs7Pad(text, BlockSize)
	defer memguard.WipeBytes(data)

	ciphertext := make([]byte, len(data))
	cipher.NewCBCEncrypter(block, km.IV).CryptBlocks(ciphertext, data)

	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// DecryptText reverses EncryptText. One leading byte order mark is dropped
// when present; envelopes written without it decrypt as well. Empty
// envelopes yield empty text.
func DecryptText(envelope string, km KeyMaterial) (string, error) {
	if envelope == "" {
		return "", nil
	}

	ciphertext, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return "", fmt.Errorf("%w: envelope is not valid Base64: %w", ErrInvalidFormat, err)
	}
	if len(ciphertext) == 0 || len(ciphertext)%BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length %d is not a multiple of the block size", ErrDecryptionFailed, len(ciphertext))
	}

	block, err := newBlock(km)
	if err != nil {
		return "", err
	}

	data := make([]byte, len(ciphertext))
	defer memguard.WipeBytes(data)
	cipher.NewCBCDecrypter(block, km.IV).CryptBlocks(data, ciphertext)

	plaintext, err := pkcs7Unpad(data, BlockSize)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", fmt.Errorf("%w: decrypted data is not valid UTF-8", ErrInvalidFormat)
	}

	return strings.TrimPrefix(string(plaintext), "\uFEFF"), nil
}

func newBlock(km KeyMaterial) (cipher.Block, error) {
	if !km.Valid() {
		return nil, fmt.Errorf("%w: key material has %d key and %d IV bytes", ErrInvalidState, len(km.Key), len(km.IV))
	}
	block, err := aes.NewCipher(km.Key)
	if err != nil {
		return nil, fmt.Errorf("failed to create cipher: %w", err)
	}
	return block, nil
}

// pkcs7Pad always appends between 1 and blockSize bytes.
func pkcs7Pad(b []byte, blockSize int) []byte {
	n := blockSize - len(b)%blockSize
	out := make([]byte, len(b)+n)
	copy(out, b)
	copy(out[len(b):], bytes.Repeat([]byte{byte(n)}, n))
	return out
}

func pkcs7Unpad(b []byte, blockSize int) ([]byte, error) {
	if len(b) == 0 || len(b)%blockSize != 0 {
		return nil, fmt.Errorf("%w: invalid padded length %d", ErrDecryptionFailed, len(b))
	}
	n := int(b[len(b)-1])
	if n == 0 || n > blockSize {
		return nil, fmt.Errorf("%w: padding is invalid", ErrDecryptionFailed)
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, fmt.Errorf("%w: padding is invalid", ErrDecryptionFailed)
		}
	}
	return b[:len(b)-n], nil
}
