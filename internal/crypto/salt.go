package crypto

import (
	"encoding/base64"
)

// Salt encodings reported by SaltEncoding.
const (
	SaltEmpty  = "empty"
	SaltHex    = "hex"
	SaltBase64 = "base64"
	SaltText   = "text"
)

type saltDecoder struct {
	name   string
	decode func(string) ([]byte, bool)
}

// saltDecoders are tried in order; the first that accepts the input wins.
// The text decoder always accepts.
var saltDecoders = []saltDecoder{
	{name: SaltHex, decode: decodeHexSalt},
	{name: SaltBase64, decode: decodeBase64Salt},
	{name: SaltText, decode: decodeTextSalt},
}

// NormalizeSalt converts a salt given as hex (optionally prefixed), Base64 or
// arbitrary text into bytes. It never fails: text that is neither hex nor
// Base64 is used as its UTF-8 bytes.
func NormalizeSalt(salt string) []byte {
	b, _ := normalizeSalt(salt)
	return b
}

// SaltEncoding reports which interpretation NormalizeSalt picks for salt.
func SaltEncoding(salt string) string {
	_, name := normalizeSalt(salt)
	return name
}

func normalizeSalt(salt string) ([]byte, string) {
	if salt == "" {
		return []byte{}, SaltEmpty
	}
	for _, d := range saltDecoders {
		if b, ok := d.decode(salt); ok {
			return b, d.name
		}
	}
	// unreachable: decodeTextSalt always accepts
	return []byte(salt), SaltText
}

func decodeHexSalt(s string) ([]byte, bool) {
	b, err := HexToBytes(s)
	return b, err == nil
}

func decodeBase64Salt(s string) ([]byte, bool) {
	b, err := base64.StdEncoding.DecodeString(s)
	return b, err == nil
}

func decodeTextSalt(s string) ([]byte, bool) {
	return []byte(s), true
}
