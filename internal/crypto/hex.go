package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// hexPrefixes are stripped before decoding, compared case-insensitively.
var hexPrefixes = []string{"$", "0x", "&h"}

// BytesToHex converts b to an uppercase hex string without prefix or separators.
func BytesToHex(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return strings.ToUpper(hex.EncodeToString(b))
}

// HexToBytes converts a hex string to bytes. A leading "$", "0x" or "&h"
// prefix is ignored. The remaining digit count must be even; case does not
// matter. Blank input and a bare prefix decode to an empty slice.
func HexToBytes(s string) ([]byte, error) {
	if strings.TrimSpace(s) == "" {
		return []byte{}, nil
	}

	digits := stripHexPrefix(s)
	if len(digits)%2 != 0 {
		return nil, fmt.Errorf("%w: hex string %q has an odd number of digits", ErrInvalidFormat, s)
	}

	b, err := hex.DecodeString(digits)
	if err != nil {
		return nil, fmt.Errorf("%w: converting hex string %q failed: %w", ErrInvalidFormat, s, err)
	}
	return b, nil
}

func stripHexPrefix(s string) string {
	for _, p := range hexPrefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			return s[len(p):]
		}
	}
	return s
}
