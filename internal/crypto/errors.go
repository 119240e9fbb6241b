package crypto

import "errors"

var (
	// ErrInvalidArgument is returned when a seed or salt is missing or blank.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidFormat is returned for malformed hex, Base64 or decrypted text.
	ErrInvalidFormat = errors.New("invalid format")

	// ErrDecryptionFailed is returned when the cipher rejects a ciphertext,
	// usually because the key was derived from another seed/salt pair.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidState is returned when no usable key material is available.
	ErrInvalidState = errors.New("invalid state")
)

// IsCipherError reports whether err is one of the errors a wrong key or a
// tampered envelope can produce.
func IsCipherError(err error) bool {
	return errors.Is(err, ErrDecryptionFailed) || errors.Is(err, ErrInvalidFormat)
}
