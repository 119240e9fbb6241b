package protectedconfig

import (
	"errors"

	"github.com/illarion/protectedconfig/internal/crypto"
	"github.com/illarion/protectedconfig/internal/storage"
)

var (
	// ErrInvalidArgument is returned when a seed or salt passed to CreateKey is blank.
	ErrInvalidArgument = crypto.ErrInvalidArgument

	// ErrInvalidFormat is returned for malformed envelopes, hex salts or fragments.
	ErrInvalidFormat = crypto.ErrInvalidFormat

	// ErrDecryptionFailed is returned when an envelope does not decrypt under the
	// current key.
	ErrDecryptionFailed = crypto.ErrDecryptionFailed

	// ErrInvalidState is returned when the provider has no key or is closed.
	ErrInvalidState = crypto.ErrInvalidState

	// ErrConfiguration is returned by Initialize when seed or salt are missing.
	ErrConfiguration = errors.New("configuration error")

	// ErrSectionNotFound is returned when a section is not in the store.
	ErrSectionNotFound = storage.ErrSectionNotFound

	// ErrAlreadyProtected is returned when protecting a protected section.
	ErrAlreadyProtected = errors.New("section is already protected")

	// ErrNotProtected is returned when unprotecting a plaintext section.
	ErrNotProtected = errors.New("section is not protected")
)

// IsInvalidArgument returns true if the error is or wraps ErrInvalidArgument.
func IsInvalidArgument(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// IsInvalidFormat returns true if the error is or wraps ErrInvalidFormat.
func IsInvalidFormat(err error) bool {
	return errors.Is(err, ErrInvalidFormat)
}

// IsDecryptionFailed returns true if the error is or wraps ErrDecryptionFailed.
func IsDecryptionFailed(err error) bool {
	return errors.Is(err, ErrDecryptionFailed)
}

// IsInvalidState returns true if the error is or wraps ErrInvalidState.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState)
}

// IsConfiguration returns true if the error is or wraps ErrConfiguration.
func IsConfiguration(err error) bool {
	return errors.Is(err, ErrConfiguration)
}
