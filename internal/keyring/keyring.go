package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// DefaultService is used when no keyring service is configured.
const DefaultService = "protectedconfig"

// ErrNotFound is returned when no seed is stored for a provider.
var ErrNotFound = errors.New("seed not found in keyring")

// SaveSeed stores a key derivation seed in the OS keyring
func SaveSeed(service, provider, seed string) error {
	return keyring.Set(serviceOrDefault(service), provider, seed)
}

// GetSeed retrieves a key derivation seed from the OS keyring
func GetSeed(service, provider string) (string, error) {
	seed, err := keyring.Get(serviceOrDefault(service), provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", fmt.Errorf("%w: %s/%s", ErrNotFound, serviceOrDefault(service), provider)
	}
	return seed, err
}

// DeleteSeed removes a seed from the OS keyring
func DeleteSeed(service, provider string) error {
	err := keyring.Delete(serviceOrDefault(service), provider)
	if errors.Is(err, keyring.ErrNotFound) {
		return nil
	}
	return err
}

func serviceOrDefault(service string) string {
	if service == "" {
		return DefaultService
	}
	return service
}
