package protectedconfig

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"

	"github.com/illarion/protectedconfig/internal/keyring"
)

// Configuration keys understood by Initialize.
const (
	ConfigSeed           = "seed"
	ConfigSalt           = "salt"
	ConfigKeyringService = "keyringService"
)

// Environment variables used by LoadConfig and as fallbacks for blank values.
const (
	EnvSeed           = "PROTECTEDCONFIG_SEED"
	EnvSalt           = "PROTECTEDCONFIG_SALT"
	EnvKeyringService = "PROTECTEDCONFIG_KEYRING_SERVICE"
)

var envKeys = map[string]string{
	EnvSeed:           ConfigSeed,
	EnvSalt:           ConfigSalt,
	EnvKeyringService: ConfigKeyringService,
}

// LoadConfig reads provider configuration from a dotenv file. Only the
// PROTECTEDCONFIG_* variables are used; everything else is ignored.
func LoadConfig(path string) (map[string]string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrConfiguration, path, err)
	}

	config := make(map[string]string, len(envKeys))
	for env, key := range envKeys {
		if v, ok := vars[env]; ok {
			config[key] = v
		}
	}
	return config, nil
}

// SaveSeed stores the seed for the named provider in the OS keyring. An empty
// service selects the default service name.
func SaveSeed(service, name, seed string) error {
	if strings.TrimSpace(seed) == "" {
		return fmt.Errorf("%w: no key derivation seed supplied", ErrInvalidArgument)
	}
	return keyring.SaveSeed(service, name, seed)
}

// DeleteSeed removes the seed for the named provider from the OS keyring.
func DeleteSeed(service, name string) error {
	return keyring.DeleteSeed(service, name)
}

// resolve fills blank seed and salt values from the environment and, for
// the seed, from the OS keyring.
func (p *Provider) resolve(name string, config map[string]string) (seed, salt string, err error) {
	seed = p.value(config, ConfigSeed, EnvSeed)
	salt = p.value(config, ConfigSalt, EnvSalt)

	if isBlank(seed) {
		if service := p.value(config, ConfigKeyringService, EnvKeyringService); !isBlank(service) {
			seed, err = keyring.GetSeed(service, name)
			if err != nil {
				return "", "", fmt.Errorf("%w: %w", ErrConfiguration, err)
			}
		}
	}

	if isBlank(seed) {
		return "", "", fmt.Errorf("%w: no key derivation seed provided", ErrConfiguration)
	}
	if isBlank(salt) {
		return "", "", fmt.Errorf("%w: no key derivation salt provided", ErrConfiguration)
	}
	return seed, salt, nil
}

func (p *Provider) value(config map[string]string, key, env string) string {
	if v := config[key]; !isBlank(v) {
		return v
	}
	if v, ok := p.lookupEnv(env); ok {
		return v
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
