package protectedconfig

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/illarion/protectedconfig/internal/keystate"
)

// Provider encrypts and decrypts configuration fragments with a key derived
// from a seed and salt. It is safe for concurrent use.
type Provider struct {
	mu          sync.RWMutex
	name        string
	initialized bool

	guard         *keystate.Guard
	logger        *zap.Logger
	meterProvider metric.MeterProvider
	metrics       providerMetrics
	lookupEnv     func(string) (string, bool)
}

// New creates an uninitialized Provider.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		logger:    zap.NewNop(),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(p)
	}

	m, err := newProviderMetrics(p.meterProvider)
	if err != nil {
		return nil, err
	}
	p.metrics = m
	p.guard = keystate.New(p.logger.Named("keystate"))

	return p, nil
}

// Name returns the name given to Initialize.
func (p *Provider) Name() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.name
}

// Initialize names the provider and derives its key from the "seed" and
// "salt" entries of config. Blank entries fall back to PROTECTEDCONFIG_SEED
// and PROTECTEDCONFIG_SALT; a blank seed is also looked up in the OS keyring
// when "keyringService" is set. Initialize may only succeed once.
func (p *Provider) Initialize(name string, config map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		return fmt.Errorf("%w: provider %q is already initialized", ErrInvalidState, p.name)
	}

	seed, salt, err := p.resolve(name, config)
	if err != nil {
		p.logger.Error("provider configuration rejected", zap.String("provider", name), zap.Error(err))
		return err
	}

	if err := p.createKey(seed, salt); err != nil {
		return err
	}

	p.name = name
	p.initialized = true
	p.logger.Info("provider initialized", zap.String("provider", name))
	return nil
}

// CreateKey derives a new key from seed and salt and replaces the current
// one. Envelopes produced under the previous key no longer decrypt.
func (p *Provider) CreateKey(seed, salt string) error {
	return p.createKey(seed, salt)
}

func (p *Provider) createKey(seed, salt string) error {
	err := p.guard.CreateOrReplaceKey(seed, salt)
	record(p.metrics.rekeys, err)
	return err
}

// EncryptString encrypts text into a Base64 envelope. Empty text yields an
// empty envelope.
func (p *Provider) EncryptString(text string) (string, error) {
	envelope, err := p.guard.Encrypt(text)
	record(p.metrics.encrypts, err)
	if err != nil {
		return "", err
	}
	return envelope, nil
}

// DecryptString decrypts a Base64 envelope. An empty envelope yields empty text.
func (p *Provider) DecryptString(envelope string) (string, error) {
	text, err := p.guard.Decrypt(envelope)
	record(p.metrics.decrypts, err)
	if err != nil {
		p.logger.Warn("decrypt failed", zap.String("provider", p.Name()), zap.Error(err))
		return "", err
	}
	return text, nil
}

// Protect encrypts a configuration fragment and wraps the envelope in an
// EncryptedData element. A non-empty fragment must be well-formed XML.
func (p *Provider) Protect(fragment string) (*EncryptedData, error) {
	if fragment != "" {
		if err := checkFragment(fragment); err != nil {
			return nil, err
		}
	}

	envelope, err := p.EncryptString(fragment)
	if err != nil {
		return nil, err
	}
	return &EncryptedData{CipherValue: envelope}, nil
}

// Unprotect decrypts the content of an EncryptedData element and returns the
// original fragment. The decrypted text must be well-formed XML.
func (p *Provider) Unprotect(node *EncryptedData) (string, error) {
	var envelope string
	if node != nil {
		envelope = strings.TrimSpace(node.CipherValue)
	}

	fragment, err := p.DecryptString(envelope)
	if err != nil {
		return "", err
	}
	if err := checkFragment(fragment); err != nil {
		return "", fmt.Errorf("decrypted data: %w", err)
	}
	return fragment, nil
}

// Ready reports whether the provider holds a usable key.
func (p *Provider) Ready() bool {
	return p.guard.Ready()
}

// Close destroys the key material. The provider cannot be used afterwards.
// Close is idempotent and always returns nil.
func (p *Provider) Close() error {
	p.guard.Dispose()
	return nil
}
