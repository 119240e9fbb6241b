package keystate

import (
	"fmt"
	"strings"
	"sync"

	"github.com/awnumar/memguard"
	"go.uber.org/zap"

	"github.com/illarion/protectedconfig/internal/crypto"
)

// Guard manages creation, replacement and disposal of key material.
// It is safe for concurrent use.
type Guard struct {
	mu       sync.RWMutex
	buf      *memguard.LockedBuffer // key || IV
	disposed bool
	logger   *zap.Logger
}

// New creates an empty Guard. A nil logger disables logging.
func New(logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{logger: logger}
}

// CreateOrReplaceKey derives key material from seed and salt and makes it the
// active key. Any previous key is destroyed.
func (g *Guard) CreateOrReplaceKey(seed, salt string) error {
	if strings.TrimSpace(seed) == "" {
		return fmt.Errorf("%w: no key derivation seed supplied", crypto.ErrInvalidArgument)
	}
	if salt == "" {
		return fmt.Errorf("%w: no key derivation salt supplied", crypto.ErrInvalidArgument)
	}

	saltBytes := crypto.NormalizeSalt(salt)
	defer memguard.WipeBytes(saltBytes)

	km, err := crypto.DeriveKey(seed, saltBytes)
	if err != nil {
		return err
	}

	material := make([]byte, 0, crypto.KeySize+crypto.BlockSize)
	material = append(material, km.Key...)
	material = append(material, km.IV...)
	km.Wipe()

	// NewBufferFromBytes wipes material.
	buf := memguard.NewBufferFromBytes(material)
	buf.Freeze()

	g.mu.Lock()
	if g.disposed {
		g.mu.Unlock()
		buf.Destroy()
		return fmt.Errorf("%w: key guard is disposed", crypto.ErrInvalidState)
	}
	old := g.buf
	g.buf = buf
	g.mu.Unlock()

	replaced := old != nil
	g.release(old)

	g.logger.Info("key material published",
		zap.String("salt_encoding", crypto.SaltEncoding(salt)),
		zap.Bool("replaced", replaced),
	)
	return nil
}

// Encrypt encrypts text with the active key.
func (g *Guard) Encrypt(text string) (string, error) {
	var out string
	err := g.withKey(func(km crypto.KeyMaterial) error {
		var err error
		out, err = crypto.EncryptText(text, km)
		return err
	})
	return out, err
}

// Decrypt decrypts a Base64 envelope with the active key.
func (g *Guard) Decrypt(envelope string) (string, error) {
	var out string
	err := g.withKey(func(km crypto.KeyMaterial) error {
		var err error
		out, err = crypto.DecryptText(envelope, km)
		return err
	})
	return out, err
}

// Ready reports whether a key is published and the guard is not disposed.
func (g *Guard) Ready() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return !g.disposed && g.buf != nil
}

// Dispose destroys the active key. The guard cannot be used afterwards.
// Calling Dispose more than once is a no-op.
func (g *Guard) Dispose() {
	g.mu.Lock()
	if g.disposed {
		g.mu.Unlock()
		return
	}
	g.disposed = true
	old := g.buf
	g.buf = nil
	g.mu.Unlock()

	g.release(old)
	g.logger.Debug("key guard disposed")
}

// withKey runs fn with the active key while holding the read lock, so the
// buffer cannot be destroyed underneath it.
func (g *Guard) withKey(fn func(crypto.KeyMaterial) error) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if g.disposed {
		return fmt.Errorf("%w: key guard is disposed", crypto.ErrInvalidState)
	}
	if g.buf == nil || !g.buf.IsAlive() {
		return fmt.Errorf("%w: no key material, call CreateOrReplaceKey first", crypto.ErrInvalidState)
	}

	b := g.buf.Bytes()
	return fn(crypto.KeyMaterial{
		Key: b[:crypto.KeySize],
		IV:  b[crypto.KeySize : crypto.KeySize+crypto.BlockSize],
	})
}

// release destroys buf. Failures are logged, never propagated.
func (g *Guard) release(buf *memguard.LockedBuffer) {
	if buf == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("releasing key material failed", zap.Any("panic", r))
		}
	}()
	buf.Destroy()
}
