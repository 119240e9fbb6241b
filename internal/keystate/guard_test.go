package keystate

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/illarion/protectedconfig/internal/crypto"
)

func newGuard(t *testing.T) *Guard {
	t.Helper()
	g := New(zaptest.NewLogger(t))
	t.Cleanup(g.Dispose)
	require.NoError(t, g.CreateOrReplaceKey("seed-value", "0x0102030405060708"))
	return g
}

func TestGuardRoundTrip(t *testing.T) {
	g := newGuard(t)

	for _, plain := range []string{"", "a", "<add key=\"k\" value=\"ü€\"/>"} {
		envelope, err := g.Encrypt(plain)
		require.NoError(t, err)

		got, err := g.Decrypt(envelope)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestGuardMatchesEngine(t *testing.T) {
	g := newGuard(t)

	envelope, err := g.Encrypt("hello")
	require.NoError(t, err)
	assert.Equal(t, "DMSc7OAS2/OftVVqbbT8hA==", envelope)
}

func TestGuardNotReady(t *testing.T) {
	g := New(nil)
	defer g.Dispose()

	assert.False(t, g.Ready())

	_, err := g.Encrypt("text")
	assert.ErrorIs(t, err, crypto.ErrInvalidState)

	_, err = g.Decrypt("DMSc7OAS2/OftVVqbbT8hA==")
	assert.ErrorIs(t, err, crypto.ErrInvalidState)
}

func TestGuardInvalidArguments(t *testing.T) {
	g := New(nil)
	defer g.Dispose()

	tests := []struct {
		name string
		seed string
		salt string
	}{
		{"empty seed", "", "salt"},
		{"blank seed", "   ", "salt"},
		{"empty salt", "seed", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.CreateOrReplaceKey(tt.seed, tt.salt)
			assert.ErrorIs(t, err, crypto.ErrInvalidArgument)
			assert.False(t, g.Ready())
		})
	}
}

func TestGuardReplaceKey(t *testing.T) {
	g := newGuard(t)
	plain := "<connectionStrings><add name=\"main\"/></connectionStrings>"

	envelope, err := g.Encrypt(plain)
	require.NoError(t, err)

	require.NoError(t, g.CreateOrReplaceKey("another-seed", "another-salt"))
	assert.True(t, g.Ready())

	got, err := g.Decrypt(envelope)
	if err == nil {
		assert.NotEqual(t, plain, got)
	} else {
		assert.True(t, crypto.IsCipherError(err), "unexpected error: %v", err)
	}

	again, err := g.Encrypt(plain)
	require.NoError(t, err)
	assert.NotEqual(t, envelope, again)
}

func TestGuardReplaceKeySameInputs(t *testing.T) {
	g := newGuard(t)

	first, err := g.Encrypt("value")
	require.NoError(t, err)

	require.NoError(t, g.CreateOrReplaceKey("seed-value", "0x0102030405060708"))

	second, err := g.Encrypt("value")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGuardDispose(t *testing.T) {
	g := New(nil)
	require.NoError(t, g.CreateOrReplaceKey("seed", "salt"))

	envelope, err := g.Encrypt("text")
	require.NoError(t, err)

	assert.NotPanics(t, g.Dispose)
	assert.NotPanics(t, g.Dispose)
	assert.False(t, g.Ready())

	_, err = g.Encrypt("text")
	assert.ErrorIs(t, err, crypto.ErrInvalidState)
	_, err = g.Decrypt(envelope)
	assert.ErrorIs(t, err, crypto.ErrInvalidState)

	err = g.CreateOrReplaceKey("seed", "salt")
	assert.ErrorIs(t, err, crypto.ErrInvalidState)
	assert.False(t, g.Ready())
}

func TestGuardDisposeWithoutKey(t *testing.T) {
	g := New(nil)
	assert.NotPanics(t, g.Dispose)
	assert.NotPanics(t, g.Dispose)
}

func TestGuardConcurrentReadersDuringRekey(t *testing.T) {
	g := newGuard(t)
	const plain = "<appSettings><add key=\"x\" value=\"y\"/></appSettings>"

	var wg sync.WaitGroup
	errs := make(chan error, 64)

	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				envelope, err := g.Encrypt(plain)
				if err != nil {
					errs <- err
					return
				}
				// A re-key may land between the two calls; only cipher errors are acceptable.
				if _, err := g.Decrypt(envelope); err != nil && !crypto.IsCipherError(err) {
					errs <- err
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		seeds := []string{"seed-a", "seed-b"}
		for i := range 20 {
			if err := g.CreateOrReplaceKey(seeds[i%2], "salt"); err != nil {
				errs <- err
				return
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestGuardDoesNotLogSecrets(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g := New(zap.New(core))
	defer g.Dispose()

	require.NoError(t, g.CreateOrReplaceKey("very-secret-seed", "c2FsdA=="))

	entries := logs.All()
	require.NotEmpty(t, entries)
	for _, e := range entries {
		for k, v := range e.ContextMap() {
			s := fmt.Sprint(v)
			assert.NotContains(t, s, "very-secret-seed", k)
			assert.NotContains(t, s, "c2FsdA==", k)
		}
	}
	assert.Equal(t, crypto.SaltBase64, entries[0].ContextMap()["salt_encoding"])
}
