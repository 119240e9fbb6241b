package crypto

import (
	"crypto/sha1"
	"fmt"
	"strings"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/pbkdf2"
)

const (
	KeySize    = 32   // AES-256 key size, the largest legal AES key
	BlockSize  = 16   // AES block size, also the IV size
	Iterations = 1000 // PBKDF2 iterations, fixed for compatibility with existing files
)

// KeyMaterial is a derived AES key and initialization vector.
type KeyMaterial struct {
	Key []byte
	IV  []byte
}

// Valid reports whether the key and IV have the sizes the cipher expects.
func (k KeyMaterial) Valid() bool {
	return len(k.Key) == KeySize && len(k.IV) == BlockSize
}

// Wipe zeroes the key and IV in place.
func (k *KeyMaterial) Wipe() {
	memguard.WipeBytes(k.Key)
	memguard.WipeBytes(k.IV)
}

// DeriveKey derives key material from a seed and salt bytes.
// The salt may be empty; the seed may not be blank.
func DeriveKey(seed string, salt []byte) (*KeyMaterial, error) {
	if strings.TrimSpace(seed) == "" {
		return nil, fmt.Errorf("%w: no key derivation seed supplied", ErrInvalidArgument)
	}

	password := []byte(seed)
	defer memguard.WipeBytes(password)

	stream := pbkdf2.Key(password, salt, Iterations, KeySize+BlockSize, sha1.New)
	defer memguard.WipeBytes(stream)

	km := &KeyMaterial{
		Key: make([]byte, KeySize),
		IV:  make([]byte, BlockSize),
	}
	copy(km.Key, stream[:KeySize])
	copy(km.IV, stream[KeySize:])

	return km, nil
}
