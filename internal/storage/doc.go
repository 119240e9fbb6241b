// Package storage provides the BBolt database behind the reference section store.
//
// Database structure uses two buckets:
//   - config: format version and timestamps
//   - sections: one JSON record per configuration section
//
// A record holds either the plaintext fragment or the protected
// EncryptedData element, plus the name of the provider that protected it.
// The storage layer never encrypts; it persists what the caller hands it.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
