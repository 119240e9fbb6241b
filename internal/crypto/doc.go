// Package crypto provides the symmetric encryption engine for protected
// configuration fragments.
//
// Key derivation uses PBKDF2-HMAC-SHA1 with:
//   - the seed as password (UTF-8)
//   - the normalized salt (hex, Base64 or raw text) as salt
//   - 1000 iterations
//   - 48 bytes of output: 32-byte AES-256 key followed by a 16-byte IV
//
// Encryption uses AES-256-CBC with PKCS#7 padding and a Base64 envelope.
// The encrypted text starts with a UTF-8 byte order mark, which DecryptText
// removes again.
//
// Known weaknesses, kept for compatibility with existing protected files:
//   - The IV is derived with the key, so equal plaintexts give equal envelopes
//   - Ciphertexts are not authenticated; tampering is not detected
//
// Memory safety:
//   - Call KeyMaterial.Wipe() when a derived key is no longer needed
//   - The derivation stream and cipher buffers are zeroed with memguard.WipeBytes
package crypto
