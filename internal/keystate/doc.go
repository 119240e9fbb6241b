// Package keystate owns the active key material of a protected
// configuration provider.
//
// A Guard holds at most one derived key at a time:
//   - CreateOrReplaceKey derives a new key and publishes it atomically
//   - Encrypt and Decrypt read the published key under a shared lock
//   - Dispose destroys the key and makes the guard permanently unusable
//
// Key and IV live in a single memguard LockedBuffer, frozen read-only and
// excluded from swap. A replaced or disposed buffer is wiped and unmapped.
package keystate
