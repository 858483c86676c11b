// Package identity owns the user's master seed and everything derived
// from it: the BIP-39 mnemonic lifecycle behind a password-protected
// envelope, the deterministic label-keyed entropy source, and on-demand
// derivation of origin-scoped secp256k1 signing keys.
package identity
