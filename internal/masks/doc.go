// Package masks holds the domain model for origin-scoped identities:
// per-origin mask counts, the directed link graph between origins, and
// the per-origin session slot. The package is pure data and rules; it
// performs no I/O and no key derivation.
package masks
