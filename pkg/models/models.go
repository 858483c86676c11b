// Package models holds the wire-level types exchanged between the daemon
// core and its RPC clients.
package models

// Mask is one origin-scoped identity: the mask's index on its origin,
// its compressed public key and the derived human-readable address.
type Mask struct {
	Origin    string `json:"origin"`
	Index     int    `json:"index"`
	PublicKey []byte `json:"public_key"`
	Address   string `json:"address"`
}

// LoginOptionGroup lists the masks one origin contributes to a login
// prompt. The visited origin's own group always comes first.
type LoginOptionGroup struct {
	Origin string `json:"origin"`
	Masks  []Mask `json:"masks"`
}

// SessionInfo describes the active session on an origin.
type SessionInfo struct {
	Origin           string `json:"origin"`
	IdentityIndex    int    `json:"identity_index"`
	DerivationOrigin string `json:"derivation_origin"`
	TimestampMs      int64  `json:"timestamp_ms"`
}

// SignatureResult carries a detached signature together with the public
// key it verifies under.
type SignatureResult struct {
	Signature []byte `json:"signature"`
	PublicKey []byte `json:"public_key"`
	Address   string `json:"address"`
}

// OriginStats is the observability view of one origin record.
type OriginStats struct {
	Origin          string   `json:"origin"`
	IdentitiesTotal int      `json:"identities_total"`
	RequestCount    int64    `json:"request_count"`
	LinksTo         []string `json:"links_to,omitempty"`
	LinksFrom       []string `json:"links_from,omitempty"`
	Authenticated   bool     `json:"authenticated"`
}

// SiteSession is the application-site session token.
type SiteSession struct {
	Token      string `json:"token"`
	IssuedAtMs int64  `json:"issued_at_ms"`
}

// SeedStatus reports the lifecycle state of the master seed.
type SeedStatus struct {
	Exists   bool `json:"exists"`
	Unlocked bool `json:"unlocked"`
}
