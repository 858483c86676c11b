package identity

import (
	"crypto/sha256"
	"strconv"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"
)

const (
	deriveNamespace = "maskvault/derive/v1"

	// DefaultPurpose is the purpose label used whenever an operation
	// enumerates or signs with a mask without an explicit purpose.
	DefaultPurpose = "identity"
)

// Deriver turns entropy-source output into origin-scoped secp256k1
// signing key pairs. Derivation is pure: no randomness, no caching, no
// stored state. The same (origin, index, purpose, salt) always yields
// the same pair.
type Deriver struct {
	source EntropySource
}

func NewDeriver(source EntropySource) *Deriver {
	return &Deriver{source: source}
}

// DeriveLabel builds the exact entropy label for one mask. The label
// pins namespace, origin, identity index and purpose, so changing any
// component lands on an unrelated entropy blob.
func DeriveLabel(origin string, identityIndex int, purpose string) string {
	if purpose == "" {
		purpose = DefaultPurpose
	}
	return strings.Join([]string{deriveNamespace, origin, strconv.Itoa(identityIndex), purpose}, "/")
}

// Derive produces the signing key pair for one mask. customSalt, when
// present, is appended to the entropy before hashing so callers can
// partition a mask's key space further.
func (d *Deriver) Derive(origin string, identityIndex int, purpose string, customSalt []byte) (KeyPair, error) {
	entropy, err := d.source.Entropy(DeriveLabel(origin, identityIndex, purpose))
	if err != nil {
		return KeyPair{}, err
	}
	material := entropy
	if len(customSalt) > 0 {
		material = append(append([]byte(nil), entropy...), customSalt...)
	}
	scalar := sha256.Sum256(material)
	priv := secp256k1.PrivKeyFromBytes(scalar[:])
	return KeyPair{priv: priv}, nil
}

// KeyPair is one derived mask key. Both operations are pure functions of
// the key; the private scalar never leaves the struct.
type KeyPair struct {
	priv *secp256k1.PrivateKey
}

// Sign produces a DER-encoded ECDSA signature over SHA-256(message).
func (k KeyPair) Sign(message []byte) []byte {
	digest := sha256.Sum256(message)
	return ecdsa.Sign(k.priv, digest[:]).Serialize()
}

// PublicKey returns the 33-byte compressed public key.
func (k KeyPair) PublicKey() []byte {
	return k.priv.PubKey().SerializeCompressed()
}

// Zero wipes the private scalar.
func (k KeyPair) Zero() {
	if k.priv != nil {
		k.priv.Zero()
	}
}
