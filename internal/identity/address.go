package identity

import (
	"fmt"

	"github.com/mr-tron/base58/base58"
	"golang.org/x/crypto/blake2b"
)

const compressedPubKeySize = 33

// MaskAddress renders a compressed mask public key as a short
// human-readable address.
func MaskAddress(publicKey []byte) (string, error) {
	if len(publicKey) != compressedPubKeySize {
		return "", fmt.Errorf("invalid mask public key size: %d", len(publicKey))
	}
	h := blake2b.Sum256(publicKey)
	return "mask1" + base58.Encode(h[:]), nil
}

// VerifyMaskAddress reports whether address matches publicKey.
func VerifyMaskAddress(address string, publicKey []byte) (bool, error) {
	expected, err := MaskAddress(publicKey)
	if err != nil {
		return false, err
	}
	return address == expected, nil
}
