package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errInvalidParams = errors.New("invalid params")

// Request parameter shapes form a closed set: every method has one typed
// struct, decoded strictly at the boundary. The core never re-validates
// shapes.

type passwordParams struct {
	Password string `json:"password"`
}

type mnemonicParams struct {
	Mnemonic string `json:"mnemonic"`
	Password string `json:"password,omitempty"`
}

type changePasswordParams struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type originParams struct {
	Origin string `json:"origin"`
}

type maskKeyParams struct {
	Origin  string `json:"origin"`
	Index   int    `json:"index"`
	Purpose string `json:"purpose,omitempty"`
}

type signParams struct {
	Origin     string `json:"origin"`
	Message    []byte `json:"message"`
	Purpose    string `json:"purpose,omitempty"`
	CustomSalt []byte `json:"custom_salt,omitempty"`
}

type linkParams struct {
	Grantor string `json:"grantor"`
	Grantee string `json:"grantee"`
}

type unlinkParams struct {
	Origin      string `json:"origin"`
	OtherOrigin string `json:"other_origin"`
}

type loginParams struct {
	Origin           string `json:"origin"`
	DerivationOrigin string `json:"derivation_origin"`
	IdentityIndex    int    `json:"identity_index"`
}

type siteSessionParams struct {
	Token string `json:"token"`
}

// decodeInto strictly unmarshals raw into v; unknown fields and trailing
// data are rejected so malformed callers fail at the boundary.
func decodeInto(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errInvalidParams
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errInvalidParams
	}
	if dec.More() {
		return errInvalidParams
	}
	return nil
}
