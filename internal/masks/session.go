package masks

import "encoding/json"

// Session records which mask is currently worn on an origin.
// DerivationOrigin is the origin whose mask is actually in use; it differs
// from the origin the session is recorded under when the mask is borrowed
// through a link.
type Session struct {
	IdentityIndex    int    `json:"identity_index"`
	DerivationOrigin string `json:"derivation_origin"`
	TimestampMs      int64  `json:"timestamp_ms"`
}

type sessionStatus int

const (
	anonymous sessionStatus = iota
	authenticated
)

// SessionSlot is the per-origin session state machine: Anonymous or
// Authenticated with an attached Session. The payload is reachable only
// through the Authenticated accessor, so an anonymous slot cannot leak a
// stale session.
type SessionSlot struct {
	status  sessionStatus
	session Session
}

func (s SessionSlot) IsAuthenticated() bool {
	return s.status == authenticated
}

func (s SessionSlot) Authenticated() (Session, bool) {
	if s.status != authenticated {
		return Session{}, false
	}
	return s.session, true
}

// Begin replaces the slot content wholesale; sessions are never mutated
// in place.
func (s *SessionSlot) Begin(session Session) {
	s.status = authenticated
	s.session = session
}

func (s *SessionSlot) Clear() {
	s.status = anonymous
	s.session = Session{}
}

func (s SessionSlot) MarshalJSON() ([]byte, error) {
	if s.status != authenticated {
		return []byte("null"), nil
	}
	return json.Marshal(s.session)
}

func (s *SessionSlot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		s.Clear()
		return nil
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return err
	}
	s.Begin(session)
	return nil
}
