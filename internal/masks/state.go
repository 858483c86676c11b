package masks

import "strings"

// SiteSession is the optional application-site session carried alongside
// the origin records. The token is opaque to this package.
type SiteSession struct {
	Token      string `json:"token"`
	IssuedAtMs int64  `json:"issued_at_ms"`
}

// State is the full persisted top level: one OriginData per origin ever
// interacted with, plus the optional site session. A State instance is
// owned by exactly one request at a time.
type State struct {
	SiteSession *SiteSession           `json:"site_session,omitempty"`
	Origins     map[string]*OriginData `json:"origins"`
}

func NewState() *State {
	return &State{Origins: make(map[string]*OriginData)}
}

// NormalizeOrigin canonicalizes an origin identifier. Origins are opaque
// scheme+host strings; equality is string equality after trimming and
// lowercasing.
func NormalizeOrigin(origin string) string {
	return strings.ToLower(strings.TrimSpace(origin))
}

// Origin returns the record for origin, materializing an empty one on
// first interaction. Entries are never deleted.
func (s *State) Origin(origin string) *OriginData {
	if s.Origins == nil {
		s.Origins = make(map[string]*OriginData)
	}
	data, ok := s.Origins[origin]
	if !ok {
		data = newOriginData()
		s.Origins[origin] = data
	}
	return data
}

// SetOrigin replaces the stored record wholesale.
func (s *State) SetOrigin(origin string, data *OriginData) {
	if s.Origins == nil {
		s.Origins = make(map[string]*OriginData)
	}
	s.Origins[origin] = data
}

// AddIdentity increments the mask count for origin and returns the index
// assigned to the new mask. Counts only ever grow; indexes are never
// reused.
func (s *State) AddIdentity(origin string) int {
	data := s.Origin(origin)
	index := data.IdentitiesTotal
	data.IdentitiesTotal++
	return index
}

func (s *State) Clone() *State {
	out := NewState()
	if s.SiteSession != nil {
		copied := *s.SiteSession
		out.SiteSession = &copied
	}
	for origin, data := range s.Origins {
		out.Origins[origin] = data.Clone()
	}
	return out
}
