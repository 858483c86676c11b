package masks

// Login authenticates origin with the mask identityIndex owned by
// derivationOrigin. Preconditions, in order:
//
//   - derivationOrigin is origin itself, or derivationOrigin has granted
//     a link to origin (grantor direction; the reverse edge does not
//     qualify), otherwise ErrLoginNotPermitted;
//   - derivationOrigin has at least one mask; a login attempt against an
//     origin with zero masks is a caller protocol violation and surfaces
//     as ErrNoIdentities;
//   - identityIndex addresses an existing mask, otherwise
//     ErrIndexOutOfRange.
//
// On success the origin's session slot is replaced wholesale.
func Login(state *State, origin, derivationOrigin string, identityIndex int, nowMs int64) (Session, error) {
	if origin == "" || derivationOrigin == "" {
		return Session{}, ErrOriginRequired
	}
	if derivationOrigin != origin && !NewGraph(state).Exists(derivationOrigin, origin) {
		return Session{}, ErrLoginNotPermitted
	}
	total := state.Origin(derivationOrigin).IdentitiesTotal
	if total == 0 {
		return Session{}, ErrNoIdentities
	}
	if identityIndex < 0 || identityIndex >= total {
		return Session{}, ErrIndexOutOfRange
	}
	session := Session{
		IdentityIndex:    identityIndex,
		DerivationOrigin: derivationOrigin,
		TimestampMs:      nowMs,
	}
	state.Origin(origin).Session.Begin(session)
	return session, nil
}

// Logout clears the origin's session unconditionally and reports whether
// a session was active.
func Logout(state *State, origin string) bool {
	data, ok := state.Origins[origin]
	if !ok || !data.Session.IsAuthenticated() {
		return false
	}
	data.Session.Clear()
	return true
}

func IsAuthenticated(state *State, origin string) bool {
	data, ok := state.Origins[origin]
	return ok && data.Session.IsAuthenticated()
}

func ActiveSession(state *State, origin string) (Session, bool) {
	data, ok := state.Origins[origin]
	if !ok {
		return Session{}, false
	}
	return data.Session.Authenticated()
}

// LoginSource names one origin whose masks may be worn during a login on
// the enumerated origin, with the indexes of those masks.
type LoginSource struct {
	Origin  string
	Indices []int
}

// LoginSources enumerates the masks available for a login on origin: the
// origin's own masks first, then one group per incoming link in stored
// set order. Groups are present even when empty so callers can render the
// origin's own (possibly empty) group first.
func LoginSources(state *State, origin string) []LoginSource {
	data := state.Origin(origin)
	sources := make([]LoginSource, 0, 1+len(data.LinksFrom))
	sources = append(sources, sourceFor(state, origin))
	for _, grantor := range data.LinksFrom {
		sources = append(sources, sourceFor(state, grantor))
	}
	return sources
}

func sourceFor(state *State, origin string) LoginSource {
	total := state.Origin(origin).IdentitiesTotal
	indices := make([]int, total)
	for i := range indices {
		indices[i] = i
	}
	return LoginSource{Origin: origin, Indices: indices}
}
