package masks

import (
	"errors"
	"testing"
)

func TestLoginOnOwnOriginSucceeds(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")
	state.AddIdentity("https://a.example")
	if got := state.Origin("https://a.example").IdentitiesTotal; got != 2 {
		t.Fatalf("expected 2 identities, got %d", got)
	}

	session, err := Login(state, "https://a.example", "https://a.example", 1, 1700000000000)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.IdentityIndex != 1 || session.DerivationOrigin != "https://a.example" {
		t.Fatalf("unexpected session: %#v", session)
	}
	if !IsAuthenticated(state, "https://a.example") {
		t.Fatal("expected authenticated state after login")
	}

	if !Logout(state, "https://a.example") {
		t.Fatal("logout must report an active session was cleared")
	}
	if IsAuthenticated(state, "https://a.example") {
		t.Fatal("expected anonymous state after logout")
	}
}

func TestLoginWithoutLinkIsUnauthorized(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")

	_, err := Login(state, "https://b.example", "https://a.example", 0, 1)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if IsAuthenticated(state, "https://b.example") {
		t.Fatal("failed login must not leave a session behind")
	}
}

func TestLoginReverseEdgeDoesNotAuthorize(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")
	// b exposed its masks to a; that grants nothing in the direction the
	// login needs.
	if err := NewGraph(state).Link("https://b.example", "https://a.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	_, err := Login(state, "https://b.example", "https://a.example", 0, 1)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
}

func TestLoginThroughLinkSucceeds(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")
	if err := NewGraph(state).Link("https://a.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	session, err := Login(state, "https://b.example", "https://a.example", 0, 7)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if session.DerivationOrigin != "https://a.example" {
		t.Fatalf("unexpected derivation origin: %q", session.DerivationOrigin)
	}
}

func TestLoginWithZeroIdentitiesIsInvariantViolation(t *testing.T) {
	state := NewState()
	if err := NewGraph(state).Link("https://a.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	_, err := Login(state, "https://b.example", "https://a.example", 0, 1)
	if !errors.Is(err, ErrNoIdentities) {
		t.Fatalf("expected ErrNoIdentities, got %v", err)
	}
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("zero-identity login must be invariant class, got %v", err)
	}
}

func TestLoginIndexOutOfRange(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")

	for _, index := range []int{-1, 1, 99} {
		_, err := Login(state, "https://a.example", "https://a.example", index, 1)
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("index %d: expected ErrIndexOutOfRange, got %v", index, err)
		}
	}
}

func TestLogoutWithoutSessionReportsFalse(t *testing.T) {
	state := NewState()
	if Logout(state, "https://a.example") {
		t.Fatal("logout on anonymous origin must report false")
	}
}

func TestLoginSourcesOrderAndCompleteness(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")
	state.AddIdentity("https://a.example")
	if err := NewGraph(state).Link("https://a.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	sources := LoginSources(state, "https://b.example")
	if len(sources) != 2 {
		t.Fatalf("expected 2 source groups, got %d", len(sources))
	}
	if sources[0].Origin != "https://b.example" || len(sources[0].Indices) != 0 {
		t.Fatalf("first group must be the origin's own (empty) masks: %#v", sources[0])
	}
	if sources[1].Origin != "https://a.example" || len(sources[1].Indices) != 2 {
		t.Fatalf("second group must hold the grantor's 2 masks: %#v", sources[1])
	}
	if sources[1].Indices[0] != 0 || sources[1].Indices[1] != 1 {
		t.Fatalf("unexpected mask indices: %v", sources[1].Indices)
	}
}

func TestLoginSourcesPreserveStoredLinkOrder(t *testing.T) {
	state := NewState()
	graph := NewGraph(state)
	state.AddIdentity("https://c.example")
	state.AddIdentity("https://a.example")
	if err := graph.Link("https://c.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if err := graph.Link("https://a.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	sources := LoginSources(state, "https://b.example")
	if len(sources) != 3 {
		t.Fatalf("expected 3 source groups, got %d", len(sources))
	}
	if sources[1].Origin != "https://c.example" || sources[2].Origin != "https://a.example" {
		t.Fatalf("groups must follow stored link order: %#v", sources)
	}
}
