package masks

import (
	"encoding/json"
	"testing"
)

func TestOriginMaterializesLazily(t *testing.T) {
	state := NewState()
	data := state.Origin("https://a.example")
	if data.IdentitiesTotal != 0 || data.Session.IsAuthenticated() {
		t.Fatalf("fresh origin record must be empty: %#v", data)
	}
	if _, ok := state.Origins["https://a.example"]; !ok {
		t.Fatal("origin record must be materialized in the map")
	}
}

func TestNormalizeOrigin(t *testing.T) {
	if got := NormalizeOrigin("  HTTPS://A.Example "); got != "https://a.example" {
		t.Fatalf("unexpected normalized origin: %q", got)
	}
}

func TestAddIdentityAssignsMonotonicIndexes(t *testing.T) {
	state := NewState()
	for want := 0; want < 3; want++ {
		if got := state.AddIdentity("https://a.example"); got != want {
			t.Fatalf("expected index %d, got %d", want, got)
		}
	}
	if got := state.Origin("https://a.example").IdentitiesTotal; got != 3 {
		t.Fatalf("expected 3 identities, got %d", got)
	}
}

func TestCloneDoesNotAliasOriginData(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")
	if err := NewGraph(state).Link("https://a.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}

	clone := state.Clone()
	clone.AddIdentity("https://a.example")
	clone.Origin("https://a.example").LinksTo[0] = "https://evil.example"

	if state.Origin("https://a.example").IdentitiesTotal != 1 {
		t.Fatal("clone mutation leaked into the source identity count")
	}
	if state.Origin("https://a.example").LinksTo[0] != "https://b.example" {
		t.Fatal("clone mutation leaked into the source link set")
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	state := NewState()
	state.AddIdentity("https://a.example")
	state.SiteSession = &SiteSession{Token: "tok", IssuedAtMs: 99}
	if err := NewGraph(state).Link("https://a.example", "https://b.example"); err != nil {
		t.Fatalf("link failed: %v", err)
	}
	if _, err := Login(state, "https://b.example", "https://a.example", 0, 123); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	restored := NewState()
	if err := json.Unmarshal(raw, restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	session, ok := ActiveSession(restored, "https://b.example")
	if !ok {
		t.Fatal("session lost across round trip")
	}
	if session.DerivationOrigin != "https://a.example" || session.TimestampMs != 123 {
		t.Fatalf("unexpected restored session: %#v", session)
	}
	if restored.SiteSession == nil || restored.SiteSession.Token != "tok" {
		t.Fatalf("site session lost: %#v", restored.SiteSession)
	}
	if !IsAuthenticated(restored, "https://b.example") {
		t.Fatal("restored slot must be authenticated")
	}
	if IsAuthenticated(restored, "https://a.example") {
		t.Fatal("anonymous slot must survive round trip as anonymous")
	}
}
