package masks

// OriginData is the per-origin record: how many masks exist on the origin,
// which origins it trusts (incoming) and has granted (outgoing), the
// current session slot and a usage counter.
//
// LinksFrom and LinksTo are ordered sets: insertion order is preserved so
// login-option listings are stable, and membership is unique. The graph
// invariant (an edge A -> B appears in LinksTo(A) iff it appears in
// LinksFrom(B)) is maintained by Graph, never by direct mutation.
type OriginData struct {
	IdentitiesTotal int         `json:"identities_total"`
	LinksFrom       []string    `json:"links_from,omitempty"`
	LinksTo         []string    `json:"links_to,omitempty"`
	Session         SessionSlot `json:"session"`
	RequestCount    int64       `json:"request_count,omitempty"`
}

func newOriginData() *OriginData {
	return &OriginData{}
}

func (d *OriginData) Clone() *OriginData {
	if d == nil {
		return nil
	}
	out := *d
	out.LinksFrom = append([]string(nil), d.LinksFrom...)
	out.LinksTo = append([]string(nil), d.LinksTo...)
	return &out
}

func containsOrigin(set []string, origin string) bool {
	for _, o := range set {
		if o == origin {
			return true
		}
	}
	return false
}

func appendOrigin(set []string, origin string) []string {
	if containsOrigin(set, origin) {
		return set
	}
	return append(set, origin)
}

func removeOrigin(set []string, origin string) []string {
	for i, o := range set {
		if o == origin {
			return append(set[:i:i], set[i+1:]...)
		}
	}
	return set
}
