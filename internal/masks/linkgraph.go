package masks

// Graph is the directed origin-link graph over a State. An edge
// grantor -> grantee means the grantor has exposed its masks to the
// grantee. The edge is stored redundantly (LinksTo on the grantor,
// LinksFrom on the grantee) for O(1) lookup both ways; all mutations go
// through Graph so both sides always change together.
type Graph struct {
	state *State
}

func NewGraph(state *State) Graph {
	return Graph{state: state}
}

// Exists reports whether grantor has exposed its masks to grantee.
// Direction matters: Exists(a, b) says nothing about Exists(b, a).
func (g Graph) Exists(grantor, grantee string) bool {
	data, ok := g.state.Origins[grantor]
	if !ok {
		return false
	}
	return containsOrigin(data.LinksTo, grantee)
}

// Link adds the edge grantor -> grantee. Self-links are rejected; linking
// an existing edge is an idempotent success. Only the grantor side ever
// initiates a link: there is no operation that pulls another origin's
// masks from the grantee side.
func (g Graph) Link(grantor, grantee string) error {
	if grantor == "" || grantee == "" {
		return ErrOriginRequired
	}
	if grantor == grantee {
		return ErrSelfLink
	}
	if g.Exists(grantor, grantee) {
		return nil
	}
	from := g.state.Origin(grantor)
	to := g.state.Origin(grantee)
	from.LinksTo = appendOrigin(from.LinksTo, grantee)
	to.LinksFrom = appendOrigin(to.LinksFrom, grantor)
	return nil
}

// Unlink severs the relationship between the two origins: both directed
// edges are removed when present, and any session that was borrowing the
// other side's masks is cleared. Absent edges are a no-op.
func (g Graph) Unlink(a, b string) {
	g.removeEdge(a, b)
	g.removeEdge(b, a)
}

func (g Graph) removeEdge(grantor, grantee string) {
	from, ok := g.state.Origins[grantor]
	if !ok || !containsOrigin(from.LinksTo, grantee) {
		return
	}
	from.LinksTo = removeOrigin(from.LinksTo, grantee)
	if to, ok := g.state.Origins[grantee]; ok {
		to.LinksFrom = removeOrigin(to.LinksFrom, grantor)
		// The grantee may be wearing one of the grantor's masks; that
		// session dies with the edge.
		if session, active := to.Session.Authenticated(); active && session.DerivationOrigin == grantor {
			to.Session.Clear()
		}
	}
}
