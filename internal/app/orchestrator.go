package app

import (
	"context"

	"maskvault/go-backend/internal/masks"
	"maskvault/go-backend/internal/securestore"
	"maskvault/go-backend/internal/storage"
)

// Orchestrator owns the loaded state for exactly one request. It is
// constructed by loading the latest persisted snapshot and is never
// reused: a stale orchestrator would let one request observe another's
// half-applied mutations.
type Orchestrator struct {
	store storage.StateStore
	state *storage.PersistedState
	dirty bool
}

func beginRequest(ctx context.Context, store storage.StateStore) (*Orchestrator, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{store: store, state: state}, nil
}

func (o *Orchestrator) Masks() *masks.State {
	return o.state.Masks
}

func (o *Orchestrator) Graph() masks.Graph {
	return masks.NewGraph(o.state.Masks)
}

// OriginData returns the record for origin, materializing a default in
// memory on first interaction. Materialization alone does not mark the
// snapshot dirty; nothing is persisted until a real mutation happens.
func (o *Orchestrator) OriginData(origin string) *masks.OriginData {
	return o.state.Masks.Origin(origin)
}

// SetOriginData replaces the stored record wholesale.
func (o *Orchestrator) SetOriginData(origin string, data *masks.OriginData) {
	o.state.Masks.SetOrigin(origin, data)
	o.dirty = true
}

// AddIdentity grows the origin's mask count and returns the new index.
func (o *Orchestrator) AddIdentity(origin string) int {
	o.dirty = true
	return o.state.Masks.AddIdentity(origin)
}

// IncrementStats bumps the origin's usage counter. Stats are
// observability only, but they are persisted state, so even an otherwise
// read-only request that incremented them must persist.
func (o *Orchestrator) IncrementStats(origin string) {
	o.OriginData(origin).RequestCount++
	o.dirty = true
}

func (o *Orchestrator) SetSeedEnvelope(env *securestore.Envelope) {
	o.state.SeedEnvelope = env
	o.dirty = true
}

func (o *Orchestrator) SeedEnvelope() *securestore.Envelope {
	return o.state.SeedEnvelope
}

func (o *Orchestrator) SiteSession() *masks.SiteSession {
	return o.state.Masks.SiteSession
}

func (o *Orchestrator) SetSiteSession(session *masks.SiteSession) {
	o.state.Masks.SiteSession = session
	o.dirty = true
}

// MarkDirty forces a persist at the end of the request.
func (o *Orchestrator) MarkDirty() {
	o.dirty = true
}

// Persist writes the whole state back through the store. It runs at most
// once, at the end of a request whose mutations all succeeded; requests
// that mutated nothing skip the write.
func (o *Orchestrator) Persist(ctx context.Context) error {
	if !o.dirty {
		return nil
	}
	if err := o.store.Save(ctx, o.state); err != nil {
		return err
	}
	o.dirty = false
	return nil
}
