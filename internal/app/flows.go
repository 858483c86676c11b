package app

import (
	"context"
	"fmt"

	"maskvault/go-backend/internal/identity"
	"maskvault/go-backend/internal/masks"
	"maskvault/go-backend/pkg/models"
)

// --- masks ---

// AddMask mints the next identity index on origin and returns the new
// mask. The key itself is derived on demand and never stored.
func (s *Service) AddMask(ctx context.Context, origin string) (models.Mask, error) {
	origin = masks.NormalizeOrigin(origin)
	if origin == "" {
		return models.Mask{}, masks.ErrOriginRequired
	}
	var mask models.Mask
	err := s.run(ctx, "mask.add", func(o *Orchestrator) error {
		index := o.AddIdentity(origin)
		var err error
		mask, err = s.maskFor(origin, index, identity.DefaultPurpose)
		if err != nil {
			return err
		}
		o.IncrementStats(origin)
		return nil
	})
	return mask, err
}

// ListMasks enumerates the origin's own masks, deriving each public key
// on demand.
func (s *Service) ListMasks(ctx context.Context, origin string) ([]models.Mask, error) {
	origin = masks.NormalizeOrigin(origin)
	if origin == "" {
		return nil, masks.ErrOriginRequired
	}
	var out []models.Mask
	err := s.run(ctx, "mask.list", func(o *Orchestrator) error {
		total := o.OriginData(origin).IdentitiesTotal
		out = make([]models.Mask, 0, total)
		for index := 0; index < total; index++ {
			mask, err := s.maskFor(origin, index, identity.DefaultPurpose)
			if err != nil {
				return err
			}
			out = append(out, mask)
		}
		o.IncrementStats(origin)
		return nil
	})
	return out, err
}

// MaskPublicKey derives and returns one mask without touching sessions.
func (s *Service) MaskPublicKey(ctx context.Context, origin string, index int, purpose string) (models.Mask, error) {
	origin = masks.NormalizeOrigin(origin)
	if origin == "" {
		return models.Mask{}, masks.ErrOriginRequired
	}
	var mask models.Mask
	err := s.run(ctx, "mask.public_key", func(o *Orchestrator) error {
		if index < 0 || index >= o.OriginData(origin).IdentitiesTotal {
			return masks.ErrIndexOutOfRange
		}
		var err error
		mask, err = s.maskFor(origin, index, purpose)
		if err != nil {
			return err
		}
		o.IncrementStats(origin)
		return nil
	})
	return mask, err
}

func (s *Service) maskFor(origin string, index int, purpose string) (models.Mask, error) {
	pair, err := s.deriver.Derive(origin, index, purpose, nil)
	if err != nil {
		return models.Mask{}, err
	}
	defer pair.Zero()
	publicKey := pair.PublicKey()
	address, err := identity.MaskAddress(publicKey)
	if err != nil {
		return models.Mask{}, err
	}
	return models.Mask{
		Origin:    origin,
		Index:     index,
		PublicKey: publicKey,
		Address:   address,
	}, nil
}

// --- links ---

// Link exposes grantor's masks to grantee after user consent. A declined
// prompt reports performed=false with no state change; linking an
// existing edge is an idempotent success.
func (s *Service) Link(ctx context.Context, grantor, grantee string) (bool, error) {
	grantor = masks.NormalizeOrigin(grantor)
	grantee = masks.NormalizeOrigin(grantee)
	if grantor == "" || grantee == "" {
		return false, masks.ErrOriginRequired
	}
	if grantor == grantee {
		return false, masks.ErrSelfLink
	}

	ok, err := s.confirm(ctx, ConsentPrompt{
		Title: "Share masks",
		Body:  fmt.Sprintf("Allow %s to present masks created on %s?", grantee, grantor),
	})
	if err != nil || !ok {
		return false, err
	}

	err = s.run(ctx, "link.add", func(o *Orchestrator) error {
		if err := o.Graph().Link(grantor, grantee); err != nil {
			return err
		}
		o.MarkDirty()
		o.IncrementStats(grantor)
		return nil
	})
	return err == nil, err
}

// Unlink severs the relationship between the two origins after user
// consent, clearing any session that was borrowing the other side's
// masks. Absent edges are a no-op success.
func (s *Service) Unlink(ctx context.Context, origin, otherOrigin string) (bool, error) {
	origin = masks.NormalizeOrigin(origin)
	otherOrigin = masks.NormalizeOrigin(otherOrigin)
	if origin == "" || otherOrigin == "" {
		return false, masks.ErrOriginRequired
	}

	ok, err := s.confirm(ctx, ConsentPrompt{
		Title: "Stop sharing masks",
		Body:  fmt.Sprintf("Stop sharing masks between %s and %s?", origin, otherOrigin),
	})
	if err != nil || !ok {
		return false, err
	}

	err = s.run(ctx, "link.remove", func(o *Orchestrator) error {
		o.Graph().Unlink(origin, otherOrigin)
		o.MarkDirty()
		o.IncrementStats(origin)
		return nil
	})
	return err == nil, err
}

func (s *Service) LinkExists(ctx context.Context, grantor, grantee string) (bool, error) {
	grantor = masks.NormalizeOrigin(grantor)
	grantee = masks.NormalizeOrigin(grantee)
	var exists bool
	err := s.run(ctx, "link.exists", func(o *Orchestrator) error {
		exists = o.Graph().Exists(grantor, grantee)
		return nil
	})
	return exists, err
}

// --- sessions ---

// Login authenticates origin with one of derivationOrigin's masks;
// preconditions are enforced by the domain layer.
func (s *Service) Login(ctx context.Context, origin, derivationOrigin string, identityIndex int) (models.SessionInfo, error) {
	origin = masks.NormalizeOrigin(origin)
	derivationOrigin = masks.NormalizeOrigin(derivationOrigin)
	var info models.SessionInfo
	err := s.run(ctx, "session.login", func(o *Orchestrator) error {
		session, err := masks.Login(o.Masks(), origin, derivationOrigin, identityIndex, s.nowMs())
		if err != nil {
			return err
		}
		info = sessionInfo(origin, session)
		o.MarkDirty()
		o.IncrementStats(origin)
		return nil
	})
	return info, err
}

// Logout clears origin's session after user consent. Reports whether a
// session was actually cleared.
func (s *Service) Logout(ctx context.Context, origin string) (bool, error) {
	origin = masks.NormalizeOrigin(origin)
	if origin == "" {
		return false, masks.ErrOriginRequired
	}

	ok, err := s.confirm(ctx, ConsentPrompt{
		Title: "Log out",
		Body:  fmt.Sprintf("Log out of %s?", origin),
	})
	if err != nil || !ok {
		return false, err
	}

	var performed bool
	err = s.run(ctx, "session.logout", func(o *Orchestrator) error {
		performed = masks.Logout(o.Masks(), origin)
		if performed {
			o.MarkDirty()
		}
		o.IncrementStats(origin)
		return nil
	})
	if err != nil {
		return false, err
	}
	return performed, nil
}

func (s *Service) IsLoggedIn(ctx context.Context, origin string) (bool, error) {
	origin = masks.NormalizeOrigin(origin)
	var authed bool
	err := s.run(ctx, "session.status", func(o *Orchestrator) error {
		authed = masks.IsAuthenticated(o.Masks(), origin)
		return nil
	})
	return authed, err
}

func (s *Service) ActiveSession(ctx context.Context, origin string) (models.SessionInfo, bool, error) {
	origin = masks.NormalizeOrigin(origin)
	var (
		info   models.SessionInfo
		active bool
	)
	err := s.run(ctx, "session.get", func(o *Orchestrator) error {
		session, ok := masks.ActiveSession(o.Masks(), origin)
		if ok {
			info = sessionInfo(origin, session)
			active = true
		}
		return nil
	})
	return info, active, err
}

// GetLoginOptions enumerates every mask origin may log in with: its own
// first, then one group per incoming link in stored order. One
// derivation per listed mask.
func (s *Service) GetLoginOptions(ctx context.Context, origin string) ([]models.LoginOptionGroup, error) {
	origin = masks.NormalizeOrigin(origin)
	if origin == "" {
		return nil, masks.ErrOriginRequired
	}
	var groups []models.LoginOptionGroup
	err := s.run(ctx, "session.login_options", func(o *Orchestrator) error {
		sources := masks.LoginSources(o.Masks(), origin)
		groups = make([]models.LoginOptionGroup, 0, len(sources))
		for _, source := range sources {
			group := models.LoginOptionGroup{
				Origin: source.Origin,
				Masks:  make([]models.Mask, 0, len(source.Indices)),
			}
			for _, index := range source.Indices {
				mask, err := s.maskFor(source.Origin, index, identity.DefaultPurpose)
				if err != nil {
					return err
				}
				group.Masks = append(group.Masks, mask)
			}
			groups = append(groups, group)
		}
		o.IncrementStats(origin)
		return nil
	})
	return groups, err
}

// SignMessage signs with the mask of origin's active session. The key is
// derived for this call and wiped afterwards.
func (s *Service) SignMessage(ctx context.Context, origin string, message []byte, purpose string, customSalt []byte) (models.SignatureResult, error) {
	origin = masks.NormalizeOrigin(origin)
	if origin == "" {
		return models.SignatureResult{}, masks.ErrOriginRequired
	}
	var result models.SignatureResult
	err := s.run(ctx, "mask.sign", func(o *Orchestrator) error {
		session, ok := masks.ActiveSession(o.Masks(), origin)
		if !ok {
			return masks.ErrNotAuthenticated
		}
		pair, err := s.deriver.Derive(session.DerivationOrigin, session.IdentityIndex, purpose, customSalt)
		if err != nil {
			return err
		}
		defer pair.Zero()
		publicKey := pair.PublicKey()
		address, err := identity.MaskAddress(publicKey)
		if err != nil {
			return err
		}
		result = models.SignatureResult{
			Signature: pair.Sign(message),
			PublicKey: publicKey,
			Address:   address,
		}
		o.IncrementStats(origin)
		return nil
	})
	return result, err
}

// --- stats and site session ---

func (s *Service) OriginStats(ctx context.Context, origin string) (models.OriginStats, error) {
	origin = masks.NormalizeOrigin(origin)
	if origin == "" {
		return models.OriginStats{}, masks.ErrOriginRequired
	}
	var stats models.OriginStats
	err := s.run(ctx, "stats.origin", func(o *Orchestrator) error {
		data := o.OriginData(origin)
		stats = models.OriginStats{
			Origin:          origin,
			IdentitiesTotal: data.IdentitiesTotal,
			RequestCount:    data.RequestCount,
			LinksTo:         append([]string(nil), data.LinksTo...),
			LinksFrom:       append([]string(nil), data.LinksFrom...),
			Authenticated:   data.Session.IsAuthenticated(),
		}
		return nil
	})
	return stats, err
}

func (s *Service) GetSiteSession(ctx context.Context) (models.SiteSession, bool, error) {
	var (
		session models.SiteSession
		present bool
	)
	err := s.run(ctx, "site_session.get", func(o *Orchestrator) error {
		if current := o.SiteSession(); current != nil {
			session = models.SiteSession{Token: current.Token, IssuedAtMs: current.IssuedAtMs}
			present = true
		}
		return nil
	})
	return session, present, err
}

func (s *Service) SetSiteSession(ctx context.Context, token string) (models.SiteSession, error) {
	if token == "" {
		return models.SiteSession{}, masks.ErrInvalidInput
	}
	session := models.SiteSession{Token: token, IssuedAtMs: s.nowMs()}
	err := s.run(ctx, "site_session.set", func(o *Orchestrator) error {
		o.SetSiteSession(&masks.SiteSession{Token: session.Token, IssuedAtMs: session.IssuedAtMs})
		return nil
	})
	return session, err
}

func (s *Service) ClearSiteSession(ctx context.Context) (bool, error) {
	var cleared bool
	err := s.run(ctx, "site_session.clear", func(o *Orchestrator) error {
		if o.SiteSession() != nil {
			o.SetSiteSession(nil)
			cleared = true
		}
		return nil
	})
	return cleared, err
}

func sessionInfo(origin string, session masks.Session) models.SessionInfo {
	return models.SessionInfo{
		Origin:           origin,
		IdentityIndex:    session.IdentityIndex,
		DerivationOrigin: session.DerivationOrigin,
		TimestampMs:      session.TimestampMs,
	}
}
