package rpc

import (
	"context"
	"encoding/json"
)

func (s *Server) dispatch(ctx context.Context, method string, rawParams json.RawMessage) (any, *rpcError) {
	switch method {
	case "health_check":
		return map[string]string{"status": "ok"}, nil

	// --- seed lifecycle ---
	case "seed.create":
		var p passwordParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		mnemonic, err := s.service.CreateIdentity(ctx, p.Password)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]string{"mnemonic": mnemonic}, nil
	case "seed.import":
		var p mnemonicParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		if err := s.service.ImportIdentity(ctx, p.Mnemonic, p.Password); err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"imported": true}, nil
	case "seed.unlock":
		var p passwordParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		if err := s.service.UnlockSeed(ctx, p.Password); err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"unlocked": true}, nil
	case "seed.lock":
		s.service.LockSeed(ctx)
		return map[string]bool{"locked": true}, nil
	case "seed.export":
		var p passwordParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		mnemonic, err := s.service.ExportSeed(ctx, p.Password)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]string{"mnemonic": mnemonic}, nil
	case "seed.change_password":
		var p changePasswordParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		if err := s.service.ChangePassword(ctx, p.OldPassword, p.NewPassword); err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"changed": true}, nil
	case "seed.validate":
		var p mnemonicParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"valid": s.service.ValidateMnemonic(p.Mnemonic)}, nil
	case "seed.status":
		return s.service.SeedStatus(ctx), nil

	// --- masks ---
	case "mask.add":
		var p originParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		mask, err := s.service.AddMask(ctx, p.Origin)
		if err != nil {
			return nil, mapError(err)
		}
		return mask, nil
	case "mask.list":
		var p originParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		list, err := s.service.ListMasks(ctx, p.Origin)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]any{"masks": list}, nil
	case "mask.public_key":
		var p maskKeyParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		mask, err := s.service.MaskPublicKey(ctx, p.Origin, p.Index, p.Purpose)
		if err != nil {
			return nil, mapError(err)
		}
		return mask, nil
	case "mask.sign":
		var p signParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		result, err := s.service.SignMessage(ctx, p.Origin, p.Message, p.Purpose, p.CustomSalt)
		if err != nil {
			return nil, mapError(err)
		}
		return result, nil

	// --- links ---
	case "link.add":
		var p linkParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		performed, err := s.service.Link(ctx, p.Grantor, p.Grantee)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"performed": performed}, nil
	case "link.remove":
		var p unlinkParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		performed, err := s.service.Unlink(ctx, p.Origin, p.OtherOrigin)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"performed": performed}, nil
	case "link.exists":
		var p linkParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		exists, err := s.service.LinkExists(ctx, p.Grantor, p.Grantee)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"exists": exists}, nil

	// --- sessions ---
	case "session.login":
		var p loginParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		info, err := s.service.Login(ctx, p.Origin, p.DerivationOrigin, p.IdentityIndex)
		if err != nil {
			return nil, mapError(err)
		}
		return info, nil
	case "session.logout":
		var p originParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		performed, err := s.service.Logout(ctx, p.Origin)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"performed": performed}, nil
	case "session.status":
		var p originParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		authed, err := s.service.IsLoggedIn(ctx, p.Origin)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"authenticated": authed}, nil
	case "session.get":
		var p originParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		info, active, err := s.service.ActiveSession(ctx, p.Origin)
		if err != nil {
			return nil, mapError(err)
		}
		if !active {
			return map[string]any{"active": false}, nil
		}
		return map[string]any{"active": true, "session": info}, nil
	case "session.login_options":
		var p originParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		groups, err := s.service.GetLoginOptions(ctx, p.Origin)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]any{"groups": groups}, nil

	// --- stats and site session ---
	case "stats.origin":
		var p originParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		stats, err := s.service.OriginStats(ctx, p.Origin)
		if err != nil {
			return nil, mapError(err)
		}
		return stats, nil
	case "site_session.get":
		session, present, err := s.service.GetSiteSession(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		if !present {
			return map[string]any{"present": false}, nil
		}
		return map[string]any{"present": true, "session": session}, nil
	case "site_session.set":
		var p siteSessionParams
		if err := decodeInto(rawParams, &p); err != nil {
			return nil, mapError(err)
		}
		session, err := s.service.SetSiteSession(ctx, p.Token)
		if err != nil {
			return nil, mapError(err)
		}
		return session, nil
	case "site_session.clear":
		cleared, err := s.service.ClearSiteSession(ctx)
		if err != nil {
			return nil, mapError(err)
		}
		return map[string]bool{"cleared": cleared}, nil
	}

	return nil, &rpcError{Code: -32601, Message: "method not found"}
}
