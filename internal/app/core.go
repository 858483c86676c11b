package app

import (
	"context"

	"maskvault/go-backend/pkg/models"
)

// CoreAPI is the full operation surface the RPC boundary dispatches to.
type CoreAPI interface {
	CreateIdentity(ctx context.Context, password string) (string, error)
	ImportIdentity(ctx context.Context, mnemonic, password string) error
	UnlockSeed(ctx context.Context, password string) error
	LockSeed(ctx context.Context)
	ExportSeed(ctx context.Context, password string) (string, error)
	ChangePassword(ctx context.Context, oldPassword, newPassword string) error
	ValidateMnemonic(mnemonic string) bool
	SeedStatus(ctx context.Context) models.SeedStatus

	AddMask(ctx context.Context, origin string) (models.Mask, error)
	ListMasks(ctx context.Context, origin string) ([]models.Mask, error)
	MaskPublicKey(ctx context.Context, origin string, index int, purpose string) (models.Mask, error)
	SignMessage(ctx context.Context, origin string, message []byte, purpose string, customSalt []byte) (models.SignatureResult, error)

	Link(ctx context.Context, grantor, grantee string) (bool, error)
	Unlink(ctx context.Context, origin, otherOrigin string) (bool, error)
	LinkExists(ctx context.Context, grantor, grantee string) (bool, error)

	Login(ctx context.Context, origin, derivationOrigin string, identityIndex int) (models.SessionInfo, error)
	Logout(ctx context.Context, origin string) (bool, error)
	IsLoggedIn(ctx context.Context, origin string) (bool, error)
	ActiveSession(ctx context.Context, origin string) (models.SessionInfo, bool, error)
	GetLoginOptions(ctx context.Context, origin string) ([]models.LoginOptionGroup, error)

	OriginStats(ctx context.Context, origin string) (models.OriginStats, error)
	GetSiteSession(ctx context.Context) (models.SiteSession, bool, error)
	SetSiteSession(ctx context.Context, token string) (models.SiteSession, error)
	ClearSiteSession(ctx context.Context) (bool, error)
}

var _ CoreAPI = (*Service)(nil)
