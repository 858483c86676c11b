package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"maskvault/go-backend/internal/identity"
	"maskvault/go-backend/internal/platform/privacylog"
	"maskvault/go-backend/internal/storage"

	"github.com/prometheus/client_golang/prometheus"
)

// ConsentPrompt is the content shown to the user before a state-changing
// operation that requires explicit approval.
type ConsentPrompt struct {
	Title string
	Body  string
}

// Consent is the user-confirmation collaborator. A declined prompt is a
// normal outcome, not an error: the operation reports "not performed"
// and changes nothing. The core never infers consent.
type Consent interface {
	Confirm(ctx context.Context, prompt ConsentPrompt) (bool, error)
}

// StaticConsent approves or declines every prompt. The daemon uses an
// approving instance when its RPC clients gate operations behind their
// own dialogs; tests use both settings.
type StaticConsent struct {
	Approve bool
}

func (c StaticConsent) Confirm(ctx context.Context, prompt ConsentPrompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return c.Approve, nil
}

// ServiceOptions wires the service's collaborators. Store and Seeds are
// required; the rest default.
type ServiceOptions struct {
	Store      storage.StateStore
	Seeds      *identity.SeedManager
	Consent    Consent
	Logger     *slog.Logger
	Registerer prometheus.Registerer
	Now        func() time.Time
}

// DefaultLogger emits JSON with origin fingerprinting applied, so log
// output never carries the sites a user holds masks for.
func DefaultLogger() *slog.Logger {
	return slog.New(privacylog.WrapHandler(slog.NewJSONHandler(os.Stdout, nil)))
}
