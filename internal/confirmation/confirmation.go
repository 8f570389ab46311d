// Package confirmation issues the one-time links students use to set their
// password, and redeems them.
package confirmation

import (
	"context"
	"log/slog"
	"time"

	"github.com/jmfitness/studio-management/internal"
)

var (
	ErrTokenInvalid     = internal.NewValidationError("Token inválido ou já utilizado", internal.ErrCodeTokenAlreadyUsed)
	ErrTokenExpired     = internal.NewValidationError("Token expirado. Solicite um novo cadastro.", internal.ErrCodeTokenExpired)
	ErrIdentityMismatch = internal.NewValidationError("E-mail ou CPF não coincidem com os dados cadastrados", internal.ErrCodeIdentityMismatch)
)

type Kind string

const (
	KindWelcome       Kind = "welcome"
	KindPasswordReset Kind = "password_reset"
)

func (k Kind) Subject() string {
	if k == KindPasswordReset {
		return "JM Fitness Studio - Redefinição de senha"
	}
	return "Bem-vindo(a) ao JM Fitness Studio - Confirme sua conta"
}

// Ticket is a freshly issued token and the link that redeems it.
type Ticket struct {
	Token     string
	Link      string
	ExpiresAt time.Time
}

// TokenOwner is an unused token joined with the account it belongs to.
type TokenOwner struct {
	TokenID   string
	UserID    string
	Name      string
	Email     string
	CPF       string
	ExpiresAt time.Time
}

type Message struct {
	Kind    Kind
	To      string
	Name    string
	Subject string
	Link    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes the message to the log instead of delivering it.
type LogMailer struct {
	Logger *slog.Logger
}

func (m LogMailer) Send(_ context.Context, msg Message) error {
	m.Logger.Info("confirmation e-mail",
		"kind", msg.Kind,
		"to", msg.To,
		"name", msg.Name,
		"subject", msg.Subject,
		"link", msg.Link)
	return nil
}
