package user

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/pkg/sanitize"
)

const (
	MinAdultAge = 18
	MaxAge      = 100
)

// PersonalDTO is the personal-data block every registration form carries.
type PersonalDTO struct {
	Name      string `json:"name" validate:"required,min=2,max=100"`
	CPF       string `json:"cpf" validate:"required,cpf"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Telephone string `json:"telephone" validate:"required,min=10,max=20"`
	Address   string `json:"address" validate:"required,min=10,max=255"`
	BornDate  string `json:"bornDate" validate:"required,date"`
	Sex       string `json:"sex" validate:"required,oneof=masculino feminino"`
}

// Normalize trims the text fields, keeps only the CPF digits and lowercases
// the e-mail. Call it before validating.
func (p *PersonalDTO) Normalize() {
	p.Name = sanitize.Text(p.Name)
	p.CPF = validation.Digits(p.CPF)
	p.Email = NormalizeEmail(p.Email)
	p.Telephone = strings.TrimSpace(p.Telephone)
	p.Address = sanitize.Text(p.Address)
	p.BornDate = strings.TrimSpace(p.BornDate)
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Age returns the age in whole years at now.
func Age(born, now time.Time) int {
	age := now.Year() - born.Year()
	if now.Month() < born.Month() || (now.Month() == born.Month() && now.Day() < born.Day()) {
		age--
	}
	return age
}

// CheckAge returns a bornDate field error when the age falls outside [min, max].
func CheckAge(born, now time.Time, min, max int) error {
	age := Age(born, now)
	if age < min || age > max {
		return internal.NewValidationFieldError("bornDate",
			fmt.Sprintf("Idade deve estar entre %d e %d anos", min, max))
	}
	return nil
}

// Account is a user row plus its personal data, ready to insert.
type Account struct {
	Role         auth.Role
	Personal     PersonalDTO
	PasswordHash *string
}

// AccountStore is the part of the user repository that other registration
// flows share.
type AccountStore interface {
	// IdentifiersInUse reports whether cpf or email belong to a user other
	// than exceptUserID.
	IdentifiersInUse(ctx context.Context, cpf, email, exceptUserID string) (cpfTaken, emailTaken bool, err error)
	InsertAccount(ctx context.Context, u *userDatamodel.User, p *userDatamodel.PersonalData) error
}

// Registrar creates the users and personal_data rows for admins, employees
// and students. It writes through the transaction in ctx when there is one.
type Registrar struct {
	store AccountStore
}

func NewRegistrar(store AccountStore) *Registrar {
	return &Registrar{store: store}
}

// EnsureAvailable fails with a conflict carrying cpf/email field errors when
// either identifier is already registered.
func (r *Registrar) EnsureAvailable(ctx context.Context, cpf, email, exceptUserID string) error {
	cpfTaken, emailTaken, err := r.store.IdentifiersInUse(ctx, cpf, email, exceptUserID)
	if err != nil {
		return internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	if cpfTaken || emailTaken {
		return DuplicateError(cpfTaken, emailTaken)
	}
	return nil
}

// Register inserts acc and returns the new user id. The personal data must
// already be normalized and validated.
func (r *Registrar) Register(ctx context.Context, acc Account) (string, error) {
	if err := r.EnsureAvailable(ctx, acc.Personal.CPF, acc.Personal.Email, ""); err != nil {
		return "", err
	}

	born, err := validation.ParseDate(acc.Personal.BornDate)
	if err != nil {
		return "", internal.NewValidationFieldError("bornDate", "Data de nascimento deve ser uma data válida (AAAA-MM-DD)")
	}

	u := &userDatamodel.User{
		Name:     acc.Personal.Name,
		UserRole: string(acc.Role),
		Password: acc.PasswordHash,
		IsActive: true,
	}
	p := &userDatamodel.PersonalData{
		CPF:       acc.Personal.CPF,
		Email:     acc.Personal.Email,
		Telephone: acc.Personal.Telephone,
		Address:   acc.Personal.Address,
		BornDate:  born,
		Sex:       acc.Personal.Sex,
	}
	if err := r.store.InsertAccount(ctx, u, p); err != nil {
		if dup := MapUniqueViolation(err); dup != nil {
			return "", dup
		}
		return "", err
	}
	return u.ID, nil
}

// DuplicateError builds the conflict returned for an already registered CPF
// or e-mail.
func DuplicateError(cpfTaken, emailTaken bool) *internal.AppError {
	fields := internal.FieldErrors{}
	code := internal.ErrCodeDuplicateUser
	message := "CPF e e-mail já cadastrados"
	switch {
	case cpfTaken && !emailTaken:
		code, message = internal.ErrCodeDuplicateCPF, "CPF já cadastrado"
	case emailTaken && !cpfTaken:
		code, message = internal.ErrCodeDuplicateEmail, "E-mail já cadastrado"
	}
	if cpfTaken {
		fields.Add("cpf", "CPF já cadastrado")
	}
	if emailTaken {
		fields.Add("email", "E-mail já cadastrado")
	}
	return internal.NewConflictError(message, code).WithDetails(fields)
}

// MapUniqueViolation turns a cpf/email constraint failure into the same
// conflict the pre-check returns. Other errors give nil.
func MapUniqueViolation(err error) *internal.AppError {
	col, ok := database.UniqueViolation(err, "cpf", "email")
	if !ok {
		return nil
	}
	switch col {
	case "cpf":
		return DuplicateError(true, false).WithCause(err)
	case "email":
		return DuplicateError(false, true).WithCause(err)
	}
	return internal.NewConflictError("Registro já cadastrado", internal.ErrCodeDuplicateUser).WithCause(err)
}
