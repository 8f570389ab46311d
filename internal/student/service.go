package student

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/confirmation"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	"github.com/jmfitness/studio-management/internal/core/database"
	studentDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/internal/payment"
	"github.com/jmfitness/studio-management/internal/search"
	"github.com/jmfitness/studio-management/internal/user"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/money"
	"github.com/jmfitness/studio-management/pkg/sanitize"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor *auth.Identity, dto CreateStudentDTO) (*Created, error)
	List(ctx context.Context, actor *auth.Identity, includeDeleted bool) ([]Student, error)
	Get(ctx context.Context, actor *auth.Identity, id string) (*Student, error)
	Update(ctx context.Context, actor *auth.Identity, id string, dto UpdateStudentDTO) error
	SoftDelete(ctx context.Context, actor *auth.Identity, id string) error
	Restore(ctx context.Context, actor *auth.Identity, id string) error
	Search(ctx context.Context, actor *auth.Identity, q string) ([]search.Document, error)
}

type Service struct {
	repo          Repository
	registrar     *user.Registrar
	uow           database.UnitOfWork
	confirmations Confirmations
	searcher      Searcher
	status        *payment.StatusCalculator
	events        events.Publisher
	logger        *slog.Logger
}

func NewService(
	repo Repository,
	registrar *user.Registrar,
	uow database.UnitOfWork,
	confirmations Confirmations,
	status *payment.StatusCalculator,
	publisher events.Publisher,
) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		repo:          repo,
		registrar:     registrar,
		uow:           uow,
		confirmations: confirmations,
		status:        status,
		events:        publisher,
		logger:        logger.LoggerWrapper(),
	}
}

// WithSearcher routes Search through an external index first.
func (s *Service) WithSearcher(searcher Searcher) *Service {
	s.searcher = searcher
	return s
}

// Create registers a student with its financial and health rows and a
// confirmation token, all in one transaction. The welcome link is sent once
// the transaction has committed.
func (s *Service) Create(ctx context.Context, actor *auth.Identity, dto CreateStudentDTO) (*Created, error) {
	if err := auth.CanCreateUserType(actor, auth.RoleAluno); err != nil {
		return nil, err
	}

	dto.Normalize()
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	born, _ := validation.ParseDate(dto.BornDate)
	if err := user.CheckAge(born, s.status.Now(), 0, user.MaxAge); err != nil {
		return nil, err
	}

	var (
		userID string
		ticket *confirmation.Ticket
	)
	err := s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		id, err := s.registrar.Register(ctx, user.Account{Role: auth.RoleAluno, Personal: dto.PersonalDTO})
		if err != nil {
			return err
		}
		userID = id

		if err := s.repo.InsertFinancial(ctx, &studentDatamodel.Financial{
			UserID:                 id,
			MonthlyFeeValueInCents: dto.MonthlyFeeValueInCents,
			PaymentMethod:          dto.PaymentMethod,
			DueDate:                dto.DueDate,
		}); err != nil {
			return err
		}

		metrics := &studentDatamodel.HealthMetrics{UserID: id}
		dto.Health.ApplyTo(metrics)
		if err := s.repo.InsertHealth(ctx, metrics); err != nil {
			return err
		}

		ticket, err = s.confirmations.Issue(ctx, id)
		return err
	})
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to create student", "actor_id", actor.ID, "error", err)
		return nil, internal.NewInternalError("Erro ao cadastrar aluno. Tente novamente.", err)
	}

	if err := s.confirmations.Notify(ctx, confirmation.KindWelcome, dto.Name, dto.Email, ticket); err != nil {
		s.logger.Warn("failed to send welcome message", "user_id", userID, "error", err)
	}
	s.publish(ctx, events.NewStudentUpsertedEvent(userID, dto.Name, dto.Email, dto.CPF))

	s.logger.Info("student created", "actor_id", actor.ID, "user_id", userID)
	return &Created{UserID: userID, ConfirmationExpiresAt: ticket.ExpiresAt}, nil
}

func (s *Service) List(ctx context.Context, actor *auth.Identity, includeDeleted bool) ([]Student, error) {
	if err := auth.Authorize(actor, auth.ResourceUsers, auth.ActionRead, auth.PermissionContext{
		TargetUserType: auth.RoleAluno,
	}); err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() {
		return nil, internal.ErrPermissionDenied
	}

	rows, err := s.repo.List(ctx, includeDeleted)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar lista de alunos", err)
	}

	withFinancial := auth.CanAccessMonthlyPayment(actor, auth.ActionRead, "") == nil
	out := make([]Student, 0, len(rows))
	for i := range rows {
		out = append(out, s.view(&rows[i], withFinancial))
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, actor *auth.Identity, id string) (*Student, error) {
	if err := auth.Authorize(actor, auth.ResourceUsers, auth.ActionRead, auth.PermissionContext{
		TargetUserID:   id,
		TargetUserType: auth.RoleAluno,
	}); err != nil {
		return nil, err
	}

	row, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrStudentNotFound) {
			return nil, err
		}
		return nil, internal.NewInternalError("Erro ao carregar dados do aluno", err)
	}

	withFinancial := auth.CanAccessFinancial(actor, auth.ActionRead, id) == nil ||
		auth.CanAccessMonthlyPayment(actor, auth.ActionRead, id) == nil
	out := s.view(row, withFinancial)
	return &out, nil
}

// Update writes every touched table in one transaction. Financial fields
// need the financial permission and health fields the health one.
func (s *Service) Update(ctx context.Context, actor *auth.Identity, id string, dto UpdateStudentDTO) error {
	if actor == nil {
		return internal.ErrNotAuthenticated
	}
	normalizeUpdate(&dto)
	if err := validation.Struct(dto); err != nil {
		return err
	}

	rec, err := s.target(ctx, id)
	if err != nil {
		return err
	}
	if rec.Role != auth.RoleAluno {
		return internal.ErrStudentNotFound
	}
	if err := auth.CanUpdateUserType(actor, auth.RoleAluno, id); err != nil {
		return err
	}
	if dto.touchesFinancial() {
		if err := auth.CanAccessFinancial(actor, auth.ActionUpdate, id); err != nil {
			return err
		}
	}
	if dto.touchesHealth() {
		if err := auth.CanAccessHealthMetrics(actor, auth.ActionUpdate, id); err != nil {
			return err
		}
	}

	if dto.CPF != nil || dto.Email != nil {
		if err := s.registrar.EnsureAvailable(ctx, deref(dto.CPF), deref(dto.Email), id); err != nil {
			return err
		}
	}

	changes := newChanges()
	if dto.Name != nil {
		changes.User["name"] = *dto.Name
	}
	setIf(changes.Personal, "cpf", dto.CPF)
	setIf(changes.Personal, "email", dto.Email)
	setIf(changes.Personal, "address", dto.Address)
	setIf(changes.Personal, "telephone", dto.Telephone)
	if dto.BornDate != nil {
		born, _ := validation.ParseDate(*dto.BornDate)
		if err := user.CheckAge(born, s.status.Now(), 0, user.MaxAge); err != nil {
			return err
		}
		changes.Personal["born_date"] = born
	}
	setIf(changes.Financial, "monthly_fee_value_in_cents", dto.MonthlyFeeValueInCents)
	setIf(changes.Financial, "payment_method", dto.PaymentMethod)
	setIf(changes.Financial, "due_date", dto.DueDate)
	setIf(changes.Health, "height_cm", dto.HeightCm)
	setIf(changes.Health, "weight_kg", dto.WeightKg)
	setIf(changes.Health, "blood_type", dto.BloodType)
	if changes.Empty() {
		return ErrNothingToUpdate
	}

	err = s.uow.WithTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Apply(ctx, id, changes)
	})
	if err != nil {
		if dup := user.MapUniqueViolation(err); dup != nil {
			return dup
		}
		s.logger.Error("failed to update student", "user_id", id, "error", err)
		return internal.NewInternalError("Erro ao atualizar dados do aluno. Tente novamente.", err)
	}

	if row, err := s.repo.Get(ctx, id); err == nil {
		s.publish(ctx, events.NewStudentUpsertedEvent(row.UserID, row.Name, row.Email, row.CPF))
	}

	s.logger.Info("student updated", "actor_id", actor.ID, "user_id", id)
	return nil
}

func (s *Service) SoftDelete(ctx context.Context, actor *auth.Identity, id string) error {
	rec, err := s.authorizeDelete(ctx, actor, id)
	if err != nil {
		return err
	}
	if rec.DeletedAt != nil {
		return nil
	}

	now := s.status.Now()
	if err := s.repo.SetDeleted(ctx, id, &now); err != nil {
		return internal.NewInternalError("Erro ao desativar aluno. Tente novamente.", err)
	}
	s.publish(ctx, events.NewStudentRemovedEvent(id))

	s.logger.Info("student deactivated", "actor_id", actor.ID, "user_id", id)
	return nil
}

func (s *Service) Restore(ctx context.Context, actor *auth.Identity, id string) error {
	rec, err := s.authorizeDelete(ctx, actor, id)
	if err != nil {
		return err
	}
	if rec.DeletedAt == nil {
		return nil
	}

	if err := s.repo.SetDeleted(ctx, id, nil); err != nil {
		return internal.NewInternalError("Erro ao reativar aluno. Tente novamente.", err)
	}
	if row, err := s.repo.Get(ctx, id); err == nil {
		s.publish(ctx, events.NewStudentUpsertedEvent(row.UserID, row.Name, row.Email, row.CPF))
	}

	s.logger.Info("student restored", "actor_id", actor.ID, "user_id", id)
	return nil
}

// Search matches name, e-mail or CPF of active students. Queries shorter than
// two characters return nothing. The external index is tried first and the
// database answers when it is missing or failing.
func (s *Service) Search(ctx context.Context, actor *auth.Identity, q string) ([]search.Document, error) {
	if err := auth.Authorize(actor, auth.ResourceUsers, auth.ActionRead, auth.PermissionContext{
		TargetUserType: auth.RoleAluno,
	}); err != nil {
		return nil, err
	}
	if !actor.Role.IsStaff() {
		return nil, internal.ErrPermissionDenied
	}

	q = strings.TrimSpace(q)
	if len([]rune(q)) < MinQueryLength {
		return []search.Document{}, nil
	}

	if s.searcher != nil {
		docs, err := s.searcher.Search(ctx, q, SearchLimit)
		if err == nil {
			return docs, nil
		}
		s.logger.Warn("search index unavailable, falling back to database", "error", err)
	}

	docs, err := s.repo.Search(ctx, q, SearchLimit)
	if err != nil {
		return nil, internal.NewInternalError("Erro interno do servidor", err)
	}
	return docs, nil
}

func (s *Service) authorizeDelete(ctx context.Context, actor *auth.Identity, id string) (*Record, error) {
	if actor == nil {
		return nil, internal.ErrNotAuthenticated
	}
	rec, err := s.target(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.Role == auth.RoleAdmin {
		return nil, ErrAdminTarget
	}
	if rec.Role != auth.RoleAluno {
		return nil, internal.ErrStudentNotFound
	}
	if err := auth.Authorize(actor, auth.ResourceUsers, auth.ActionDelete, auth.PermissionContext{
		TargetUserID:   id,
		TargetUserType: rec.Role,
	}); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Service) target(ctx context.Context, id string) (*Record, error) {
	rec, err := s.repo.GetRecord(ctx, id)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return nil, internal.ErrStudentNotFound
		}
		return nil, internal.NewInternalError(internal.GenericErrorMessage, err)
	}
	return rec, nil
}

func (s *Service) view(r *Row, withFinancial bool) Student {
	out := Student{
		UserID:          r.UserID,
		Name:            r.Name,
		CreatedAt:       r.CreatedAt,
		DeletedAt:       r.DeletedAt,
		CPF:             r.CPF,
		Email:           r.Email,
		BornDate:        r.BornDate.Format(validation.DateLayout),
		Age:             user.Age(r.BornDate, s.status.Now()),
		Address:         r.Address,
		Telephone:       r.Telephone,
		Sex:             r.Sex,
		HeightCm:        r.HeightCm,
		WeightKg:        r.WeightKg,
		BloodType:       r.BloodType,
		HealthUpdatedAt: r.HealthUpdatedAt,
	}
	if withFinancial {
		var last *string
		if r.LastPaymentDate != nil {
			d := r.LastPaymentDate.Format(validation.DateLayout)
			last = &d
		}
		out.Financial = &Financial{
			MonthlyFeeValueInCents: r.MonthlyFeeValueInCents,
			FormattedMonthlyFee:    money.FormatBRL(r.MonthlyFeeValueInCents),
			PaymentMethod:          r.PaymentMethod,
			DueDate:                r.DueDate,
			Paid:                   r.Paid,
			LastPaymentDate:        last,
			IsPaymentUpToDate:      s.status.IsPaymentUpToDate(r.DueDate, r.LastPaymentDate, r.Paid),
		}
	}
	return out
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", "event_type", e.EventType(), "error", err)
	}
}

func normalizeUpdate(dto *UpdateStudentDTO) {
	clean := func(p *string, fn func(string) string) {
		if p != nil {
			*p = fn(*p)
		}
	}
	clean(dto.Name, sanitize.Text)
	clean(dto.CPF, validation.Digits)
	clean(dto.Email, user.NormalizeEmail)
	clean(dto.BornDate, strings.TrimSpace)
	clean(dto.Address, sanitize.Text)
	clean(dto.Telephone, strings.TrimSpace)
}

func setIf[T any](m map[string]interface{}, column string, v *T) {
	if v != nil {
		m[column] = *v
	}
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
