package expense

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/common/validation"
	expenseDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/expense"
	"github.com/jmfitness/studio-management/internal/report"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/sanitize"
	"github.com/jmfitness/studio-management/pkg/storage"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor *auth.Identity, dto CreateExpenseDTO) (*Expense, error)
	List(ctx context.Context, actor *auth.Identity, f Filter) ([]Expense, error)
	Update(ctx context.Context, actor *auth.Identity, id string, dto UpdateExpenseDTO) (*Expense, error)
	Delete(ctx context.Context, actor *auth.Identity, id string) error
	Overview(ctx context.Context, actor *auth.Identity) (*Overview, error)
	PDF(ctx context.Context, actor *auth.Identity, f Filter) ([]byte, string, error)
	Attach(ctx context.Context, actor *auth.Identity, id string, file io.Reader, fileName string, size int64) (*Expense, error)
}

type Service struct {
	repo   Repository
	files  storage.FileStorage
	folder string
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, files storage.FileStorage, folder string) *Service {
	return &Service{
		repo:   repo,
		files:  files,
		folder: folder,
		now:    time.Now,
		logger: logger.LoggerWrapper(),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func authorize(actor *auth.Identity, action auth.Action) error {
	return auth.Authorize(actor, auth.ResourceExpenses, action, auth.PermissionContext{})
}

func (s *Service) Create(ctx context.Context, actor *auth.Identity, dto CreateExpenseDTO) (*Expense, error) {
	if err := authorize(actor, auth.ActionCreate); err != nil {
		return nil, err
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	due, err := validation.ParseDate(dto.DueDate)
	if err != nil {
		return nil, internal.NewValidationFieldError("dueDate", "Vencimento deve ser uma data válida (AAAA-MM-DD)")
	}

	row := &expenseDatamodel.Expense{
		Description:   sanitize.Text(dto.Description),
		Category:      dto.Category,
		AmountInCents: dto.AmountInCents,
		DueDate:       due,
		PaymentMethod: dto.PaymentMethod,
		Recurrent:     dto.Recurrent,
		Notes:         sanitize.OptionalText(dto.Notes),
		CreatedBy:     actor.ID,
	}
	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, internal.NewInternalError("Erro ao criar despesa", err)
	}

	s.logger.Info("expense created",
		"expense_id", row.ID,
		"category", row.Category,
		"amount_in_cents", row.AmountInCents,
		"created_by", actor.ID)

	out := FromDataModel(row)
	return &out, nil
}

// List returns expenses newest first.
func (s *Service) List(ctx context.Context, actor *auth.Identity, f Filter) ([]Expense, error) {
	if err := authorize(actor, auth.ActionRead); err != nil {
		return nil, err
	}
	rows, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao buscar despesas", err)
	}
	return FromDataModelSlice(rows), nil
}

func (s *Service) Update(ctx context.Context, actor *auth.Identity, id string, dto UpdateExpenseDTO) (*Expense, error) {
	if err := authorize(actor, auth.ActionUpdate); err != nil {
		return nil, err
	}
	if err := validation.Struct(dto); err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, id); err != nil {
		return nil, err
	}

	var paymentDate *time.Time
	if *dto.Paid {
		d, err := validation.ParseOptionalDate(dto.PaymentDate)
		if err != nil {
			return nil, internal.NewValidationFieldError("paymentDate", "Data de pagamento deve ser uma data válida (AAAA-MM-DD)")
		}
		if d == nil {
			today := dates.Day(s.now())
			d = &today
		}
		paymentDate = d
	}

	if err := s.repo.SetPaid(ctx, id, *dto.Paid, paymentDate); err != nil {
		return nil, internal.NewInternalError("Erro ao atualizar despesa", err)
	}

	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense payment status updated", "expense_id", id, "paid", row.Paid)

	out := FromDataModel(row)
	return &out, nil
}

// Delete removes the expense. A stored attachment is removed best-effort.
func (s *Service) Delete(ctx context.Context, actor *auth.Identity, id string) error {
	if err := authorize(actor, auth.ActionDelete); err != nil {
		return err
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return internal.NewInternalError("Erro ao excluir despesa", err)
	}
	if row.Attachment != nil {
		s.removeFile(ctx, id, *row.Attachment)
	}

	s.logger.Info("expense deleted", "expense_id", id, "deleted_by", actor.ID)
	return nil
}

func (s *Service) Overview(ctx context.Context, actor *auth.Identity) (*Overview, error) {
	if err := authorize(actor, auth.ActionRead); err != nil {
		return nil, err
	}
	totals, err := s.repo.Totals(ctx)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao carregar dados de despesas", err)
	}

	var o Overview
	for _, t := range totals {
		if t.Paid {
			o.Paid.add(t.Count, t.TotalInCents)
		} else {
			o.Pending.add(t.Count, t.TotalInCents)
		}
		if t.Recurrent {
			o.Recurrent.add(t.Count, t.TotalInCents)
		} else {
			o.OneOff.add(t.Count, t.TotalInCents)
		}
		o.Total.add(t.Count, t.TotalInCents)
	}
	for _, b := range []*Bucket{&o.Pending, &o.Paid, &o.Recurrent, &o.OneOff, &o.Total} {
		b.format()
	}
	return &o, nil
}

// PDF renders the filtered expenses split into recurring and one-off
// sections, with paid and pending totals.
func (s *Service) PDF(ctx context.Context, actor *auth.Identity, f Filter) ([]byte, string, error) {
	expenses, err := s.List(ctx, actor, f)
	if err != nil {
		return nil, "", err
	}

	var recurrent, oneOff, paid, pending Bucket
	for _, e := range expenses {
		if e.Recurrent {
			recurrent.add(1, e.AmountInCents)
		} else {
			oneOff.add(1, e.AmountInCents)
		}
		if e.Paid {
			paid.add(1, e.AmountInCents)
		} else {
			pending.add(1, e.AmountInCents)
		}
	}
	total := Bucket{Count: paid.Count + pending.Count, TotalInCents: paid.TotalInCents + pending.TotalInCents}
	for _, b := range []*Bucket{&recurrent, &oneOff, &paid, &pending, &total} {
		b.format()
	}

	now := s.now()
	table := report.Table{
		Title:    "Relatório de Despesas",
		Subtitle: fmt.Sprintf("Data de geração: %s", dates.FormatBR(now)),
		Summary: []report.Summary{
			{Label: "Despesas recorrentes", Value: fmt.Sprintf("%s (%d)", recurrent.TotalFormatted, recurrent.Count)},
			{Label: "Despesas avulsas", Value: fmt.Sprintf("%s (%d)", oneOff.TotalFormatted, oneOff.Count)},
			{Label: "Total de Despesas", Value: total.TotalFormatted},
			{Label: "Total Pago", Value: paid.TotalFormatted},
			{Label: "Total Pendente", Value: pending.TotalFormatted},
		},
		Columns: []report.Column{
			{Header: "Descrição", Width: 55, Align: report.Left},
			{Header: "Categoria", Width: 38, Align: report.Left},
			{Header: "Valor", Width: 27, Align: report.Right},
			{Header: "Vencimento", Width: 25, Align: report.Center},
			{Header: "Status", Width: 22, Align: report.Center},
			{Header: "Recorrente", Width: 23, Align: report.Center},
		},
		Footer:      []string{"Total", "", total.TotalFormatted, "", "", ""},
		GeneratedAt: now,
	}

	// recurring first, then one-off
	for _, wantRecurrent := range []bool{true, false} {
		for _, e := range expenses {
			if e.Recurrent != wantRecurrent {
				continue
			}
			table.Rows = append(table.Rows, []string{
				e.Description, e.CategoryLabel, e.FormattedAmount, dueDateBR(e),
				yesNo(e.Paid, "Pago", "Pendente"), yesNo(e.Recurrent, "Sim", "Não"),
			})
		}
	}

	body, err := report.Render(table)
	if err != nil {
		return nil, "", internal.NewInternalError("Erro ao gerar PDF de despesas", err)
	}
	return body, "relatorio-despesas-" + now.Format("2006-01-02") + ".pdf", nil
}

// Attach uploads a receipt or invoice for the expense, replacing any
// previous one.
func (s *Service) Attach(ctx context.Context, actor *auth.Identity, id string, file io.Reader, fileName string, size int64) (*Expense, error) {
	if err := authorize(actor, auth.ActionUpdate); err != nil {
		return nil, err
	}
	if file == nil || size == 0 {
		return nil, ErrAttachmentMissing
	}
	if size > MaxAttachmentSize {
		return nil, ErrAttachmentTooLarge
	}
	row, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, internal.NewInternalError("Erro ao ler arquivo", err)
	}
	head = head[:n]
	if !allowedAttachmentTypes[http.DetectContentType(head)] {
		return nil, ErrAttachmentType
	}

	url, err := s.files.Upload(ctx, io.MultiReader(bytes.NewReader(head), file), s.folder, fileName)
	if err != nil {
		if errors.Is(err, storage.ErrDisabled) {
			return nil, ErrStorageDisabled
		}
		return nil, internal.NewInternalError("Erro ao enviar anexo", err)
	}
	if err := s.repo.SetAttachment(ctx, id, &url); err != nil {
		s.removeFile(ctx, id, url)
		return nil, internal.NewInternalError("Erro ao salvar anexo", err)
	}
	if row.Attachment != nil {
		s.removeFile(ctx, id, *row.Attachment)
	}

	s.logger.Info("expense attachment stored", "expense_id", id, "size", size)

	row.Attachment = &url
	out := FromDataModel(row)
	return &out, nil
}

func (s *Service) removeFile(ctx context.Context, id, url string) {
	if err := s.files.Delete(ctx, url); err != nil {
		s.logger.Warn("failed to delete expense attachment", "expense_id", id, "url", url, "error", err)
	}
}

func yesNo(v bool, yes, no string) string {
	if v {
		return yes
	}
	return no
}
