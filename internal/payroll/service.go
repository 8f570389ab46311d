package payroll

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/report"
	"github.com/jmfitness/studio-management/internal/timerecord"
	"github.com/jmfitness/studio-management/pkg/dates"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/money"
)

type ServiceAPI interface {
	Report(ctx context.Context, actor *auth.Identity, month, year int) (*Report, error)
	PDF(ctx context.Context, actor *auth.Identity, month, year int) ([]byte, string, error)
}

type Service struct {
	repo   Repository
	policy Adjustments
	now    func() time.Time
	logger *slog.Logger
}

func NewService(repo Repository, policy Adjustments) *Service {
	if policy == nil {
		policy = NoAdjustments{}
	}
	return &Service{
		repo:   repo,
		policy: policy,
		now:    time.Now,
		logger: logger.LoggerWrapper(),
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Report aggregates the month's time records per active employee. Zero month
// or year means the current one.
func (s *Service) Report(ctx context.Context, actor *auth.Identity, month, year int) (*Report, error) {
	if err := auth.Authorize(actor, auth.ResourcePayroll, auth.ActionRead, auth.PermissionContext{}); err != nil {
		return nil, err
	}
	m, y, err := s.period(month, year)
	if err != nil {
		return nil, err
	}

	ctx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()

	employees, err := s.repo.ActiveEmployees(ctx)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao gerar folha de pagamento", err)
	}
	from, to := dates.MonthRange(y, m)
	records, err := s.repo.Records(ctx, from, to)
	if err != nil {
		return nil, internal.NewInternalError("Erro ao gerar folha de pagamento", err)
	}

	type tally struct {
		days    int
		minutes int
	}
	byEmployee := make(map[string]*tally, len(employees))
	for _, rec := range records {
		if rec.CheckOutTime == nil || rec.TotalHours == nil {
			continue
		}
		minutes, err := timerecord.ParseDuration(*rec.TotalHours)
		if err != nil {
			s.logger.Warn("skipping time record with malformed total", "employee_id", rec.EmployeeID, "total_hours", *rec.TotalHours)
			continue
		}
		t, ok := byEmployee[rec.EmployeeID]
		if !ok {
			t = &tally{}
			byEmployee[rec.EmployeeID] = t
		}
		t.days++
		t.minutes += minutes
	}

	out := &Report{
		Month:     int(m),
		Year:      y,
		Period:    fmt.Sprintf("%s/%d", dates.MonthName(m), y),
		Employees: make([]Line, 0, len(employees)),
	}
	for _, e := range employees {
		line := Line{
			EmployeeID:         e.EmployeeID,
			Name:               e.Name,
			Position:           e.Position,
			TotalHours:         timerecord.FormatDuration(0),
			GrossSalaryInCents: e.SalaryInCents,
		}
		if t, ok := byEmployee[e.EmployeeID]; ok {
			line.WorkedDays = t.days
			line.TotalHours = timerecord.FormatDuration(t.minutes)
		}
		line.BonusInCents, line.DeductionInCents = s.policy.Adjust(line)
		line.NetSalaryInCents = line.GrossSalaryInCents + line.BonusInCents - line.DeductionInCents
		line.FormattedGrossSalary = money.FormatBRL(line.GrossSalaryInCents)
		line.FormattedNetSalary = money.FormatBRL(line.NetSalaryInCents)

		out.TotalGrossInCents += line.GrossSalaryInCents
		out.TotalNetInCents += line.NetSalaryInCents
		out.Employees = append(out.Employees, line)
	}
	out.FormattedTotalGross = money.FormatBRL(out.TotalGrossInCents)
	out.FormattedTotalNet = money.FormatBRL(out.TotalNetInCents)
	return out, nil
}

// PDF renders the report and returns it with a download file name.
func (s *Service) PDF(ctx context.Context, actor *auth.Identity, month, year int) ([]byte, string, error) {
	r, err := s.Report(ctx, actor, month, year)
	if err != nil {
		return nil, "", err
	}

	table := report.Table{
		Title:     "Folha de Pagamento",
		Subtitle:  r.Period,
		Landscape: true,
		Summary: []report.Summary{
			{Label: "Funcionários", Value: strconv.Itoa(len(r.Employees))},
			{Label: "Total bruto", Value: r.FormattedTotalGross},
			{Label: "Total líquido", Value: r.FormattedTotalNet},
		},
		Columns: []report.Column{
			{Header: "Funcionário", Width: 60, Align: report.Left},
			{Header: "Cargo", Width: 45, Align: report.Left},
			{Header: "Dias", Width: 20, Align: report.Center},
			{Header: "Horas", Width: 25, Align: report.Center},
			{Header: "Salário bruto", Width: 35, Align: report.Right},
			{Header: "Bônus", Width: 30, Align: report.Right},
			{Header: "Descontos", Width: 30, Align: report.Right},
			{Header: "Salário líquido", Width: 32, Align: report.Right},
		},
		Footer:      []string{"Total", "", "", "", r.FormattedTotalGross, "", "", r.FormattedTotalNet},
		GeneratedAt: s.now(),
	}
	for _, l := range r.Employees {
		table.Rows = append(table.Rows, []string{
			l.Name, l.Position, strconv.Itoa(l.WorkedDays), l.TotalHours,
			l.FormattedGrossSalary, money.FormatBRL(l.BonusInCents),
			money.FormatBRL(l.DeductionInCents), l.FormattedNetSalary,
		})
	}

	body, err := report.Render(table)
	if err != nil {
		return nil, "", internal.NewInternalError("Erro ao gerar PDF da folha de pagamento", err)
	}
	return body, fmt.Sprintf("folha-pagamento-%d-%02d.pdf", r.Year, r.Month), nil
}

func (s *Service) period(month, year int) (time.Month, int, error) {
	now := s.now()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}

	fields := internal.FieldErrors{}
	if month < 1 || month > 12 {
		fields.Add("month", "Mês deve estar entre 1 e 12")
	}
	if year < 2000 || year > 2100 {
		fields.Add("year", "Ano inválido")
	}
	if len(fields) > 0 {
		return 0, 0, internal.NewValidationErrors(fields)
	}
	return time.Month(month), year, nil
}
