package payroll_test

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/payroll"
	payrollPostgres "github.com/jmfitness/studio-management/internal/payroll/postgres"
)

func ptr[T any](v T) *T { return &v }

func seedEmployee(db *gorm.DB, name string, salary int64) string {
	u := &userDatamodel.User{Name: name, UserRole: string(auth.RoleFuncionario), IsActive: true}
	Expect(db.Create(u).Error).To(Succeed())
	e := &employeeDatamodel.Employee{
		UserID:         u.ID,
		Position:       "Recepcionista",
		Shift:          "Manhã",
		ShiftStartTime: "08:00",
		ShiftEndTime:   "16:00",
		SalaryInCents:  salary,
		HireDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	Expect(db.Create(e).Error).To(Succeed())
	return e.ID
}

func seedRecord(db *gorm.DB, employeeID string, day time.Time, in string, out, total *string) {
	Expect(db.Create(&employeeDatamodel.TimeRecord{
		EmployeeID:   employeeID,
		Date:         day,
		CheckInTime:  in,
		CheckOutTime: out,
		TotalHours:   total,
	}).Error).To(Succeed())
}

type bonusPolicy struct{}

func (bonusPolicy) Adjust(l payroll.Line) (int64, int64) {
	return int64(l.WorkedDays) * 1000, 500
}

var _ = Describe("Payroll Service", func() {
	var (
		db      *gorm.DB
		repo    *payrollPostgres.PayrollRepository
		service *payroll.Service
		ctx     context.Context
		clock   = time.Date(2025, time.March, 20, 12, 0, 0, 0, time.UTC)

		admin = &auth.Identity{ID: "admin-id", Role: auth.RoleAdmin}
		bia   string
		caio  string
	)

	march := func(day int) time.Time { return time.Date(2025, time.March, day, 0, 0, 0, 0, time.UTC) }

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		repo = payrollPostgres.NewPayrollRepository(sqlx.NewDb(sqlDB, "sqlite3"))
		service = payroll.NewService(repo, payroll.NoAdjustments{}).
			WithClock(func() time.Time { return clock })

		bia = seedEmployee(db, "Bia", 500000)
		caio = seedEmployee(db, "Caio", 250000)

		seedRecord(db, bia, march(3), "08:00", ptr("16:30"), ptr("8:30"))
		seedRecord(db, bia, march(4), "22:00", ptr("02:45"), ptr("4:45"))
		seedRecord(db, bia, march(5), "08:00", nil, nil)
		seedRecord(db, bia, time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC), "08:00", ptr("18:00"), ptr("10:00"))
	})

	It("sums worked days and hours of the month per employee", func() {
		r, err := service.Report(ctx, admin, 3, 2025)
		Expect(err).NotTo(HaveOccurred())

		Expect(r.Period).To(Equal("Março/2025"))
		Expect(r.Employees).To(HaveLen(2))

		first := r.Employees[0]
		Expect(first.EmployeeID).To(Equal(bia))
		Expect(first.WorkedDays).To(Equal(2))
		Expect(first.TotalHours).To(Equal("13:15"))
		Expect(first.BonusInCents).To(BeZero())
		Expect(first.DeductionInCents).To(BeZero())
		Expect(first.NetSalaryInCents).To(Equal(int64(500000)))
		Expect(first.FormattedNetSalary).To(Equal("R$ 5.000,00"))

		second := r.Employees[1]
		Expect(second.EmployeeID).To(Equal(caio))
		Expect(second.WorkedDays).To(BeZero())
		Expect(second.TotalHours).To(Equal("0:00"))

		Expect(r.FormattedTotalGross).To(Equal("R$ 7.500,00"))
	})

	It("defaults to the current month", func() {
		r, err := service.Report(ctx, admin, 0, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Month).To(Equal(3))
		Expect(r.Year).To(Equal(2025))
	})

	It("leaves out soft-deleted employees", func() {
		now := time.Now()
		Expect(db.Model(&employeeDatamodel.Employee{}).Where("id = ?", caio).Update("deleted_at", &now).Error).To(Succeed())

		r, err := service.Report(ctx, admin, 3, 2025)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Employees).To(HaveLen(1))
	})

	It("applies the configured adjustments", func() {
		service = payroll.NewService(repo, bonusPolicy{}).WithClock(func() time.Time { return clock })

		r, err := service.Report(ctx, admin, 3, 2025)
		Expect(err).NotTo(HaveOccurred())
		Expect(r.Employees[0].BonusInCents).To(Equal(int64(2000)))
		Expect(r.Employees[0].NetSalaryInCents).To(Equal(int64(500000 + 2000 - 500)))
	})

	It("rejects an invalid month", func() {
		_, err := service.Report(ctx, admin, 13, 2025)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.FieldErrors()).To(HaveKey("month"))
	})

	It("is restricted to admins", func() {
		_, err := service.Report(ctx, &auth.Identity{ID: "x", Role: auth.RoleFuncionario}, 3, 2025)
		Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
	})

	It("renders the report as PDF", func() {
		body, name, err := service.PDF(ctx, admin, 3, 2025)
		Expect(err).NotTo(HaveOccurred())
		Expect(name).To(Equal("folha-pagamento-2025-03.pdf"))
		Expect(bytes.HasPrefix(body, []byte("%PDF"))).To(BeTrue())
	})
})
