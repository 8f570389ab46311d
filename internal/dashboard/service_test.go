package dashboard_test

import (
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
	checkinDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/checkin"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	expenseDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/expense"
	studentDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/student"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/dashboard"
	dashboardPostgres "github.com/jmfitness/studio-management/internal/dashboard/postgres"
	"github.com/jmfitness/studio-management/internal/payment"
)

func ptr[T any](v T) *T { return &v }

var _ = Describe("Dashboard Service", func() {
	var (
		db      *gorm.DB
		service *dashboard.Service
		ctx     context.Context

		today = time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC)
		clock = time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	)

	seedStudent := func(name string, fee int64, dueDay int, paid bool, last *time.Time) string {
		u := &userDatamodel.User{Name: name, UserRole: string(auth.RoleAluno), IsActive: true}
		Expect(db.Create(u).Error).To(Succeed())
		Expect(db.Create(&studentDatamodel.Financial{
			UserID:                 u.ID,
			MonthlyFeeValueInCents: fee,
			PaymentMethod:          "pix",
			DueDate:                dueDay,
			Paid:                   paid,
			LastPaymentDate:        last,
		}).Error).To(Succeed())
		return u.ID
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()

		service = dashboard.NewService(
			dashboardPostgres.NewDashboardRepository(sqlx.NewDb(sqlDB, "sqlite3")),
			payment.NewStatusCalculator(func() time.Time { return clock }),
		)

		ana := seedStudent("Ana", 15000, 5, true, ptr(time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)))
		seedStudent("Bruno", 12000, 10, false, nil)
		seedStudent("Carla", 10000, 20, false, nil)
		gone := seedStudent("Davi", 9000, 1, false, nil)
		now := time.Now()
		Expect(db.Model(&userDatamodel.User{}).Where("id = ?", gone).Update("deleted_at", &now).Error).To(Succeed())

		staff := &userDatamodel.User{Name: "Bia", UserRole: string(auth.RoleFuncionario), IsActive: true}
		Expect(db.Create(staff).Error).To(Succeed())
		Expect(db.Create(&employeeDatamodel.Employee{
			UserID: staff.ID, Position: "Recepcionista", Shift: "Manhã",
			ShiftStartTime: "08:00", ShiftEndTime: "16:00", SalaryInCents: 250000,
			HireDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		}).Error).To(Succeed())

		for _, day := range []time.Time{today, today.AddDate(0, 0, -1)} {
			Expect(db.Create(&checkinDatamodel.CheckIn{
				UserID: ana, CheckInDate: day, CheckInTime: "09:00",
				CheckInTimestamp: day.Add(9 * time.Hour), Method: "cpf", Identifier: "11122233344",
			}).Error).To(Succeed())
		}

		for _, e := range []expenseDatamodel.Expense{
			{Description: "Aluguel", Category: "aluguel", AmountInCents: 300000, DueDate: today, PaymentMethod: "boleto", CreatedBy: "admin"},
			{Description: "Luz", Category: "energia", AmountInCents: 45000, DueDate: today, PaymentMethod: "boleto", Paid: true, CreatedBy: "admin"},
		} {
			e := e
			Expect(db.Create(&e).Error).To(Succeed())
		}
	})

	It("gives admins the financial picture", func() {
		stats, err := service.Stats(ctx, &auth.Identity{ID: "admin-id", Role: auth.RoleAdmin})
		Expect(err).NotTo(HaveOccurred())

		Expect(stats.ActiveStudents).To(Equal(int64(3)))
		Expect(stats.ActiveEmployees).To(Equal(int64(1)))
		Expect(stats.TodayCheckIns).To(Equal(int64(1)))

		Expect(stats.Financial).NotTo(BeNil())
		Expect(stats.Financial.ExpectedRevenueInCents).To(Equal(int64(37000)))
		Expect(stats.Financial.PaidThisMonth).To(Equal(int64(1)))
		Expect(stats.Financial.OverduePayments).To(Equal(int64(1)))
		Expect(stats.Financial.FormattedOverdue).To(Equal("R$ 120,00"))
		Expect(stats.Financial.PendingExpenses).To(Equal(int64(1)))
		Expect(stats.Financial.FormattedPendingExpenses).To(Equal("R$ 3.000,00"))
	})

	It("hides money from non-admin staff", func() {
		stats, err := service.Stats(ctx, &auth.Identity{ID: "x", Role: auth.RoleFuncionario})
		Expect(err).NotTo(HaveOccurred())
		Expect(stats.ActiveStudents).To(Equal(int64(3)))
		Expect(stats.Financial).To(BeNil())
	})

	It("is closed to students", func() {
		_, err := service.Stats(ctx, &auth.Identity{ID: "x", Role: auth.RoleAluno})
		Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
	})
})
