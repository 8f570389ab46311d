package timerecord_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/timerecord"
	timerecordPostgres "github.com/jmfitness/studio-management/internal/timerecord/postgres"
)

func ptr[T any](v T) *T { return &v }

func seedEmployee(db *gorm.DB, name string, role auth.Role) (userID, employeeID string) {
	u := &userDatamodel.User{Name: name, UserRole: string(role), IsActive: true}
	Expect(db.Create(u).Error).To(Succeed())
	e := &employeeDatamodel.Employee{
		UserID:         u.ID,
		Position:       "Recepcionista",
		Shift:          "Noite",
		ShiftStartTime: "18:00",
		ShiftEndTime:   "02:00",
		SalaryInCents:  250000,
		HireDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	Expect(db.Create(e).Error).To(Succeed())
	return u.ID, e.ID
}

var _ = Describe("clock arithmetic", func() {
	DescribeTable("WorkedMinutes",
		func(in, out string, want string) {
			m, err := timerecord.WorkedMinutes(in, out)
			Expect(err).NotTo(HaveOccurred())
			Expect(timerecord.FormatDuration(m)).To(Equal(want))
		},
		Entry("same day", "08:00", "17:05", "9:05"),
		Entry("across midnight", "22:00", "02:30", "4:30"),
		Entry("zero", "10:00", "10:00", "0:00"),
	)

	It("rejects malformed clocks", func() {
		_, err := timerecord.WorkedMinutes("25:00", "10:00")
		Expect(err).To(HaveOccurred())
	})

	It("reads stored totals above a day", func() {
		m, err := timerecord.ParseDuration("30:15")
		Expect(err).NotTo(HaveOccurred())
		Expect(m).To(Equal(30*60 + 15))
	})
})

var _ = Describe("TimeRecord Service", func() {
	var (
		db         *gorm.DB
		service    *timerecord.Service
		ctx        context.Context
		clock      time.Time
		staff      *auth.Identity
		employeeID string

		admin = &auth.Identity{ID: "admin-id", Role: auth.RoleAdmin}
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		clock = time.Date(2025, time.March, 5, 18, 2, 0, 0, time.UTC)
		service = timerecord.NewService(timerecordPostgres.NewTimeRecordRepository(db)).
			WithClock(func() time.Time { return clock })

		var userID string
		userID, employeeID = seedEmployee(db, "Bia", auth.RoleFuncionario)
		staff = &auth.Identity{ID: userID, Role: auth.RoleFuncionario}
	})

	It("opens and closes the caller's day across midnight", func() {
		res, err := service.Register(ctx, staff, timerecord.RegisterDTO{})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Kind).To(Equal(timerecord.KindEntry))
		Expect(res.Record.CheckInTime).To(Equal("18:02"))
		Expect(res.Record.EmployeeID).To(Equal(employeeID))

		res, err = service.Register(ctx, staff, timerecord.RegisterDTO{
			Date:         ptr("2025-03-05"),
			CheckOutTime: ptr("02:10"),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Kind).To(Equal(timerecord.KindExit))
		Expect(*res.Record.TotalHours).To(Equal("8:08"))

		_, err = service.Register(ctx, staff, timerecord.RegisterDTO{Date: ptr("2025-03-05")})
		Expect(errors.Is(err, timerecord.ErrAlreadyClosed)).To(BeTrue())
	})

	It("lists the current month newest first", func() {
		_, err := service.Register(ctx, staff, timerecord.RegisterDTO{Date: ptr("2025-03-03"), CheckInTime: ptr("08:00"), CheckOutTime: ptr("16:00")})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Register(ctx, staff, timerecord.RegisterDTO{Date: ptr("2025-03-04"), CheckInTime: ptr("08:00")})
		Expect(err).NotTo(HaveOccurred())
		_, err = service.Register(ctx, staff, timerecord.RegisterDTO{Date: ptr("2025-02-28"), CheckInTime: ptr("08:00")})
		Expect(err).NotTo(HaveOccurred())

		list, err := service.List(ctx, staff, "", nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(list).To(HaveLen(2))
		Expect(list[0].Date).To(Equal("2025-03-04"))
		Expect(*list[1].TotalHours).To(Equal("8:00"))
	})

	It("keeps employees out of each other's records", func() {
		_, otherEmployee := seedEmployee(db, "Caio", auth.RoleFuncionario)

		_, err := service.List(ctx, staff, otherEmployee, nil, nil)
		Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())

		_, err = service.Register(ctx, staff, timerecord.RegisterDTO{EmployeeID: otherEmployee})
		Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())

		_, err = service.List(ctx, admin, otherEmployee, nil, nil)
		Expect(err).NotTo(HaveOccurred())
	})

	It("lets only admins approve", func() {
		res, err := service.Register(ctx, staff, timerecord.RegisterDTO{})
		Expect(err).NotTo(HaveOccurred())

		Expect(errors.Is(service.Approve(ctx, staff, res.Record.ID), internal.ErrPermissionDenied)).To(BeTrue())
		Expect(service.Approve(ctx, admin, res.Record.ID)).To(Succeed())

		list, err := service.List(ctx, admin, employeeID, nil, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(list[0].Approved).To(BeTrue())
		Expect(*list[0].ApprovedBy).To(Equal("admin-id"))

		Expect(errors.Is(service.Approve(ctx, admin, "missing"), internal.ErrTimeRecordNotFound)).To(BeTrue())
	})

	It("needs an employee record for the caller", func() {
		_, err := service.Register(ctx, admin, timerecord.RegisterDTO{})
		Expect(errors.Is(err, timerecord.ErrNoEmployee)).To(BeTrue())
	})

	It("rejects a reversed period", func() {
		from := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		_, err := service.List(ctx, staff, "", &from, &to)
		appErr, ok := internal.IsAppError(err)
		Expect(ok).To(BeTrue())
		Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPeriod))
	})
})
