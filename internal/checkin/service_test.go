package checkin_test

import (
	"context"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/checkin"
	checkinPostgres "github.com/jmfitness/studio-management/internal/checkin/postgres"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	checkinDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/checkin"
	employeeDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/employee"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/core/events"
)

// Wednesday
var today = time.Date(2025, time.March, 5, 9, 30, 0, 0, time.UTC)

type memoryGuard struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newMemoryGuard() *memoryGuard {
	return &memoryGuard{keys: map[string]bool{}}
}

func (g *memoryGuard) Acquire(_ context.Context, key string, _ time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return false, g.err
	}
	if g.keys[key] {
		return false, nil
	}
	g.keys[key] = true
	return true, nil
}

func (g *memoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.keys, key)
	return nil
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

func seedPerson(db *gorm.DB, name string, role auth.Role, cpf, email string) string {
	u := &userDatamodel.User{Name: name, UserRole: string(role), IsActive: true}
	Expect(db.Create(u).Error).To(Succeed())
	Expect(db.Create(&userDatamodel.PersonalData{
		UserID:    u.ID,
		CPF:       cpf,
		Email:     email,
		Telephone: "11988887777",
		Address:   "Rua das Flores, 123",
		BornDate:  time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC),
		Sex:       "feminino",
	}).Error).To(Succeed())
	return u.ID
}

func seedEmployee(db *gorm.DB, userID string) string {
	e := &employeeDatamodel.Employee{
		UserID:         userID,
		Position:       "Professor",
		Shift:          "Manhã",
		ShiftStartTime: "06:00",
		ShiftEndTime:   "12:00",
		SalaryInCents:  300000,
		HireDate:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	Expect(db.Create(e).Error).To(Succeed())
	return e.ID
}

var _ = Describe("CheckIn Service", func() {
	var (
		db        *gorm.DB
		service   *checkin.Service
		guard     *memoryGuard
		publisher *recordingPublisher
		ctx       context.Context
		clock     time.Time
		anaID     string

		staff = &auth.Identity{ID: "staff-id", Role: auth.RoleFuncionario}
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		clock = today
		guard = newMemoryGuard()
		publisher = &recordingPublisher{}
		service = checkin.NewService(checkinPostgres.NewCheckInRepository(db), guard, publisher).
			WithClock(func() time.Time { return clock })

		anaID = seedPerson(db, "Ana", auth.RoleAluno, "98765432100", "ana@example.com")
	})

	Describe("QuickCheckIn", func() {
		It("checks a student in by formatted CPF and announces it", func() {
			receipt, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "987.654.321-00"})

			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.UserName).To(Equal("Ana"))
			Expect(receipt.CheckInDate).To(Equal("2025-03-05"))
			Expect(receipt.CheckInTime).To(Equal("09:30"))
			Expect(receipt.Method).To(Equal(checkin.MethodCPF))

			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].EventType()).To(Equal(events.EventTypeCheckInRecorded))
		})

		It("accepts the e-mail in any case", func() {
			receipt, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "ANA@example.com"})
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Method).To(Equal(checkin.MethodEmail))
		})

		It("allows one check-in per day", func() {
			_, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "98765432100"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "ana@example.com"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.Message).To(Equal("Ana, você já fez check-in hoje!"))

			clock = today.AddDate(0, 0, 1)
			_, err = service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "98765432100"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("still enforces the daily limit when the guard is down", func() {
			Expect(db.Create(&checkinDatamodel.CheckIn{
				UserID:           anaID,
				CheckInDate:      time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC),
				CheckInTime:      "07:00",
				CheckInTimestamp: today,
				Method:           checkin.MethodCPF,
				Identifier:       "98765432100",
			}).Error).To(Succeed())
			guard.err = errors.New("redis down")

			_, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "98765432100"})

			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("já fez check-in hoje"))
		})

		It("is closed on weekends", func() {
			clock = time.Date(2025, time.March, 8, 10, 0, 0, 0, time.UTC)

			_, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "98765432100"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeCheckInClosed))
			Expect(appErr.Message).To(ContainSubstring("Hoje é sábado"))
		})

		It("asks for an identifier", func() {
			_, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "   "})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKeyWithValue("identifier", []string{"Digite seu CPF ou email para fazer check-in"}))
		})

		It("rejects unknown people, staff and deactivated students", func() {
			_, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "nobody@example.com"})
			Expect(errors.Is(err, checkin.ErrUnknownIdentifier)).To(BeTrue())

			seedPerson(db, "Paulo", auth.RoleProfessor, "11122233344", "paulo@jmfitness.com")
			_, err = service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "11122233344"})
			Expect(errors.Is(err, checkin.ErrStudentsOnly)).To(BeTrue())

			Expect(db.Model(&userDatamodel.User{}).Where("id = ?", anaID).Update("deleted_at", today).Error).To(Succeed())
			_, err = service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "98765432100"})
			Expect(errors.Is(err, checkin.ErrUnknownIdentifier)).To(BeTrue())
		})
	})

	Describe("ManualCheckIn", func() {
		It("records who registered it", func() {
			receipt, err := service.ManualCheckIn(ctx, staff, checkin.ManualCheckInDTO{StudentID: anaID})
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Method).To(Equal(checkin.MethodManual))

			list, err := service.List(ctx, staff, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].UserName).To(Equal("Ana"))
			Expect(*list[0].RegisteredBy).To(Equal("staff-id"))
		})

		It("lets a student check only themself in", func() {
			_, err := service.ManualCheckIn(ctx, &auth.Identity{ID: "other", Role: auth.RoleAluno}, checkin.ManualCheckInDTO{StudentID: anaID})
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())

			_, err = service.ManualCheckIn(ctx, &auth.Identity{ID: anaID, Role: auth.RoleAluno}, checkin.ManualCheckInDTO{StudentID: anaID})
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("listing", func() {
		BeforeEach(func() {
			_, err := service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "98765432100"})
			Expect(err).NotTo(HaveOccurred())
			clock = today.AddDate(0, 0, 1)
			_, err = service.QuickCheckIn(ctx, checkin.QuickCheckInDTO{Identifier: "98765432100"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("filters the staff list by day", func() {
			day := time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC)
			list, err := service.List(ctx, staff, &day)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].CheckInDate).To(Equal("2025-03-05"))
		})

		It("shows a student their own history oldest first", func() {
			list, err := service.ListByStudent(ctx, &auth.Identity{ID: anaID, Role: auth.RoleAluno}, anaID)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].CheckInDate).To(Equal("2025-03-05"))
			Expect(list[1].CheckInDate).To(Equal("2025-03-06"))
		})

		It("keeps the daily list away from students", func() {
			_, err := service.List(ctx, &auth.Identity{ID: anaID, Role: auth.RoleAluno}, nil)
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})
	})

	Describe("ProfessorCheckIn", func() {
		var prof *auth.Identity

		BeforeEach(func() {
			id := seedPerson(db, "Paulo", auth.RoleProfessor, "11122233344", "paulo@jmfitness.com")
			seedEmployee(db, id)
			prof = &auth.Identity{ID: id, Role: auth.RoleProfessor}
		})

		It("marks presence once per day", func() {
			pc, err := service.ProfessorCheckIn(ctx, prof, checkin.ProfessorCheckInDTO{Notes: ptr("Turma da manhã")})
			Expect(err).NotTo(HaveOccurred())
			Expect(pc.CheckInTime).To(Equal("09:30"))
			Expect(*pc.Notes).To(Equal("Turma da manhã"))

			clock = today.Add(2 * time.Hour)
			_, err = service.ProfessorCheckIn(ctx, prof, checkin.ProfessorCheckInDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Message).To(Equal("Você já fez check-in hoje às 09:30"))

			history, err := service.ProfessorHistory(ctx, prof, nil, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(history).To(HaveLen(1))
			Expect(publisher.published).To(HaveLen(1))
		})

		It("is for professors only", func() {
			_, err := service.ProfessorCheckIn(ctx, staff, checkin.ProfessorCheckInDTO{})
			Expect(errors.Is(err, checkin.ErrProfessorsOnly)).To(BeTrue())
		})

		It("needs an employee record", func() {
			id := seedPerson(db, "Sem Registro", auth.RoleProfessor, "55566677788", "sem@jmfitness.com")
			_, err := service.ProfessorCheckIn(ctx, &auth.Identity{ID: id, Role: auth.RoleProfessor}, checkin.ProfessorCheckInDTO{})
			Expect(errors.Is(err, checkin.ErrNoEmployeeRecord)).To(BeTrue())
		})
	})
})

func ptr[T any](v T) *T { return &v }
