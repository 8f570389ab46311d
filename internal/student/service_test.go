package student_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/confirmation"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	studentDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/student"
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/internal/payment"
	"github.com/jmfitness/studio-management/internal/search"
	"github.com/jmfitness/studio-management/internal/student"
	studentPostgres "github.com/jmfitness/studio-management/internal/student/postgres"
	"github.com/jmfitness/studio-management/internal/user"
	userPostgres "github.com/jmfitness/studio-management/internal/user/postgres"
)

var today = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)

type fakeConfirmations struct {
	issueErr error
	sent     []confirmation.Kind
	to       []string
}

func (f *fakeConfirmations) Issue(_ context.Context, userID string) (*confirmation.Ticket, error) {
	if f.issueErr != nil {
		return nil, f.issueErr
	}
	return &confirmation.Ticket{Token: "tok-" + userID, Link: "http://app/confirm?token=tok", ExpiresAt: today.Add(24 * time.Hour)}, nil
}

func (f *fakeConfirmations) Notify(_ context.Context, kind confirmation.Kind, _, email string, _ *confirmation.Ticket) error {
	f.sent = append(f.sent, kind)
	f.to = append(f.to, email)
	return nil
}

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

type fakeSearcher struct {
	docs []search.Document
	err  error
	hits int
}

func (f *fakeSearcher) Search(context.Context, string, int) ([]search.Document, error) {
	f.hits++
	return f.docs, f.err
}

func ptr[T any](v T) *T { return &v }

func studentDTO() student.CreateStudentDTO {
	return student.CreateStudentDTO{
		PersonalDTO: user.PersonalDTO{
			Name:      "Ana Souza",
			CPF:       "987.654.321-00",
			Email:     "Ana@Example.com",
			Telephone: "11988887777",
			Address:   "Rua das Flores, 123 - São Paulo",
			BornDate:  "2000-06-15",
			Sex:       "feminino",
		},
		MonthlyFeeValueInCents: 15000,
		PaymentMethod:          "pix",
		DueDate:                5,
	}
}

func count(db *gorm.DB, model interface{}) int64 {
	var n int64
	Expect(db.Model(model).Count(&n).Error).To(Succeed())
	return n
}

var _ = Describe("Student Service", func() {
	var (
		db            *gorm.DB
		service       *student.Service
		confirmations *fakeConfirmations
		publisher     *recordingPublisher
		ctx           context.Context
		admin         *auth.Identity

		staff = &auth.Identity{ID: "staff-id", Role: auth.RoleFuncionario}
		prof  = &auth.Identity{ID: "prof-id", Role: auth.RoleProfessor}
	)

	create := func(dto student.CreateStudentDTO) string {
		created, err := service.Create(ctx, admin, dto)
		Expect(err).NotTo(HaveOccurred())
		return created.UserID
	}

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		confirmations = &fakeConfirmations{}
		publisher = &recordingPublisher{}

		root := &userDatamodel.User{Name: "Root", UserRole: string(auth.RoleAdmin), IsActive: true}
		Expect(db.Create(root).Error).To(Succeed())
		admin = &auth.Identity{ID: root.ID, Role: auth.RoleAdmin}

		service = student.NewService(
			studentPostgres.NewStudentRepository(db),
			user.NewRegistrar(userPostgres.NewUserRepository(db)),
			database.NewUnitOfWork(db),
			confirmations,
			payment.NewStatusCalculator(func() time.Time { return today }),
			publisher,
		)
	})

	Describe("Create", func() {
		It("writes every row and sends the welcome link", func() {
			dto := studentDTO()
			dto.Health.HeightCm = ptr(165)
			id := create(dto)

			Expect(count(db, &userDatamodel.User{})).To(Equal(int64(2)))
			Expect(count(db, &userDatamodel.PersonalData{})).To(Equal(int64(1)))
			Expect(count(db, &studentDatamodel.Financial{})).To(Equal(int64(1)))
			Expect(count(db, &studentDatamodel.HealthMetrics{})).To(Equal(int64(1)))

			Expect(confirmations.sent).To(Equal([]confirmation.Kind{confirmation.KindWelcome}))
			Expect(confirmations.to).To(Equal([]string{"ana@example.com"}))

			Expect(publisher.published).To(HaveLen(1))
			ev, ok := publisher.published[0].(*events.StudentUpsertedEvent)
			Expect(ok).To(BeTrue())
			Expect(ev.UserID).To(Equal(id))
			Expect(ev.CPF).To(Equal("98765432100"))
		})

		It("rolls everything back when the confirmation token cannot be issued", func() {
			confirmations.issueErr = errors.New("token store down")

			_, err := service.Create(ctx, admin, studentDTO())

			Expect(err).To(HaveOccurred())
			Expect(count(db, &userDatamodel.User{})).To(Equal(int64(1)))
			Expect(count(db, &studentDatamodel.Financial{})).To(Equal(int64(0)))
			Expect(confirmations.sent).To(BeEmpty())
			Expect(publisher.published).To(BeEmpty())
		})

		It("rejects a due day outside 1 to 10", func() {
			dto := studentDTO()
			dto.DueDate = 15

			_, err := service.Create(ctx, admin, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKeyWithValue("dueDate", []string{"Dia de vencimento deve estar entre 1 e 10"}))
		})

		It("lets professors register students", func() {
			_, err := service.Create(ctx, prof, studentDTO())
			Expect(err).NotTo(HaveOccurred())
		})

		It("does not let a student register another one", func() {
			_, err := service.Create(ctx, &auth.Identity{ID: "x", Role: auth.RoleAluno}, studentDTO())
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})

		It("answers a duplicate e-mail with a conflict", func() {
			create(studentDTO())
			dto := studentDTO()
			dto.CPF = "111.222.333-44"

			_, err := service.Create(ctx, admin, dto)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(409))
			Expect(appErr.FieldErrors()).To(HaveKey("email"))
		})
	})

	Describe("Get", func() {
		var id string

		BeforeEach(func() {
			id = create(studentDTO())
		})

		It("shows the fee to reception staff", func() {
			s, err := service.Get(ctx, staff, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Age).To(Equal(24))
			Expect(s.Email).To(Equal("ana@example.com"))
			Expect(s.Financial).NotTo(BeNil())
			Expect(s.Financial.FormattedMonthlyFee).To(Equal("R$ 150,00"))
			Expect(s.Financial.IsPaymentUpToDate).To(BeTrue())
		})

		It("hides the fee from professors", func() {
			s, err := service.Get(ctx, prof, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Financial).To(BeNil())
		})

		It("lets a student read only their own record", func() {
			s, err := service.Get(ctx, &auth.Identity{ID: id, Role: auth.RoleAluno}, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Financial).NotTo(BeNil())

			_, err = service.Get(ctx, &auth.Identity{ID: "other", Role: auth.RoleAluno}, id)
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})

		It("returns not found for an unknown id", func() {
			_, err := service.Get(ctx, admin, "missing")
			Expect(errors.Is(err, internal.ErrStudentNotFound)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		var id string

		BeforeEach(func() {
			id = create(studentDTO())
			publisher.published = nil
		})

		It("updates the fee and the health summary in one go", func() {
			err := service.Update(ctx, admin, id, student.UpdateStudentDTO{
				MonthlyFeeValueInCents: ptr(int64(18000)),
				WeightKg:               ptr(61.5),
			})
			Expect(err).NotTo(HaveOccurred())

			s, err := service.Get(ctx, admin, id)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Financial.MonthlyFeeValueInCents).To(Equal(int64(18000)))
			Expect(*s.WeightKg).To(BeNumerically("~", 61.5, 0.01))
			Expect(publisher.published).To(HaveLen(1))
		})

		It("keeps the fee out of reach of reception staff", func() {
			err := service.Update(ctx, staff, id, student.UpdateStudentDTO{MonthlyFeeValueInCents: ptr(int64(1000))})
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})

		It("lets reception staff fix contact data", func() {
			err := service.Update(ctx, staff, id, student.UpdateStudentDTO{Telephone: ptr("11900001111")})
			Expect(err).NotTo(HaveOccurred())
		})

		It("refuses an empty payload", func() {
			err := service.Update(ctx, admin, id, student.UpdateStudentDTO{})
			Expect(errors.Is(err, student.ErrNothingToUpdate)).To(BeTrue())
		})

		It("does not treat an admin as a student", func() {
			err := service.Update(ctx, admin, admin.ID, student.UpdateStudentDTO{Name: ptr("Outro")})
			Expect(errors.Is(err, internal.ErrStudentNotFound)).To(BeTrue())
		})
	})

	Describe("SoftDelete and Restore", func() {
		It("hides the student and tells the index", func() {
			id := create(studentDTO())
			publisher.published = nil

			Expect(service.SoftDelete(ctx, staff, id)).To(Succeed())
			Expect(service.SoftDelete(ctx, staff, id)).To(Succeed())

			list, err := service.List(ctx, admin, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(BeEmpty())

			list, err = service.List(ctx, admin, true)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].DeletedAt).NotTo(BeNil())

			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].EventType()).To(Equal(events.EventTypeStudentRemoved))

			Expect(service.Restore(ctx, admin, id)).To(Succeed())
			list, err = service.List(ctx, admin, false)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("never deletes an admin", func() {
			err := service.SoftDelete(ctx, admin, admin.ID)
			Expect(errors.Is(err, student.ErrAdminTarget)).To(BeTrue())
		})

		It("does not let professors delete students", func() {
			id := create(studentDTO())
			err := service.SoftDelete(ctx, prof, id)
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})
	})

	Describe("Search", func() {
		BeforeEach(func() {
			create(studentDTO())
		})

		It("returns nothing for a one-letter query", func() {
			docs, err := service.Search(ctx, staff, "a")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(BeEmpty())
		})

		It("matches name, e-mail and CPF in the database", func() {
			for _, q := range []string{"ANA", "example.com", "654.321"} {
				docs, err := service.Search(ctx, staff, q)
				Expect(err).NotTo(HaveOccurred())
				Expect(docs).To(HaveLen(1), q)
				Expect(docs[0].Name).To(Equal("Ana Souza"))
			}
		})

		It("prefers the external index and falls back when it fails", func() {
			searcher := &fakeSearcher{docs: []search.Document{{ID: "idx", Name: "Do Índice"}}}
			service.WithSearcher(searcher)

			docs, err := service.Search(ctx, staff, "qualquer")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs[0].ID).To(Equal("idx"))

			searcher.err = errors.New("meilisearch down")
			docs, err = service.Search(ctx, staff, "souza")
			Expect(err).NotTo(HaveOccurred())
			Expect(docs).To(HaveLen(1))
			Expect(docs[0].Name).To(Equal("Ana Souza"))
			Expect(searcher.hits).To(Equal(2))
		})

		It("is staff only", func() {
			_, err := service.Search(ctx, &auth.Identity{ID: "s", Role: auth.RoleAluno}, "ana")
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})
	})
})
