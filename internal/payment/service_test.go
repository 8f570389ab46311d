package payment_test

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
	"github.com/jmfitness/studio-management/internal/core/datamodel/student"
	"github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/internal/payment"
	paymentPostgres "github.com/jmfitness/studio-management/internal/payment/postgres"
)

type recordingPublisher struct {
	published []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

func seedStudent(db *gorm.DB, name string, fin student.Financial, deleted bool) string {
	u := &user.User{Name: name, UserRole: string(auth.RoleAluno), IsActive: true}
	if deleted {
		now := time.Now()
		u.DeletedAt = &now
	}
	Expect(db.Create(u).Error).To(Succeed())
	fin.UserID = u.ID
	Expect(db.Create(&fin).Error).To(Succeed())
	return u.ID
}

var _ = Describe("Payment Service", func() {
	var (
		db        *gorm.DB
		service   *payment.Service
		publisher *recordingPublisher
		ctx       context.Context
		today     time.Time

		admin = &auth.Identity{ID: "admin-id", Role: auth.RoleAdmin}
		staff = &auth.Identity{ID: "staff-id", Role: auth.RoleFuncionario}
		prof  = &auth.Identity{ID: "prof-id", Role: auth.RoleProfessor}
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		today = time.Date(2025, time.March, 5, 12, 0, 0, 0, time.UTC)
		publisher = &recordingPublisher{}
		service = payment.NewService(
			paymentPostgres.NewPaymentRepository(db),
			payment.NewStatusCalculator(func() time.Time { return today }),
			publisher,
		)
		ctx = context.Background()
	})

	Describe("ListMonthlyPayments", func() {
		BeforeEach(func() {
			seedStudent(db, "Bruna", student.Financial{MonthlyFeeValueInCents: 15000, PaymentMethod: "pix", DueDate: 10}, false)
			seedStudent(db, "Ana", student.Financial{MonthlyFeeValueInCents: 12000, PaymentMethod: "dinheiro", DueDate: 1}, false)
			seedStudent(db, "Carlos", student.Financial{MonthlyFeeValueInCents: 9900, PaymentMethod: "pix", DueDate: 5}, true)
		})

		It("lists active students by name with formatted fees", func() {
			list, err := service.ListMonthlyPayments(ctx, staff)

			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].StudentName).To(Equal("Ana"))
			Expect(list[0].MonthlyFeeValue).To(Equal(120.0))
			Expect(list[0].MonthlyFeeFormatted).To(Equal("R$ 120,00"))
			Expect(list[0].UpToDate).To(BeFalse())
			Expect(list[1].StudentName).To(Equal("Bruna"))
			Expect(list[1].UpToDate).To(BeTrue())
		})

		It("is available to admins", func() {
			_, err := service.ListMonthlyPayments(ctx, admin)
			Expect(err).NotTo(HaveOccurred())
		})

		It("is denied to professors", func() {
			_, err := service.ListMonthlyPayments(ctx, prof)
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})

		It("requires an identity", func() {
			_, err := service.ListMonthlyPayments(ctx, nil)
			Expect(errors.Is(err, internal.ErrNotAuthenticated)).To(BeTrue())
		})
	})

	Describe("UpdatePaymentStatus", func() {
		var studentID string
		paid := func(v bool) *bool { return &v }

		BeforeEach(func() {
			studentID = seedStudent(db, "Ana", student.Financial{MonthlyFeeValueInCents: 12000, PaymentMethod: "pix", DueDate: 10}, false)
		})

		It("marks the fee as paid today", func() {
			err := service.UpdatePaymentStatus(ctx, staff, studentID, payment.UpdateStatusDTO{Paid: paid(true)})
			Expect(err).NotTo(HaveOccurred())

			var fin student.Financial
			Expect(db.Where("user_id = ?", studentID).Take(&fin).Error).To(Succeed())
			Expect(fin.Paid).To(BeTrue())
			Expect(fin.LastPaymentDate).NotTo(BeNil())
			Expect(fin.LastPaymentDate.Format("2006-01-02")).To(Equal("2025-03-05"))
		})

		It("marks the fee as pending", func() {
			Expect(service.UpdatePaymentStatus(ctx, staff, studentID, payment.UpdateStatusDTO{Paid: paid(true)})).To(Succeed())
			Expect(service.UpdatePaymentStatus(ctx, admin, studentID, payment.UpdateStatusDTO{Paid: paid(false)})).To(Succeed())

			var fin student.Financial
			Expect(db.Where("user_id = ?", studentID).Take(&fin).Error).To(Succeed())
			Expect(fin.Paid).To(BeFalse())
		})

		It("requires the paid flag", func() {
			err := service.UpdatePaymentStatus(ctx, staff, studentID, payment.UpdateStatusDTO{})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKey("paid"))
		})

		It("reports an unknown student", func() {
			err := service.UpdatePaymentStatus(ctx, staff, "missing", payment.UpdateStatusDTO{Paid: paid(true)})
			Expect(errors.Is(err, internal.ErrStudentNotFound)).To(BeTrue())
		})
	})

	Describe("PayMonthlyFee", func() {
		var (
			studentID string
			me        *auth.Identity
		)

		BeforeEach(func() {
			studentID = seedStudent(db, "Ana", student.Financial{MonthlyFeeValueInCents: 12000, PaymentMethod: "dinheiro", DueDate: 10}, false)
			me = &auth.Identity{ID: studentID, Role: auth.RoleAluno}
		})

		It("records the payment and returns the next due date", func() {
			receipt, err := service.PayMonthlyFee(ctx, me, payment.PayFeeDTO{PaymentMethod: "pix"})

			Expect(err).NotTo(HaveOccurred())
			Expect(receipt).To(Equal(&payment.Receipt{PaidAt: "2025-03-05", Method: "pix", NextDueDate: "2025-04-10"}))

			var fin student.Financial
			Expect(db.Where("user_id = ?", studentID).Take(&fin).Error).To(Succeed())
			Expect(fin.Paid).To(BeTrue())
			Expect(fin.PaymentMethod).To(Equal("pix"))

			Expect(publisher.published).To(HaveLen(1))
			Expect(publisher.published[0].EventType()).To(Equal(events.EventTypeFeePaid))
		})

		It("rejects a second payment in the same month", func() {
			_, err := service.PayMonthlyFee(ctx, me, payment.PayFeeDTO{PaymentMethod: "pix"})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.PayMonthlyFee(ctx, me, payment.PayFeeDTO{PaymentMethod: "pix"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAlreadyPaid))
			Expect(appErr.Message).To(Equal("Sua mensalidade já foi paga em 05/03/2025"))
		})

		It("accepts payment when the paid flag is left over from last month", func() {
			lastMonth := time.Date(2025, time.February, 4, 0, 0, 0, 0, time.UTC)
			Expect(db.Model(&student.Financial{}).Where("user_id = ?", studentID).
				Updates(map[string]interface{}{"paid": true, "last_payment_date": lastMonth}).Error).To(Succeed())

			_, err := service.PayMonthlyFee(ctx, me, payment.PayFeeDTO{PaymentMethod: "pix"})
			Expect(err).NotTo(HaveOccurred())
		})

		It("validates the payment method", func() {
			_, err := service.PayMonthlyFee(ctx, me, payment.PayFeeDTO{PaymentMethod: "boleto"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKey("paymentMethod"))
		})

		It("is only for students", func() {
			_, err := service.PayMonthlyFee(ctx, staff, payment.PayFeeDTO{PaymentMethod: "pix"})
			Expect(errors.Is(err, payment.ErrStudentsOnly)).To(BeTrue())
		})

		It("reports a student without financial data", func() {
			_, err := service.PayMonthlyFee(ctx, &auth.Identity{ID: "ghost", Role: auth.RoleAluno}, payment.PayFeeDTO{PaymentMethod: "pix"})
			Expect(errors.Is(err, internal.ErrFinancialNotFound)).To(BeTrue())
		})
	})

	Describe("GetMyPaymentStatus", func() {
		It("derives the status from the calendar", func() {
			id := seedStudent(db, "Ana", student.Financial{MonthlyFeeValueInCents: 12000, PaymentMethod: "pix", DueDate: 10}, false)

			status, err := service.GetMyPaymentStatus(ctx, &auth.Identity{ID: id, Role: auth.RoleAluno})

			Expect(err).NotTo(HaveOccurred())
			Expect(status.UpToDate).To(BeTrue())
			Expect(status.DaysUntilDue).To(Equal(5))
			Expect(status.MonthlyFeeFormatted).To(Equal("R$ 120,00"))
		})

		It("is only for students", func() {
			_, err := service.GetMyPaymentStatus(ctx, admin)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.StatusCode).To(Equal(403))
		})
	})

	Describe("ResetMonthlyFlags", func() {
		It("clears only payments made before this month", func() {
			old := seedStudent(db, "Ana", student.Financial{MonthlyFeeValueInCents: 1, PaymentMethod: "pix", DueDate: 10,
				Paid: true, LastPaymentDate: &[]time.Time{time.Date(2025, time.February, 2, 0, 0, 0, 0, time.UTC)}[0]}, false)
			fresh := seedStudent(db, "Bia", student.Financial{MonthlyFeeValueInCents: 1, PaymentMethod: "pix", DueDate: 10,
				Paid: true, LastPaymentDate: &[]time.Time{time.Date(2025, time.March, 2, 0, 0, 0, 0, time.UTC)}[0]}, false)

			n, err := service.ResetMonthlyFlags(ctx)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(int64(1)))

			var reset, kept student.Financial
			Expect(db.Where("user_id = ?", old).Take(&reset).Error).To(Succeed())
			Expect(reset.Paid).To(BeFalse())
			Expect(db.Where("user_id = ?", fresh).Take(&kept).Error).To(Succeed())
			Expect(kept.Paid).To(BeTrue())
		})
	})
})
