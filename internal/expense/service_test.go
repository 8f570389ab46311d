package expense_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	expenseDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/expense"
	"github.com/jmfitness/studio-management/internal/expense"
	expensePostgres "github.com/jmfitness/studio-management/internal/expense/postgres"
	"github.com/jmfitness/studio-management/pkg/storage"
)

func ptr[T any](v T) *T { return &v }

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\n")

type fakeStorage struct {
	uploads   map[string][]byte
	deleted   []string
	uploadErr error
	seq       int
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: map[string][]byte{}}
}

func (f *fakeStorage) Upload(_ context.Context, r io.Reader, folder, fileName string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.seq++
	url := fmt.Sprintf("https://res.cloudinary.com/demo/raw/upload/v1/%s/%d-%s", folder, f.seq, fileName)
	f.uploads[url] = body
	return url, nil
}

func (f *fakeStorage) Delete(_ context.Context, url string) error {
	f.deleted = append(f.deleted, url)
	return nil
}

func newExpenseDTO(description string, cents int64, recurrent bool) expense.CreateExpenseDTO {
	return expense.CreateExpenseDTO{
		Description:   description,
		Category:      "energia",
		AmountInCents: cents,
		DueDate:       "2025-03-10",
		PaymentMethod: "boleto",
		Recurrent:     recurrent,
	}
}

var _ = Describe("Expense Service", func() {
	var (
		db      *gorm.DB
		files   *fakeStorage
		service *expense.Service
		ctx     context.Context

		admin = &auth.Identity{ID: "admin-id", Role: auth.RoleAdmin}
		staff = &auth.Identity{ID: "staff-id", Role: auth.RoleFuncionario}
		clock = time.Date(2025, time.March, 12, 15, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())
		ctx = context.Background()
		files = newFakeStorage()
		service = expense.NewService(expensePostgres.NewExpenseRepository(db), files, "despesas").
			WithClock(func() time.Time { return clock })
	})

	Describe("Create", func() {
		It("stores a sanitized expense with its category label", func() {
			e, err := service.Create(ctx, admin, expense.CreateExpenseDTO{
				Description:   "<b>Conta de luz</b>",
				Category:      "energia",
				AmountInCents: 45990,
				DueDate:       "2025-03-10",
				PaymentMethod: "boleto",
				Recurrent:     true,
				Notes:         ptr("<script>x</script>Referente a fevereiro"),
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(e.Description).To(Equal("Conta de luz"))
			Expect(e.CategoryLabel).To(Equal("Energia Elétrica"))
			Expect(e.FormattedAmount).To(Equal("R$ 459,90"))
			Expect(e.DueDate).To(Equal("2025-03-10"))
			Expect(*e.Notes).To(Equal("Referente a fevereiro"))
			Expect(e.Paid).To(BeFalse())
			Expect(e.CreatedBy).To(Equal("admin-id"))

			var n int64
			Expect(db.Model(&expenseDatamodel.Expense{}).Count(&n).Error).To(Succeed())
			Expect(n).To(Equal(int64(1)))
		})

		It("reports every invalid field", func() {
			_, err := service.Create(ctx, admin, expense.CreateExpenseDTO{Category: "festa", DueDate: "10/03/2025"})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKey("description"))
			Expect(appErr.FieldErrors()).To(HaveKey("category"))
			Expect(appErr.FieldErrors()).To(HaveKey("amountInCents"))
			Expect(appErr.FieldErrors()).To(HaveKey("dueDate"))
			Expect(appErr.FieldErrors()).To(HaveKey("paymentMethod"))
		})

		It("is reserved to admins", func() {
			_, err := service.Create(ctx, staff, newExpenseDTO("Aluguel", 300000, true))
			Expect(errors.Is(err, internal.ErrPermissionDenied)).To(BeTrue())
		})
	})

	Describe("Update", func() {
		It("stamps today when paid without a date and clears it when reopened", func() {
			e, err := service.Create(ctx, admin, newExpenseDTO("Internet", 12000, true))
			Expect(err).NotTo(HaveOccurred())

			updated, err := service.Update(ctx, admin, e.ID, expense.UpdateExpenseDTO{Paid: ptr(true)})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Paid).To(BeTrue())
			Expect(*updated.PaymentDate).To(Equal("2025-03-12"))

			updated, err = service.Update(ctx, admin, e.ID, expense.UpdateExpenseDTO{Paid: ptr(true), PaymentDate: ptr("2025-03-08")})
			Expect(err).NotTo(HaveOccurred())
			Expect(*updated.PaymentDate).To(Equal("2025-03-08"))

			updated, err = service.Update(ctx, admin, e.ID, expense.UpdateExpenseDTO{Paid: ptr(false)})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Paid).To(BeFalse())
			Expect(updated.PaymentDate).To(BeNil())
		})

		It("requires the paid flag", func() {
			e, err := service.Create(ctx, admin, newExpenseDTO("Internet", 12000, true))
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Update(ctx, admin, e.ID, expense.UpdateExpenseDTO{})
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.FieldErrors()).To(HaveKey("paid"))
		})

		It("returns not found for an unknown expense", func() {
			_, err := service.Update(ctx, admin, "missing", expense.UpdateExpenseDTO{Paid: ptr(true)})
			Expect(errors.Is(err, internal.ErrExpenseNotFound)).To(BeTrue())
		})
	})

	Describe("List and Overview", func() {
		BeforeEach(func() {
			rent, err := service.Create(ctx, admin, newExpenseDTO("Aluguel", 300000, true))
			Expect(err).NotTo(HaveOccurred())
			_, err = service.Update(ctx, admin, rent.ID, expense.UpdateExpenseDTO{Paid: ptr(true)})
			Expect(err).NotTo(HaveOccurred())

			_, err = service.Create(ctx, admin, newExpenseDTO("Luz", 50000, true))
			Expect(err).NotTo(HaveOccurred())
			dto := newExpenseDTO("Esteira nova", 700000, false)
			dto.Category = "equipamentos"
			_, err = service.Create(ctx, admin, dto)
			Expect(err).NotTo(HaveOccurred())
		})

		It("filters by paid flag and category", func() {
			pending, err := service.List(ctx, admin, expense.Filter{Paid: ptr(false)})
			Expect(err).NotTo(HaveOccurred())
			Expect(pending).To(HaveLen(2))

			cat := expense.CategoryEquipamentos
			equipment, err := service.List(ctx, admin, expense.Filter{Category: &cat})
			Expect(err).NotTo(HaveOccurred())
			Expect(equipment).To(HaveLen(1))
			Expect(equipment[0].Description).To(Equal("Esteira nova"))
		})

		It("splits totals into paid, pending, recurring and one-off", func() {
			o, err := service.Overview(ctx, admin)
			Expect(err).NotTo(HaveOccurred())

			Expect(o.Paid.Count).To(Equal(int64(1)))
			Expect(o.Paid.TotalFormatted).To(Equal("R$ 3.000,00"))
			Expect(o.Pending.Count).To(Equal(int64(2)))
			Expect(o.Pending.TotalInCents).To(Equal(int64(750000)))
			Expect(o.Recurrent.TotalInCents).To(Equal(int64(350000)))
			Expect(o.OneOff.TotalInCents).To(Equal(int64(700000)))
			Expect(o.Total.TotalFormatted).To(Equal("R$ 10.500,00"))
		})

		It("renders the PDF report", func() {
			body, name, err := service.PDF(ctx, admin, expense.Filter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(name).To(Equal("relatorio-despesas-2025-03-12.pdf"))
			Expect(bytes.HasPrefix(body, []byte("%PDF"))).To(BeTrue())
		})
	})

	Describe("Attach", func() {
		var id string

		BeforeEach(func() {
			e, err := service.Create(ctx, admin, newExpenseDTO("Aluguel", 300000, true))
			Expect(err).NotTo(HaveOccurred())
			id = e.ID
		})

		It("uploads the file and replaces the previous one", func() {
			first, err := service.Attach(ctx, admin, id, bytes.NewReader(pdfBytes), "boleto.pdf", int64(len(pdfBytes)))
			Expect(err).NotTo(HaveOccurred())
			Expect(*first.Attachment).To(ContainSubstring("/despesas/"))
			Expect(files.uploads[*first.Attachment]).To(Equal(pdfBytes))

			second, err := service.Attach(ctx, admin, id, bytes.NewReader(pdfBytes), "recibo.pdf", int64(len(pdfBytes)))
			Expect(err).NotTo(HaveOccurred())
			Expect(*second.Attachment).NotTo(Equal(*first.Attachment))
			Expect(files.deleted).To(ConsistOf(*first.Attachment))
		})

		It("rejects unsupported content", func() {
			body := "just some text"
			_, err := service.Attach(ctx, admin, id, strings.NewReader(body), "notes.txt", int64(len(body)))
			Expect(err).To(MatchError(expense.ErrAttachmentType))
			Expect(files.uploads).To(BeEmpty())
		})

		It("rejects oversized files before reading them", func() {
			_, err := service.Attach(ctx, admin, id, bytes.NewReader(pdfBytes), "big.pdf", expense.MaxAttachmentSize+1)
			Expect(err).To(MatchError(expense.ErrAttachmentTooLarge))
		})

		It("explains when storage is not configured", func() {
			files.uploadErr = storage.ErrDisabled
			_, err := service.Attach(ctx, admin, id, bytes.NewReader(pdfBytes), "boleto.pdf", int64(len(pdfBytes)))
			Expect(err).To(MatchError(expense.ErrStorageDisabled))
		})

		It("removes the stored file when the expense is deleted", func() {
			e, err := service.Attach(ctx, admin, id, bytes.NewReader(pdfBytes), "boleto.pdf", int64(len(pdfBytes)))
			Expect(err).NotTo(HaveOccurred())

			Expect(service.Delete(ctx, admin, id)).To(Succeed())
			Expect(files.deleted).To(ConsistOf(*e.Attachment))
			Expect(errors.Is(service.Delete(ctx, admin, id), internal.ErrExpenseNotFound)).To(BeTrue())
		})
	})
})
