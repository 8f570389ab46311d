package student_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/internal/payment"
	"github.com/jmfitness/studio-management/internal/student"
	studentPostgres "github.com/jmfitness/studio-management/internal/student/postgres"
	"github.com/jmfitness/studio-management/internal/user"
	userPostgres "github.com/jmfitness/studio-management/internal/user/postgres"
)

type result struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

var _ = Describe("Student Handler", func() {
	var router chi.Router

	BeforeEach(func() {
		db, err := dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		svc := student.NewService(
			studentPostgres.NewStudentRepository(db),
			user.NewRegistrar(userPostgres.NewUserRepository(db)),
			database.NewUnitOfWork(db),
			&fakeConfirmations{},
			payment.NewStatusCalculator(func() time.Time { return today }),
			events.Nop{},
		)
		handler := student.NewHandler(svc)
		staff := &auth.Identity{ID: "staff-id", Role: auth.RoleFuncionario}

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), staff)))
			})
		})
		router.Post("/students", handler.Create)
		router.Get("/students/search", handler.Search)
		router.Get("/students/{id}", handler.Get)
	})

	do := func(method, path string, body interface{}) (*httptest.ResponseRecorder, result) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var res result
		Expect(json.Unmarshal(w.Body.Bytes(), &res)).To(Succeed())
		return w, res
	}

	It("registers a student and finds it by name", func() {
		w, res := do(http.MethodPost, "/students", studentDTO())
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(res.Success).To(BeTrue())

		w, res = do(http.MethodGet, "/students/search?q=souza", nil)
		Expect(w.Code).To(Equal(http.StatusOK))

		var docs []map[string]string
		Expect(json.Unmarshal(res.Data, &docs)).To(Succeed())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0]["name"]).To(Equal("Ana Souza"))
	})

	It("reports every invalid field at once", func() {
		dto := studentDTO()
		dto.Email = "nao-e-email"
		dto.PaymentMethod = "boleto"

		w, res := do(http.MethodPost, "/students", dto)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(res.Errors).To(HaveKey("email"))
		Expect(res.Errors).To(HaveKey("paymentMethod"))
	})

	It("returns 404 for an unknown student", func() {
		w, res := do(http.MethodGet, "/students/missing", nil)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(res.Error).To(Equal("Aluno não encontrado"))
	})
})
