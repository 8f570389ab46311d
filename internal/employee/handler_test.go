package employee_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/core/database/dbtest"
	"github.com/jmfitness/studio-management/internal/employee"
)

type result struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

var _ = Describe("Employee Handler", func() {
	var (
		db     *gorm.DB
		router chi.Router
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		admin := &auth.Identity{ID: "admin-id", Role: auth.RoleAdmin}
		handler := employee.NewHandler(newService(db))

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), admin)))
			})
		})
		router.Post("/employees", handler.Create)
		router.Get("/employees", handler.List)
		router.Patch("/employees/{id}", handler.Update)
		router.Delete("/employees/{id}", handler.Delete)
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

	It("creates, lists and deactivates an employee", func() {
		w, res := do(http.MethodPost, "/employees", employeeDTO())
		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(res.Message).To(Equal("Funcionário criado com sucesso!"))

		var created employee.Created
		Expect(json.Unmarshal(res.Data, &created)).To(Succeed())

		w, res = do(http.MethodGet, "/employees", nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		var list []employee.Employee
		Expect(json.Unmarshal(res.Data, &list)).To(Succeed())
		Expect(list).To(HaveLen(1))
		Expect(list[0].SalaryFormatted).To(Equal("R$ 5.000,00"))

		w, res = do(http.MethodDelete, "/employees/"+created.EmployeeID, nil)
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(res.Message).To(Equal("Funcionário desativado com sucesso!"))
	})

	It("reports field errors for an invalid shift time", func() {
		dto := employeeDTO()
		dto.ShiftStartTime = "25:00"

		w, res := do(http.MethodPost, "/employees", dto)

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(res.Errors).To(HaveKey("shiftStartTime"))
	})

	It("answers 404 when updating an unknown employee", func() {
		phone := "11955554444"
		w, res := do(http.MethodPatch, "/employees/missing", employee.UpdateEmployeeDTO{Telephone: &phone})

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(res.Error).To(Equal("Funcionário não encontrado"))
	})
})
