package user_test

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
	userDatamodel "github.com/jmfitness/studio-management/internal/core/datamodel/user"
	"github.com/jmfitness/studio-management/internal/user"
)

type result struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

var _ = Describe("User Handler", func() {
	var (
		db     *gorm.DB
		router chi.Router
		admin  *auth.Identity
	)

	BeforeEach(func() {
		var err error
		db, err = dbtest.Open()
		Expect(err).NotTo(HaveOccurred())

		admin = &auth.Identity{ID: seedUser(db, "Root", auth.RoleAdmin, "root@jmfitness.com"), Role: auth.RoleAdmin}
		handler := user.NewHandler(newService(db, &fakeResets{}))

		router = chi.NewRouter()
		router.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), admin)))
			})
		})
		router.Post("/admins", handler.CreateAdmin)
		router.Get("/users/{id}", handler.Get)
		router.Patch("/users/{id}/status", handler.ToggleStatus)
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

	It("creates an admin", func() {
		w, res := do(http.MethodPost, "/admins", adminDTO())

		Expect(w.Code).To(Equal(http.StatusCreated))
		Expect(res.Success).To(BeTrue())
		Expect(res.Message).To(Equal("Administrador criado com sucesso!"))
	})

	It("answers a duplicate CPF with a cpf field error and inserts nothing", func() {
		w, _ := do(http.MethodPost, "/admins", adminDTO())
		Expect(w.Code).To(Equal(http.StatusCreated))

		dto := adminDTO()
		dto.Email = "outra@jmfitness.com"
		w, res := do(http.MethodPost, "/admins", dto)

		Expect(w.Code).To(Equal(http.StatusConflict))
		Expect(res.Success).To(BeFalse())
		Expect(res.Errors).To(HaveKeyWithValue("cpf", []string{"CPF já cadastrado"}))

		var n int64
		Expect(db.Model(&userDatamodel.PersonalData{}).Where("cpf = ?", "11122233344").Count(&n).Error).To(Succeed())
		Expect(n).To(Equal(int64(1)))
	})

	It("rejects unknown payload fields", func() {
		w, res := do(http.MethodPost, "/admins", map[string]string{"role": "admin"})

		Expect(w.Code).To(Equal(http.StatusBadRequest))
		Expect(res.Success).To(BeFalse())
	})

	It("returns 404 for an unknown user", func() {
		w, res := do(http.MethodGet, "/users/missing", nil)

		Expect(w.Code).To(Equal(http.StatusNotFound))
		Expect(res.Error).To(Equal("Usuário não encontrado"))
	})

	It("reports the new status in the message", func() {
		id := seedUser(db, "Ana", auth.RoleAluno, "ana@example.com")

		w, res := do(http.MethodPatch, "/users/"+id+"/status", map[string]bool{"isActive": false})

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(res.Message).To(Equal("Usuário desativado com sucesso"))
	})
})
