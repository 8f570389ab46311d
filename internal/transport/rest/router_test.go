package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"time"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jmfitness/studio-management/internal/auth"
	"github.com/jmfitness/studio-management/internal/checkin"
	"github.com/jmfitness/studio-management/internal/confirmation"
	"github.com/jmfitness/studio-management/internal/dashboard"
	"github.com/jmfitness/studio-management/internal/employee"
	"github.com/jmfitness/studio-management/internal/expense"
	"github.com/jmfitness/studio-management/internal/health"
	"github.com/jmfitness/studio-management/internal/payment"
	"github.com/jmfitness/studio-management/internal/payroll"
	"github.com/jmfitness/studio-management/internal/student"
	"github.com/jmfitness/studio-management/internal/timerecord"
	"github.com/jmfitness/studio-management/internal/transport/middleware"
	"github.com/jmfitness/studio-management/internal/transport/rest"
	"github.com/jmfitness/studio-management/internal/transport/swagger"
	"github.com/jmfitness/studio-management/internal/user"
	"github.com/jmfitness/studio-management/pkg/logger"
)

const secret = "0123456789abcdef0123456789abcdef"

var _ = Describe("Router", func() {
	var (
		router   *chi.Mux
		tokens   *auth.JWTTokenGenerator
		dbHealth error
	)

	BeforeEach(func() {
		dbHealth = nil
		tokens = auth.NewJWTTokenGenerator(secret, time.Hour)

		spec, err := swagger.Load(filepath.Join("..", "..", "..", "api", "openapi.yml"))
		Expect(err).NotTo(HaveOccurred())

		router = chi.NewRouter()
		rest.RegisterAllRoutes(router, "http://localhost:3000", rest.Handlers{
			Health: rest.NewHealthHandler(rest.Check{
				Name: "database",
				Ping: func(context.Context) error { return dbHealth },
			}),
			Auth:         auth.NewHandler(auth.NewService(nil, tokens), false),
			User:         user.NewHandler(nil),
			Confirmation: confirmation.NewHandler(nil),
			Employee:     employee.NewHandler(nil),
			Student:      student.NewHandler(nil),
			Payment:      payment.NewHandler(nil),
			HealthData:   health.NewHandler(nil),
			CheckIn:      checkin.NewHandler(nil, nil),
			TimeRecord:   timerecord.NewHandler(nil),
			Expense:      expense.NewHandler(nil),
			Payroll:      payroll.NewHandler(nil),
			Dashboard:    dashboard.NewHandler(nil),
			OpenAPI:      spec,
		}, logger.LoggerWrapper())
	})

	get := func(path string, role auth.Role) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if role != "" {
			token, _, err := tokens.Generate(auth.Identity{ID: "u-1", Email: "u@jmfitness.com", Role: role})
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("answers ping and tags the response with a trace id", func() {
		w := get("/api/v1/ping", "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Header().Get(middleware.TraceHeader)).NotTo(BeEmpty())
		var body map[string]string
		Expect(json.Unmarshal(w.Body.Bytes(), &body)).To(Succeed())
		Expect(body).To(HaveKeyWithValue("status", "OK"))
	})

	It("reports an unhealthy dependency with 503", func() {
		Expect(get("/api/v1/health", "").Code).To(Equal(http.StatusOK))

		dbHealth = errors.New("connection refused")
		w := get("/api/v1/health", "")

		Expect(w.Code).To(Equal(http.StatusServiceUnavailable))
		Expect(w.Body.String()).To(ContainSubstring("connection refused"))
	})

	It("serves the API description", func() {
		w := get(swagger.SpecRoute, "")

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring("/checkins/quick"))
	})

	It("requires a session on protected routes", func() {
		Expect(get("/api/v1/auth/me", "").Code).To(Equal(http.StatusUnauthorized))
		Expect(get("/api/v1/expenses", "").Code).To(Equal(http.StatusUnauthorized))
	})

	It("rejects an invalid token", func() {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/students", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		Expect(w.Code).To(Equal(http.StatusUnauthorized))
	})

	DescribeTable("keeps restricted areas away from other roles",
		func(path string, role auth.Role) {
			Expect(get(path, role).Code).To(Equal(http.StatusForbidden))
		},
		Entry("expenses for a funcionario", "/api/v1/expenses", auth.RoleFuncionario),
		Entry("payroll for a professor", "/api/v1/payroll", auth.RoleProfessor),
		Entry("dashboard for a student", "/api/v1/dashboard/stats", auth.RoleAluno),
		Entry("check-in feed for a student", "/api/v1/checkins/feed", auth.RoleAluno),
	)
})
