package rest

import (
	"log/slog"

	"github.com/go-chi/chi"

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
	"github.com/jmfitness/studio-management/internal/transport/swagger"
	"github.com/jmfitness/studio-management/internal/user"
)

// Handlers groups every HTTP handler the API mounts. A nil OpenAPI spec
// leaves the documentation routes out.
type Handlers struct {
	Health       *HealthHandler
	Auth         *auth.Handler
	User         *user.Handler
	Confirmation *confirmation.Handler
	Employee     *employee.Handler
	Student      *student.Handler
	Payment      *payment.Handler
	HealthData   *health.Handler
	CheckIn      *checkin.Handler
	TimeRecord   *timerecord.Handler
	Expense      *expense.Handler
	Payroll      *payroll.Handler
	Dashboard    *dashboard.Handler
	OpenAPI      *swagger.Spec
}

func RegisterAllRoutes(router chi.Router, allowedOrigins string, h Handlers, logger *slog.Logger) {
	// Apply global middleware
	router.Use(middleware.CORS(allowedOrigins))
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware)

	if h.OpenAPI != nil {
		router.Handle(swagger.SpecRoute, h.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health.Health)
		r.Get("/ping", h.Health.Ping)

		// Public routes
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/logout", h.Auth.Logout)
		r.Post("/users/confirm", h.Confirmation.Confirm)
		r.Post("/checkins/quick", h.CheckIn.Quick)

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.Authenticate)

			pr.Get("/auth/me", h.Auth.Me)

			pr.Post("/admins", h.User.CreateAdmin)
			pr.Route("/users/{id}", func(ur chi.Router) {
				ur.Get("/", h.User.Get)
				ur.Patch("/status", h.User.ToggleStatus)
				ur.Post("/password", h.User.GeneratePassword)
				ur.Post("/password-reset", h.User.RequestPasswordReset)
			})

			pr.Route("/employees", func(er chi.Router) {
				er.Post("/", h.Employee.Create)
				er.Get("/", h.Employee.List)
				er.Patch("/{id}", h.Employee.Update)
				er.Delete("/{id}", h.Employee.Delete)
				er.Post("/{id}/restore", h.Employee.Restore)
				er.Get("/{id}/salary-history", h.Employee.SalaryHistory)
			})

			pr.Route("/students", func(sr chi.Router) {
				sr.Post("/", h.Student.Create)
				sr.Get("/", h.Student.List)
				sr.Get("/search", h.Student.Search)
				sr.Get("/{id}", h.Student.Get)
				sr.Patch("/{id}", h.Student.Update)
				sr.Delete("/{id}", h.Student.Delete)
				sr.Post("/{id}/restore", h.Student.Restore)

				sr.Get("/{id}/health", h.HealthData.GetMetrics)
				sr.Put("/{id}/health", h.HealthData.UpdateMetrics)
				sr.Get("/{id}/health/history", h.HealthData.GetHistory)
				sr.Post("/{id}/measurements", h.HealthData.SaveMeasurement)
				sr.Get("/{id}/measurements", h.HealthData.ListMeasurements)
			})
			pr.Post("/health/history", h.HealthData.AddHistoryEntry)

			pr.Route("/payments", func(pmr chi.Router) {
				pmr.Get("/monthly", h.Payment.ListMonthly)
				pmr.Patch("/monthly/{userId}", h.Payment.UpdateStatus)
				pmr.Get("/me", h.Payment.Mine)
				pmr.Post("/me/pay", h.Payment.PayMine)
			})

			pr.Route("/checkins", func(cr chi.Router) {
				cr.Post("/", h.CheckIn.Manual)
				cr.Get("/", h.CheckIn.List)
				cr.Post("/professor", h.CheckIn.Professor)
				cr.Get("/professor", h.CheckIn.ProfessorHistory)
				cr.Get("/student/{studentId}", h.CheckIn.ListByStudent)
				cr.With(middleware.RequireStaff).Get("/feed", h.CheckIn.Feed)
			})

			pr.Route("/time-records", func(tr chi.Router) {
				tr.Post("/", h.TimeRecord.Register)
				tr.Get("/", h.TimeRecord.List)
				tr.Patch("/{id}/approve", h.TimeRecord.Approve)
			})

			pr.Route("/expenses", func(er chi.Router) {
				er.Use(middleware.RequirePermission(auth.ResourceExpenses, auth.ActionRead))
				er.Post("/", h.Expense.Create)
				er.Get("/", h.Expense.List)
				er.Get("/categories", h.Expense.Categories)
				er.Get("/overview", h.Expense.Overview)
				er.Get("/report.pdf", h.Expense.Report)
				er.Patch("/{id}", h.Expense.Update)
				er.Delete("/{id}", h.Expense.Delete)
				er.Post("/{id}/attachment", h.Expense.Attach)
			})

			pr.Route("/payroll", func(pyr chi.Router) {
				pyr.Use(middleware.RequirePermission(auth.ResourcePayroll, auth.ActionRead))
				pyr.Get("/", h.Payroll.Report)
				pyr.Get("/report.pdf", h.Payroll.PDF)
			})

			pr.With(middleware.RequireStaff).Get("/dashboard/stats", h.Dashboard.Stats)
		})
	})
}
