package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/jmfitness/studio-management/internal"
	"github.com/jmfitness/studio-management/internal/auth"
	authPostgres "github.com/jmfitness/studio-management/internal/auth/postgres"
	"github.com/jmfitness/studio-management/internal/checkin"
	checkinPostgres "github.com/jmfitness/studio-management/internal/checkin/postgres"
	"github.com/jmfitness/studio-management/internal/confirmation"
	confirmationPostgres "github.com/jmfitness/studio-management/internal/confirmation/postgres"
	"github.com/jmfitness/studio-management/internal/core/cache"
	"github.com/jmfitness/studio-management/internal/core/database"
	"github.com/jmfitness/studio-management/internal/core/events"
	"github.com/jmfitness/studio-management/internal/dashboard"
	dashboardPostgres "github.com/jmfitness/studio-management/internal/dashboard/postgres"
	"github.com/jmfitness/studio-management/internal/employee"
	employeePostgres "github.com/jmfitness/studio-management/internal/employee/postgres"
	"github.com/jmfitness/studio-management/internal/expense"
	expensePostgres "github.com/jmfitness/studio-management/internal/expense/postgres"
	"github.com/jmfitness/studio-management/internal/health"
	healthPostgres "github.com/jmfitness/studio-management/internal/health/postgres"
	"github.com/jmfitness/studio-management/internal/payment"
	paymentPostgres "github.com/jmfitness/studio-management/internal/payment/postgres"
	"github.com/jmfitness/studio-management/internal/payroll"
	payrollPostgres "github.com/jmfitness/studio-management/internal/payroll/postgres"
	"github.com/jmfitness/studio-management/internal/scheduler"
	"github.com/jmfitness/studio-management/internal/search"
	"github.com/jmfitness/studio-management/internal/student"
	studentPostgres "github.com/jmfitness/studio-management/internal/student/postgres"
	"github.com/jmfitness/studio-management/internal/timerecord"
	timerecordPostgres "github.com/jmfitness/studio-management/internal/timerecord/postgres"
	"github.com/jmfitness/studio-management/internal/transport/middleware"
	"github.com/jmfitness/studio-management/internal/transport/rest"
	"github.com/jmfitness/studio-management/internal/transport/swagger"
	"github.com/jmfitness/studio-management/internal/user"
	userPostgres "github.com/jmfitness/studio-management/internal/user/postgres"
	"github.com/jmfitness/studio-management/pkg/logger"
	"github.com/jmfitness/studio-management/pkg/storage"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

// Dependencies holds everything the server and the worker share.
type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	Search   *search.StudentIndex
	Bus      *events.EventBus
	Hub      *checkin.Hub
	Location *time.Location
	Logger   *slog.Logger

	Payments      *payment.Service
	Confirmations *confirmation.Service
	Handlers      rest.Handlers
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go deps.Hub.Run(ctx)

	var sched *scheduler.Scheduler
	if deps.Config.Scheduler.Enabled {
		sched, err = newScheduler(deps)
		if err != nil {
			deps.Logger.Error("failed to configure scheduler", "error", err)
			os.Exit(1)
		}
		sched.Start()
	}

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, deps.Config.Server.AllowedOrigins, deps.Handlers, deps.Logger)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("starting HTTP server", "address", addr, "env", deps.Config.Env)
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		deps.Logger.Info("received signal, shutting down")
	case err := <-serverErrChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		deps.Logger.Error("server shutdown error", "error", err)
	}
	if sched != nil {
		sched.Stop(shutdownCtx)
	}
	if err := deps.Bus.Wait(shutdownCtx); err != nil {
		deps.Logger.Warn("event handlers still running at shutdown", "error", err)
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := setup()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	gdb, err := database.OpenGorm(db.DB, lg)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rdb, err := cache.Connect(ctx, config.Redis.URL)
	if err != nil {
		lg.Warn("redis unavailable, continuing without it", "error", err)
	}

	files, err := storage.New(storage.Config{
		CloudName: config.Storage.CloudName,
		APIKey:    config.Storage.APIKey,
		APISecret: config.Storage.APISecret,
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gdb,
		Redis:    rdb,
		Search:   search.Connect(config.Search),
		Bus:      events.NewEventBus(lg),
		Hub:      checkin.NewHub().WithOriginCheck(middleware.OriginAllowed(config.Server.AllowedOrigins)),
		Location: scheduler.LoadLocation(config.Scheduler.Timezone),
		Logger:   lg,
	}
	deps.wire(files)
	return deps, nil
}

func (d *Dependencies) wire(files storage.FileStorage) {
	cfg := d.Config
	clock := func() time.Time { return time.Now().In(d.Location) }
	guard := cache.NewGuard(d.Redis)
	uow := database.NewUnitOfWork(d.Gorm)
	status := payment.NewStatusCalculator(clock)

	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.TokenDuration)
	authService := auth.NewService(authPostgres.NewRepository(d.Gorm), tokens,
		auth.WithThrottle(guard, cfg.Security.LoginMaxAttempts, cfg.Security.LoginWindow))

	userRepo := userPostgres.NewUserRepository(d.Gorm)
	registrar := user.NewRegistrar(userRepo)

	d.Confirmations = confirmation.NewService(confirmationPostgres.NewConfirmationRepository(d.Gorm), uow, nil, confirmation.Config{
		TTL:        cfg.Security.ConfirmationTokenTTL,
		BCryptCost: cfg.Security.BCryptCost,
		BaseURL:    cfg.Server.BaseURL,
	}).WithClock(clock)
	d.Payments = payment.NewService(paymentPostgres.NewPaymentRepository(d.Gorm), status, d.Bus)

	studentService := student.NewService(studentPostgres.NewStudentRepository(d.Gorm), registrar, uow, d.Confirmations, status, d.Bus)
	if d.Search != nil {
		d.Search.Init()
		d.Search.Subscribe(d.Bus)
		studentService.WithSearcher(d.Search)
	}
	d.Hub.Subscribe(d.Bus)

	checks := []rest.Check{{Name: "database", Ping: d.DB.PingContext}}
	if d.Redis != nil {
		checks = append(checks, rest.Check{Name: "redis", Ping: guard.Ping})
	}
	if d.Search != nil {
		checks = append(checks, rest.Check{Name: "meilisearch", Ping: d.Search.Ping})
	}

	openAPI, err := swagger.Load(cfg.Server.OpenAPIPath)
	if err != nil {
		d.Logger.Warn("API documentation disabled", "error", err)
		openAPI = nil
	}

	d.Handlers = rest.Handlers{
		Health:       rest.NewHealthHandler(checks...),
		Auth:         auth.NewHandler(authService, cfg.Security.CookieSecure),
		User:         user.NewHandler(user.NewService(userRepo, uow, d.Confirmations, cfg.Security.BCryptCost).WithClock(clock)),
		Confirmation: confirmation.NewHandler(d.Confirmations),
		Employee: employee.NewHandler(
			employee.NewService(employeePostgres.NewEmployeeRepository(d.Gorm), registrar, uow, cfg.Security.BCryptCost).WithClock(clock)),
		Student:    student.NewHandler(studentService),
		Payment:    payment.NewHandler(d.Payments),
		HealthData: health.NewHandler(health.NewService(healthPostgres.NewHealthRepository(d.Gorm), uow)),
		CheckIn: checkin.NewHandler(
			checkin.NewService(checkinPostgres.NewCheckInRepository(d.Gorm), guard, d.Bus).WithClock(clock), d.Hub),
		TimeRecord: timerecord.NewHandler(timerecord.NewService(timerecordPostgres.NewTimeRecordRepository(d.Gorm)).WithClock(clock)),
		Expense: expense.NewHandler(
			expense.NewService(expensePostgres.NewExpenseRepository(d.Gorm), files, cfg.Storage.Folder).WithClock(clock)),
		Payroll:   payroll.NewHandler(payroll.NewService(payrollPostgres.NewPayrollRepository(d.DB), nil).WithClock(clock)),
		Dashboard: dashboard.NewHandler(dashboard.NewService(dashboardPostgres.NewDashboardRepository(d.DB), status)),
		OpenAPI:   openAPI,
	}
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("redis close error", "error", err)
		}
	}
	if err := d.DB.Close(); err != nil {
		d.Logger.Error("database close error", "error", err)
	}
}

func newScheduler(d *Dependencies) (*scheduler.Scheduler, error) {
	s := scheduler.New(d.Location, time.Minute)
	if err := s.Register(scheduler.PaymentReset(d.Config.Scheduler.PaymentResetSpec, d.Payments)); err != nil {
		return nil, err
	}
	if err := s.Register(scheduler.TokenCleanup(d.Config.Scheduler.TokenCleanupSpec, d.Confirmations)); err != nil {
		return nil, err
	}
	return s, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}
