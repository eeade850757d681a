package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dwiprasetya/gatepass-management/internal"
	"github.com/dwiprasetya/gatepass-management/internal/actor"
	actorPostgres "github.com/dwiprasetya/gatepass-management/internal/actor/postgres"
	"github.com/dwiprasetya/gatepass-management/internal/audit"
	"github.com/dwiprasetya/gatepass-management/internal/auth"
	authPostgres "github.com/dwiprasetya/gatepass-management/internal/auth/postgres"
	"github.com/dwiprasetya/gatepass-management/internal/core/events"
	"github.com/dwiprasetya/gatepass-management/internal/department"
	departmentPostgres "github.com/dwiprasetya/gatepass-management/internal/department/postgres"
	"github.com/dwiprasetya/gatepass-management/internal/gatepass"
	gatepassPostgres "github.com/dwiprasetya/gatepass-management/internal/gatepass/postgres"
	"github.com/dwiprasetya/gatepass-management/internal/imagestore"
	"github.com/dwiprasetya/gatepass-management/internal/transport/middleware"
	"github.com/dwiprasetya/gatepass-management/internal/transport/rest"
	"github.com/dwiprasetya/gatepass-management/internal/transport/swagger"
	"github.com/dwiprasetya/gatepass-management/pkg/logger"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config      *internal.Config
	DB          *sqlx.DB
	GormDB      *gorm.DB
	Router      *chi.Mux
	Logger      *slog.Logger
	ImageClient *imagestore.Client
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := swagger.ValidateSpec(context.Background(), "api/openapi.yml"); err != nil {
		fmt.Fprintf(os.Stderr, "OpenAPI spec validation failed: %v\n", err)
		os.Exit(1)
	}

	setupRoutes(deps)

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      deps.Router,
		ReadTimeout:  deps.Config.Server.ReadTimeout,
		WriteTimeout: deps.Config.Server.WriteTimeout,
		IdleTimeout:  deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		deps.ImageClient.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func setupRoutes(deps *Dependencies) {
	log := deps.Logger

	eventBus := events.NewEventBus(log)
	audit.NewEventHandler(log).RegisterEventHandlers(eventBus)

	tokenGen := auth.NewJWTTokenGenerator(
		deps.Config.Security.AccessTokenSecret,
		deps.Config.Security.RefreshTokenSecret,
		deps.Config.Security.AccessTokenDuration,
		deps.Config.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.GormDB), tokenGen)
	authHandler := auth.NewHandler(authService)
	rbac := auth.NewRoleAuthorization(log)

	actorRepo := actorPostgres.NewActorRepository(deps.GormDB)
	departmentRepo := departmentPostgres.NewDepartmentRepository(deps.GormDB)
	gatePassRepo := gatepassPostgres.NewGatePassRepository(deps.GormDB)

	actorService := actor.NewService(actorRepo, authService, gatePassRepo, departmentRepo, log)
	departmentService := department.NewService(departmentRepo, actorRepo, gatePassRepo, log)
	gatePassService := gatepass.NewService(
		gatePassRepo,
		departmentService,
		actorService,
		deps.ImageClient,
		eventBus,
		gatepass.SystemClock{},
		log,
	)

	actorHandler := actor.NewHandler(actorService)
	departmentHandler := department.NewHandler(departmentService)
	gatePassHandler := gatepass.NewHandler(gatePassService, deps.ImageClient)

	deps.Router.Use(middleware.LoggingMiddleware(log))

	rest.RegisterAllRoutes(
		deps.Router,
		deps.DB.DB,
		authHandler,
		rbac,
		actorHandler,
		departmentHandler,
		gatePassHandler,
		log,
	)
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(config.Env)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := initGorm(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	imageClient := imagestore.NewClient(imagestore.Config{
		APIURL:        config.ImageStore.APIURL,
		APIKey:        config.ImageStore.APIKey,
		APISecret:     config.ImageStore.APISecret,
		UploadTimeout: config.ImageStore.UploadTimeout,
		MaxUploadSize: config.ImageStore.MaxUploadSize,
	}, log)

	return &Dependencies{
		Config:      config,
		Logger:      log,
		DB:          db,
		GormDB:      gormDB,
		Router:      chi.NewRouter(),
		ImageClient: imageClient,
	}, nil
}

// initDB initializes the database connection through the pgx stdlib driver.
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm layers GORM over the already-open pgx connection so both
// the repositories and the raw sqlx helpers share one pool.
func initGorm(db *sqlx.DB) (*gorm.DB, error) {
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{
		Conn: db.DB,
	}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return gormDB, nil
}
