package container

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/claims-workflow/internal/application/dispatcher"
	"github.com/garyjia/claims-workflow/internal/application/port"
	"github.com/garyjia/claims-workflow/internal/application/service"
	"github.com/garyjia/claims-workflow/internal/application/validation"
	"github.com/garyjia/claims-workflow/internal/application/workflow"
	domainwf "github.com/garyjia/claims-workflow/internal/domain/workflow"
	infraLark "github.com/garyjia/claims-workflow/internal/infrastructure/external/lark"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/repository"
	"github.com/garyjia/claims-workflow/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/claims-workflow/migrations"
	"github.com/garyjia/claims-workflow/pkg/database"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	DB             *database.DB
	TransactionMgr *sqlite.DB
}

// ProvideDatabase opens the database, applies the embedded migrations and
// wraps the connection in a transaction manager.
func ProvideDatabase(cfg *DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	db, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		BusyTimeout:     cfg.BusyTimeout,
	}, logger)
	if err != nil {
		return nil, err
	}

	migrator := database.NewMigrator(db, logger)
	if err := migrator.RunMigrations(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &DatabaseBundle{
		DB:             db,
		TransactionMgr: sqlite.NewDB(db.DB, logger),
	}, nil
}

// ProvideRepositories creates all repositories from a database connection.
func ProvideRepositories(db *database.DB, logger *zap.Logger) (*RepositoryBundle, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &RepositoryBundle{
		Claim:       repository.NewClaimRepository(db.DB, logger),
		Item:        repository.NewItemRepository(db.DB, logger),
		Participant: repository.NewParticipantRepository(db.DB, logger),
		Lock:        repository.NewLockRepository(db.DB, logger),
		Process:     repository.NewProcessRepository(db.DB, logger),
		Task:        repository.NewTaskRepository(db.DB, logger),
		Sequence:    repository.NewSequenceRepository(db.DB, logger),
		Staff:       repository.NewStaffRepository(db.DB, logger),
		Matrix:      repository.NewMatrixRepository(db.DB, logger),
		Config:      repository.NewConfigRepository(db.DB, logger),
	}, nil
}

// ProvideConfigTable loads the workflow configuration once. The table is
// immutable for the life of the process.
func ProvideConfigTable(ctx context.Context, repos *RepositoryBundle) (*domainwf.Table, error) {
	table, err := repos.Config.LoadTable(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow configuration: %w", err)
	}
	return table, nil
}

// ProvideNotifier creates the Lark notifier, or a logging notifier when Lark
// delivery is disabled.
func ProvideNotifier(cfg *LarkConfig, logger *zap.Logger) port.Notifier {
	if !cfg.Enabled {
		logger.Info("Lark notifications disabled, logging only")
		return infraLark.NewLogNotifier(logger)
	}

	client := infraLark.NewClient(infraLark.Config{
		AppID:         cfg.AppID,
		AppSecret:     cfg.AppSecret,
		ReceiveIDType: cfg.ReceiveIDType,
	}, logger)
	return infraLark.NewNotifier(infraLark.NewMessenger(client, logger), cfg.ReceiveIDType, logger)
}

// ProvideDispatcher creates the event dispatcher.
func ProvideDispatcher(logger *zap.Logger) dispatcher.Dispatcher {
	return dispatcher.NewDispatcher(dispatcher.WithLogger(&zapLoggerAdapter{logger: logger}))
}

// ServiceDeps groups the dependencies needed to build the services.
type ServiceDeps struct {
	Repos       *RepositoryBundle
	TxManager   port.TransactionManager
	ConfigStore port.ConfigStore
	Notifier    port.Notifier
	Dispatcher  dispatcher.Dispatcher
	WorkflowCfg *WorkflowConfig
	Logger      *zap.Logger

	// Clock overrides time.Now across the services
	Clock func() time.Time
}

// ProvideServices creates the application services and registers the
// notification handlers on the dispatcher.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil || deps.Repos == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	repos := deps.Repos
	svcLogger := &zapLoggerAdapter{logger: deps.Logger}
	wf := deps.WorkflowCfg

	var (
		validationOpts []validation.Option
		workflowOpts   = []workflow.Option{
			workflow.WithIDDigits(wf.IDDigits),
			workflow.WithChainDepth(wf.ChainDepth),
		}
	)
	if deps.Clock != nil {
		validationOpts = append(validationOpts, validation.WithClock(deps.Clock))
		workflowOpts = append(workflowOpts, workflow.WithClock(deps.Clock))
	}

	engine, err := validation.NewEngine(repos.Claim, repos.Item, repos.Staff, validation.Config{
		BackdateLimit:    wf.BackdateLimit,
		DefaultStartTime: wf.DefaultStartTime,
		DefaultEndTime:   wf.DefaultEndTime,
	}, validationOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create validation engine: %w", err)
	}

	orchestrator := workflow.NewOrchestrator(
		deps.ConfigStore,
		repos.Claim,
		repos.Process,
		repos.Task,
		repos.Staff,
		repos.Matrix,
		repos.Sequence,
		svcLogger,
		workflowOpts...,
	)

	locks := service.NewLockManager(repos.Lock, repos.Matrix, repos.Sequence, wf.IDDigits, svcLogger)

	claims := service.NewClaimService(service.ClaimServiceDeps{
		Claims:       repos.Claim,
		Items:        repos.Item,
		Participants: repos.Participant,
		Processes:    repos.Process,
		Tasks:        repos.Task,
		Sequence:     repos.Sequence,
		TxManager:    deps.TxManager,
		Locks:        locks,
		Validator:    engine,
		Orchestrator: orchestrator,
		Dispatcher:   deps.Dispatcher,
		IDDigits:     wf.IDDigits,
		Now:          deps.Clock,

		DefaultStartTime: wf.DefaultStartTime,
		DefaultEndTime:   wf.DefaultEndTime,
	}, svcLogger)

	notifications := service.NewNotificationHandler(deps.Notifier, repos.Staff, repos.Matrix, svcLogger)
	notifications.Register(deps.Dispatcher)

	return &ServiceBundle{
		Claim:        claims,
		Locks:        locks,
		Orchestrator: orchestrator,
	}, nil
}
