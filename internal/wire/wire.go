// Package wire provides dependency injection for the remedy application.
// It creates singleton services with lazy initialization.
package wire

import (
	"io"
	"log"
	"log/slog"
	"os"
	"sync"

	casbinadapter "github.com/example/remedy/internal/adapters/casbin"
	cliadapter "github.com/example/remedy/internal/adapters/cli"
	"github.com/example/remedy/internal/adapters/clock"
	"github.com/example/remedy/internal/adapters/identity"
	"github.com/example/remedy/internal/adapters/sqlite"
	"github.com/example/remedy/internal/app"
	"github.com/example/remedy/internal/config"
	"github.com/example/remedy/internal/db"
	"github.com/example/remedy/internal/ports/primary"
	"github.com/example/remedy/internal/ports/secondary"
)

var (
	settings sync.Mutex
	cfg      = config.Default()
	logger   = slog.Default()
	clk      secondary.Clock
)

var (
	actionService   primary.ActionService
	changeService   primary.ChangeService
	bulkService     primary.BulkService
	scheduleService primary.ScheduleService
	logService      primary.LogService
	identityService primary.IdentityService
	once            sync.Once
)

// Configure sets the configuration and logger used when services are first
// built. Calls after the first service lookup have no effect.
func Configure(c *config.Config, l *slog.Logger) {
	settings.Lock()
	defer settings.Unlock()
	if c != nil {
		cfg = c
	}
	if l != nil {
		logger = l
	}
}

// SetClock replaces the system clock, for evaluating derived fields as of
// another instant.
func SetClock(c secondary.Clock) {
	settings.Lock()
	defer settings.Unlock()
	clk = c
}

// ActionService returns the singleton ActionService instance.
func ActionService() primary.ActionService {
	once.Do(initServices)
	return actionService
}

// ChangeService returns the singleton ChangeService instance.
func ChangeService() primary.ChangeService {
	once.Do(initServices)
	return changeService
}

// BulkService returns the singleton BulkService instance.
func BulkService() primary.BulkService {
	once.Do(initServices)
	return bulkService
}

// ScheduleService returns the singleton ScheduleService instance.
func ScheduleService() primary.ScheduleService {
	once.Do(initServices)
	return scheduleService
}

// LogService returns the singleton LogService instance.
func LogService() primary.LogService {
	once.Do(initServices)
	return logService
}

// IdentityService returns the singleton IdentityService instance.
func IdentityService() primary.IdentityService {
	once.Do(initServices)
	return identityService
}

// initServices initializes all services and their dependencies.
// This is called once via sync.Once.
func initServices() {
	settings.Lock()
	defer settings.Unlock()

	if clk == nil {
		clk = clock.Real{}
	}
	if cfg.DBPath != "" {
		db.SetPath(cfg.DBPath)
	}
	database, err := db.GetDB()
	if err != nil {
		log.Fatalf("failed to initialize database: %v", err)
	}

	authz, err := casbinadapter.NewAuthorizer(casbinadapter.Options{
		Users:      cfg.Users,
		PolicyPath: cfg.PolicyFile,
		Logger:     logger,
	})
	if err != nil {
		log.Fatalf("failed to initialize authority: %v", err)
	}
	who := identity.NewProvider(cfg.Actor)

	// Create repository adapters (secondary ports) - sqlite adapters with injected DB
	auditRepo := sqlite.NewAuditLogRepository(database)
	logWriter := sqlite.NewLogWriterAdapter(auditRepo)
	actionRepo := sqlite.NewActionRepository(database, logWriter)
	changeRepo := sqlite.NewChangeRepository(database, logWriter)
	scheduleRepo := sqlite.NewScheduleRepository(database, logWriter)

	// Create services (primary ports implementation)
	actions := app.NewActionService(actionRepo, changeRepo, authz, who, clk, logger)
	schedules := app.NewScheduleService(scheduleRepo, authz, who, clk, logger)
	actionService = actions
	changeService = app.NewChangeService(actionRepo, changeRepo, authz, who, clk, logger)
	scheduleService = schedules
	bulkService = app.NewBulkService(actions, schedules, authz, who, logger, cfg.Bulk.Concurrency)
	logService = app.NewLogService(auditRepo, clk)
	identityService = app.NewIdentityService(who, authz)
}

// ActionAdapter returns a new ActionAdapter writing to stdout.
// Each call creates a new adapter (adapters are stateless translators).
func ActionAdapter() *cliadapter.ActionAdapter {
	return ActionAdapterWithOutput(os.Stdout)
}

// ActionAdapterWithOutput returns a new ActionAdapter writing to the given output.
// This variant allows testing or alternate output destinations.
func ActionAdapterWithOutput(out io.Writer) *cliadapter.ActionAdapter {
	return cliadapter.NewActionAdapter(ActionService(), out)
}

// ChangeAdapter returns a new ChangeAdapter writing to stdout.
func ChangeAdapter() *cliadapter.ChangeAdapter {
	return cliadapter.NewChangeAdapter(ChangeService(), os.Stdout)
}

// BulkAdapter returns a new BulkAdapter writing to stdout.
func BulkAdapter() *cliadapter.BulkAdapter {
	return cliadapter.NewBulkAdapter(BulkService(), os.Stdout)
}

// ScheduleAdapter returns a new ScheduleAdapter writing to stdout.
func ScheduleAdapter() *cliadapter.ScheduleAdapter {
	return cliadapter.NewScheduleAdapter(ScheduleService(), os.Stdout)
}
