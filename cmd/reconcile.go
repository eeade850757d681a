package cmd

import (
	"fmt"
	"os"

	"github.com/dwiprasetya/gatepass-management/internal/audit"
	"github.com/dwiprasetya/gatepass-management/internal/core/events"
	"github.com/dwiprasetya/gatepass-management/internal/gatepass"
	gatepassPostgres "github.com/dwiprasetya/gatepass-management/internal/gatepass/postgres"
	"github.com/dwiprasetya/gatepass-management/pkg/logger"
	"github.com/spf13/cobra"
)

// reconcileCmd demotes stale approved passes. Meant to run from cron
// shortly after midnight; the same logic is reachable over HTTP for
// ad-hoc runs.
var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Demote approved gate passes that were never used",
	Run: func(cmd *cobra.Command, args []string) {
		config, err := loadConfig(".")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		logger.Init(config.Env)
		log := logger.LoggerWrapper()

		db, err := initDB(config.Database)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		gormDB, err := initGorm(db)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to initialize orm: %v\n", err)
			os.Exit(1)
		}

		eventBus := events.NewEventBus(log)
		audit.NewEventHandler(log).RegisterEventHandlers(eventBus)

		// Reconciliation needs no directories or image store.
		service := gatepass.NewService(
			gatepassPostgres.NewGatePassRepository(gormDB),
			nil,
			nil,
			nil,
			eventBus,
			gatepass.SystemClock{},
			log,
		)

		demoted, err := service.ReconcileStale()
		if err != nil {
			log.Error("reconciliation failed", "error", err)
			os.Exit(1)
		}

		log.Info("reconciliation complete", "demoted", demoted)
	},
}
