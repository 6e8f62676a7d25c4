package main

import (
	"context"
	"database/sql"

	"github.com/spf13/cobra"

	"vgp_platform/internal/app/bank"
	"vgp_platform/internal/app/service"
	"vgp_platform/internal/domain/repository"
	"vgp_platform/internal/platform/config"
	"vgp_platform/internal/platform/database"
)

var rootCmd = &cobra.Command{
	Use:           "vgpctl",
	Short:         "Operate the assessment platform database",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.Load()
	},
}

func init() {
	rootCmd.PersistentFlags().String("driver", "", "Database driver, postgres or sqlite (overrides DB_DRIVER)")
	rootCmd.PersistentFlags().String("dsn", "", "Connection string or SQLite path (overrides DB_* settings)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(loadQuestionsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(traceCmd)
}

// openDB resolves --driver and --dsn against the environment and opens a
// migrated connection.
func openDB(ctx context.Context, cmd *cobra.Command) (*sql.DB, string, error) {
	driver, _ := cmd.Flags().GetString("driver")
	if driver == "" {
		driver = config.AppConfig.DBDriver
	}
	dsn, _ := cmd.Flags().GetString("dsn")
	if dsn == "" {
		dsn = config.AppConfig.DBConnStr
		if driver == database.DriverSQLite {
			dsn = config.AppConfig.SQLitePath
		}
	}
	db, err := database.Open(ctx, driver, dsn)
	return db, driver, err
}

func newServices(db *sql.DB) *service.Services {
	cfg := config.AppConfig
	return service.New(repository.NewSQLSet(db, nil), service.Options{
		BankDefaults: bank.Defaults{
			QuestionBudget:  cfg.DefaultQuestionBudget,
			DurationSeconds: cfg.SessionDurationSeconds,
		},
		AdminUser:     cfg.AdminUser,
		AdminPassHash: cfg.AdminPassHash,
	})
}
