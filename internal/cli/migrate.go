package cli

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"

	"github.com/mindrender/mindrender/internal/config"
)

var (
	migratePath string
	migrateDown bool
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().StringVar(&migratePath, "migrations", "migrations", "Path to migration files")
	migrateCmd.Flags().BoolVar(&migrateDown, "down", false, "Roll back one migration instead of applying all")
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations to the Postgres quota store",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Quota.DatabaseURL == "" {
		return fmt.Errorf("migrate requires quota.database_url (or DATABASE_URL)")
	}

	m, err := migrate.New("file://"+migratePath, cfg.Quota.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}
	defer m.Close()

	if migrateDown {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No pending migrations.")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Println("Migrations applied.")
	return nil
}
