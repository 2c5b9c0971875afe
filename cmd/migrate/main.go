// cmd/migrate/main.go
package main

import (
	"context"
	"fmt"
	"os"

	"credit-risk-workers/internal/common/config"
	"credit-risk-workers/internal/common/database"
	"credit-risk-workers/internal/common/logger"

	"github.com/urfave/cli/v3"
)

func main() {
	log := logger.NewStructured("info", "console")

	cmd := &cli.Command{
		Name:      "migrate",
		Usage:     "Apply the SQL migrations for applicant profiles and risk assessments",
		ArgsUsage: "up|down|version",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "database",
				Usage:   "Database URL; defaults to the postgres section of the service config",
				Sources: cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:  "path",
				Usage: "Path to migrations directory",
				Value: "migrations",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			command := cmd.Args().First()
			if command == "" {
				command = "up"
			}

			databaseURL := cmd.String("database")
			if databaseURL == "" {
				cfg, err := config.Load()
				if err != nil {
					return fmt.Errorf("database URL is required: use --database, DATABASE_URL or configs/config.yaml: %w", err)
				}
				databaseURL = cfg.Database.Postgres.GetURL()
			}

			log.Info("running migrations", map[string]interface{}{
				"command": command,
				"path":    cmd.String("path"),
			})
			status, err := database.Migrate(databaseURL, cmd.String("path"), command)
			if err != nil {
				return err
			}

			log.Info("migrations finished", map[string]interface{}{
				"version": status.Version,
				"dirty":   status.Dirty,
				"changed": status.Changed,
			})
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error("migration failed", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}
