// Command migrate prepares the configured store: SQL migrations for
// PostgreSQL and indexes for MongoDB.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/config"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/database"
	"github.com/Hariom-Ingle/Ai-Interview-Web/internal/repository"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Apply schema changes to the interview coach store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		sqlCmd(database.MigrateUp, "Apply all pending PostgreSQL migrations"),
		sqlCmd(database.MigrateDown, "Roll back every PostgreSQL migration"),
		mongoIndexesCmd(),
	)
	return root
}

func sqlCmd(direction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   direction,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var db config.DBConfig
			if err := envconfig.Process("", &db); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if err := database.Migrate(db.DSN, direction); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrations %s: done\n", direction)
			return nil
		},
	}
}

func mongoIndexesCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "mongo-indexes",
		Short: "Create the MongoDB indexes (unique email, per-user interview listing)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var mc config.MongoConfig
			if err := envconfig.Process("", &mc); err != nil {
				return fmt.Errorf("config: %w", err)
			}
			if mc.URI == "" {
				return fmt.Errorf("MONGO_URI is not set")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			db, err := database.ConnectMongo(ctx, mc)
			if err != nil {
				return err
			}
			defer func() { _ = db.Client().Disconnect(context.Background()) }()

			if err := repository.NewMongoRepository(db).EnsureIndexes(ctx); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "indexes ensured on %s\n", mc.Database)
			return nil
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	return cmd
}
