package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/postforge/postforge/config"
	srv "github.com/postforge/postforge/internal/server"
	"github.com/postforge/postforge/internal/workflow"
)

func main() {
	var root = &cobra.Command{Use: "postforge"}

	var cfgPath string
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config.json (default: ./config, .)")

	var serve = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return srv.Run(cfgPath)
		},
	}

	var migDir string
	var direction string
	var steps int
	var migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			dsn := cfg.Storage.Postgres.DSN()
			if dsn == "" {
				return fmt.Errorf("postgres is not configured")
			}
			return srv.Migrate(migDir, dsn, direction, steps)
		},
	}
	migrateCmd.Flags().StringVar(&migDir, "dir", "file://migrations", "migrations source")
	migrateCmd.Flags().StringVar(&direction, "direction", "up", "up or down")
	migrateCmd.Flags().IntVar(&steps, "steps", 0, "number of steps (0 = all)")

	var graphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Print the workflow graph as mermaid",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(cfgPath)
			if err != nil {
				return err
			}
			wf := workflow.New(nil, nil, nil, nil, nil, cfg.Workflow, nil)
			fmt.Println(wf.Mermaid())
			return nil
		},
	}

	root.AddCommand(serve, migrateCmd, graphCmd)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
