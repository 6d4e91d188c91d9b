// Package cli wires the autotraits commands: the API server and the offline
// migration, seeding and upload tools.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/autotraits-be/config"
	"github.com/autotraits-be/database"
	"github.com/autotraits-be/lib/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app is the state shared by every command once PersistentPreRunE has run
type app struct {
	cfg     config.Config
	log     *zap.Logger
	restore func()
}

// NewRootCommand builds the command tree; serve is the default action
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "autotraits",
		Short:         "Plant phenotyping backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()
			a.cfg = config.Load()

			log, err := logging.New(a.cfg.LogLevel, a.cfg.LogFormat)
			if err != nil {
				return err
			}
			a.log = log
			a.restore = logging.Install(log)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
			if a.restore != nil {
				a.restore()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newSeedCmd(a),
		newUploadCmd(a),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// openDatabase connects the global handle and migrates the schema
func (a *app) openDatabase() error {
	if err := database.Initialize(a.cfg, a.log); err != nil {
		return err
	}
	return database.Migrate(database.DB)
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openDatabase(); err != nil {
				return err
			}
			defer database.Close()
			a.log.Info("migration finished")
			return nil
		},
	}
}
