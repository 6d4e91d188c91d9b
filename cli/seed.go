package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/autotraits-be/database"
	"github.com/autotraits-be/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newSeedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load legacy exports into the database",
	}
	cmd.AddCommand(newSeedTraitsCmd(a), newSeedFilesCmd(a))
	return cmd
}

func newSeedTraitsCmd(a *app) *cobra.Command {
	var breederID uint

	cmd := &cobra.Command{
		Use:   "traits <file.csv|file.xlsx>",
		Short: "Upsert a trait export through the measurement import pipeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(args[0], services.DefaultColumns.Measurement)
			if err != nil {
				return err
			}
			if err := a.openDatabase(); err != nil {
				return err
			}
			defer database.Close()

			result := services.NewImportService(services.NewMeasurementService()).Import(rows, breederID)
			a.log.Info("trait seed finished",
				zap.String("file", args[0]),
				zap.Int("inserted", result.Inserted),
				zap.Int("updated", result.Updated),
				zap.Int("errors", len(result.Errors)),
			)
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().UintVar(&breederID, "breeder-id", 0, "Breeder that owns the imported plants (required)")
	_ = cmd.MarkFlagRequired("breeder-id")
	return cmd
}

func newSeedFilesCmd(a *app) *cobra.Command {
	var breederID uint

	cmd := &cobra.Command{
		Use:   "files <file.csv>",
		Short: "Register blobs that already exist in the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(args[0], services.DefaultColumns.Files)
			if err != nil {
				return err
			}
			if err := a.openDatabase(); err != nil {
				return err
			}
			defer database.Close()

			// Registration writes records only; the store is never contacted
			result := services.NewFileService(nil, a.cfg.SignedURLExpiry, a.cfg.MaxUploadSize).ImportExisting(rows, breederID)
			a.log.Info("file seed finished",
				zap.String("file", args[0]),
				zap.Int("imported", result.Imported),
				zap.Int("skipped", result.Skipped),
				zap.Int("errors", len(result.Errors)),
			)
			return printJSON(cmd, result)
		},
	}
	cmd.Flags().UintVar(&breederID, "breeder-id", 0, "Breeder that owns the registered plants (required)")
	_ = cmd.MarkFlagRequired("breeder-id")
	return cmd
}

func readRows(path string, columns services.ColumnSet) ([]services.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := services.ReadRows(path, f, columns)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return rows, nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
