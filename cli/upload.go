package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/lib/uploader"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type uploadOptions struct {
	plantCode string
	apiURL    string
	email     string
	password  string
	breederID uint
	workers   int
	timeout   time.Duration
}

func newUploadCmd(a *app) *cobra.Command {
	var opts uploadOptions

	cmd := &cobra.Command{
		Use:   "upload <paths.csv>",
		Short: "Upload local images and scans of one plant through the API",
		Long: "Reads a CSV with date, file_type, extension and file_path columns, registers\n" +
			"the files with the API, uploads them to their signed URLs in parallel and\n" +
			"reports COMPLETED and FAILED outcomes.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRows(args[0], services.DefaultColumns.Files)
			if err != nil {
				return err
			}
			jobs, err := uploadJobs(rows)
			if err != nil {
				return err
			}

			client, err := uploader.New(opts.apiURL, opts.timeout, a.log.Named("uploader"))
			if err != nil {
				return err
			}
			defer client.Close()

			ctx := cmd.Context()
			if err := client.Login(ctx, opts.email, opts.password); err != nil {
				return err
			}

			run := uploader.Options{PlantCode: opts.plantCode, Workers: opts.workers}
			if opts.breederID != 0 {
				run.BreederID = &opts.breederID
			}
			report, err := client.Run(ctx, run, jobs)
			if err != nil {
				return err
			}

			for _, r := range report.Results {
				status := fmt.Sprint(r.StatusCode)
				if r.Err != nil {
					status = "Error: " + r.Err.Error()
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s -> %s\n", r.LocalPath, status)
			}
			a.log.Info("upload finished",
				zap.String("plant_code", opts.plantCode),
				zap.Int64("completed", report.Completed),
				zap.Int64("failed", report.Failed),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.plantCode, "plant-code", "", "Plant code the files belong to (required)")
	cmd.Flags().StringVar(&opts.apiURL, "api-url", "http://localhost:8000", "Base URL of the API")
	cmd.Flags().StringVar(&opts.email, "email", "", "Account email (required)")
	cmd.Flags().StringVar(&opts.password, "password", "", "Account password (required)")
	cmd.Flags().UintVar(&opts.breederID, "breeder-id", 0, "Target breeder; required for admin accounts")
	cmd.Flags().IntVar(&opts.workers, "workers", uploader.DefaultWorkers, "Parallel uploads")
	cmd.Flags().DurationVar(&opts.timeout, "timeout", 5*time.Minute, "Per-request timeout")
	_ = cmd.MarkFlagRequired("plant-code")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

// uploadJobs pairs each CSV row's local path with the metadata sent to the API
func uploadJobs(rows []services.Row) ([]uploader.Job, error) {
	jobs := make([]uploader.Job, 0, len(rows))
	for idx, row := range rows {
		path := strings.TrimSpace(row["file_path"])
		if path == "" {
			return nil, fmt.Errorf("file_path is required at row %d", idx)
		}
		in := dto.FileIn{
			FileType:  models.FileType(strings.TrimSpace(row["file_type"])),
			Extension: strings.TrimSpace(row["extension"]),
		}
		if date := uploader.NormalizeDate(row["date"]); date != "" {
			in.Date = &date
		}
		jobs = append(jobs, uploader.Job{LocalPath: path, File: in})
	}
	return jobs, nil
}
