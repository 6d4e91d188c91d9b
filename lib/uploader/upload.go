package uploader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the width of the upload pool
const DefaultWorkers = 8

// Job is one local file to upload
type Job struct {
	LocalPath string
	File      dto.FileIn
}

// Result is the outcome of one upload
type Result struct {
	LocalPath  string
	Ticket     dto.UploadTicket
	StatusCode int
	Err        error
}

// OK reports whether the blob store accepted the file
func (r Result) OK() bool {
	return r.Err == nil && (r.StatusCode == http.StatusOK || r.StatusCode == http.StatusCreated)
}

// Report summarises a run
type Report struct {
	Results   []Result
	Completed int64
	Failed    int64
}

// Options configures Run
type Options struct {
	PlantCode string
	BreederID *uint
	Workers   int
}

// Run registers jobs for the plant, uploads them in parallel and records
// COMPLETED and FAILED outcomes.
func (c *Client) Run(ctx context.Context, opts Options, jobs []Job) (Report, error) {
	var report Report
	if len(jobs) == 0 {
		return report, nil
	}

	plantID, err := c.EnsurePlant(ctx, opts.PlantCode, opts.BreederID)
	if err != nil {
		return report, err
	}

	files := make([]dto.FileIn, len(jobs))
	for i, job := range jobs {
		files[i] = job.File
	}
	tickets, err := c.BulkRegister(ctx, plantID, opts.BreederID, files)
	if err != nil {
		return report, err
	}
	c.log.Info("registered files", zap.Uint("plant_id", plantID), zap.Int("count", len(tickets)))

	report.Results = c.UploadAll(ctx, jobs, tickets, opts.Workers)

	var completed, failed []uint
	for _, r := range report.Results {
		if r.OK() {
			completed = append(completed, r.Ticket.DBID)
		} else {
			failed = append(failed, r.Ticket.DBID)
		}
	}
	if len(completed) > 0 {
		if report.Completed, err = c.UpdateStatus(ctx, completed, models.FileStatusCompleted); err != nil {
			return report, err
		}
	}
	if len(failed) > 0 {
		if report.Failed, err = c.UpdateStatus(ctx, failed, models.FileStatusFailed); err != nil {
			return report, err
		}
	}
	return report, nil
}

// UploadAll PUTs every job to its ticket's signed URL with at most workers
// uploads in flight. Results are in job order; one failure does not stop the others.
func (c *Client) UploadAll(ctx context.Context, jobs []Job, tickets []dto.UploadTicket, workers int) []Result {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	results := make([]Result, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range jobs {
		i := i
		g.Go(func() error {
			results[i] = c.uploadOne(ctx, jobs[i], tickets[i])
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if !r.OK() {
			c.log.Warn("upload failed",
				zap.String("path", r.LocalPath),
				zap.Int("status_code", r.StatusCode),
				zap.Error(r.Err),
			)
		}
	}
	return results
}

func (c *Client) uploadOne(ctx context.Context, job Job, ticket dto.UploadTicket) Result {
	result := Result{LocalPath: job.LocalPath, Ticket: ticket}

	f, err := os.Open(job.LocalPath)
	if err != nil {
		result.Err = err
		return result
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		result.Err = err
		return result
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, ticket.UploadURL, f)
	if err != nil {
		result.Err = err
		return result
	}
	req.ContentLength = info.Size()

	resp, err := c.http.Do(req)
	if err != nil {
		result.Err = err
		return result
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	result.StatusCode = resp.StatusCode
	if !result.OK() {
		result.Err = fmt.Errorf("blob store returned %s", resp.Status)
	}
	return result
}

// NormalizeDate accepts YYYYMMDD (as exported by the scanners) or YYYY-MM-DD
func NormalizeDate(raw string) string {
	raw = strings.TrimSuffix(strings.TrimSpace(raw), ".0")
	if len(raw) == 8 && !strings.Contains(raw, "-") {
		return raw[:4] + "-" + raw[4:6] + "-" + raw[6:]
	}
	return raw
}
