// Package uploader is an HTTP client of the file API that registers local
// files for a plant, pushes them to their signed URLs with a bounded worker
// pool and reports the outcomes back in one batch.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"go.uber.org/zap"
)

// Client talks to the autotraits API on behalf of one user
type Client struct {
	baseURL string
	http    *http.Client
	token   string
	log     *zap.Logger
}

// envelope is the {"status","message","data"} wrapper of every API response
type envelope[T any] struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// APIError is a non-2xx API response
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
}

// New creates a client for baseURL with its own cookie jar and transport
func New(baseURL string, timeout time.Duration, log *zap.Logger) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		},
		log: log,
	}, nil
}

// Close releases idle connections
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Login authenticates and keeps the access token for later calls
func (c *Client) Login(ctx context.Context, email, password string) error {
	resp, err := call[dto.AuthResponse](ctx, c, http.MethodPost, "/api/auth/login", nil,
		dto.LoginRequest{Email: email, Password: password})
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	c.token = resp.AccessToken
	return nil
}

// EnsurePlant returns the id of plantCode, creating the plant when missing
func (c *Client) EnsurePlant(ctx context.Context, plantCode string, breederID *uint) (uint, error) {
	query := url.Values{"search": {plantCode}, "limit": {strconv.Itoa(dto.MaxLimit)}}
	if breederID != nil {
		query.Set("breeder_id", strconv.FormatUint(uint64(*breederID), 10))
	}
	page, err := call[dto.Page[dto.PlantResponse]](ctx, c, http.MethodGet, "/api/plants", query, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to look up plant %s: %w", plantCode, err)
	}
	for _, p := range page.Items {
		if p.PlantCode == plantCode {
			return p.ID, nil
		}
	}

	created, err := call[dto.PlantResponse](ctx, c, http.MethodPost, "/api/plants", nil,
		dto.CreatePlantRequest{PlantCode: plantCode, BreederID: breederID})
	if err != nil {
		return 0, fmt.Errorf("failed to create plant %s: %w", plantCode, err)
	}
	c.log.Info("created plant", zap.String("plant_code", plantCode), zap.Uint("plant_id", created.ID))
	return created.ID, nil
}

// BulkRegister registers files as PENDING and returns their upload tickets in order
func (c *Client) BulkRegister(ctx context.Context, plantID uint, breederID *uint, files []dto.FileIn) ([]dto.UploadTicket, error) {
	var query url.Values
	if breederID != nil {
		query = url.Values{"breeder_id": {strconv.FormatUint(uint64(*breederID), 10)}}
	}
	path := fmt.Sprintf("/api/plant/%d/bulk-upload", plantID)
	tickets, err := call[[]dto.UploadTicket](ctx, c, http.MethodPost, path, query, dto.BulkUploadRequest{Files: files})
	if err != nil {
		return nil, fmt.Errorf("failed to register files: %w", err)
	}
	if len(tickets) != len(files) {
		return nil, fmt.Errorf("registered %d files but got %d upload URLs", len(files), len(tickets))
	}
	return tickets, nil
}

// UpdateStatus reports the outcome of a batch of uploads
func (c *Client) UpdateStatus(ctx context.Context, ids []uint, status models.FileStatus) (int64, error) {
	resp, err := call[dto.StatusUpdateResponse](ctx, c, http.MethodPost, "/api/files/update-status", nil,
		dto.StatusUpdateRequest{IDs: ids, Status: status})
	if err != nil {
		return 0, fmt.Errorf("failed to update status to %s: %w", status, err)
	}
	return resp.Updated, nil
}

func call[T any](ctx context.Context, c *Client, method, path string, query url.Values, body interface{}) (T, error) {
	var zero T

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return zero, err
		}
		reader = bytes.NewReader(payload)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return zero, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	var out envelope[T]
	decodeErr := json.NewDecoder(resp.Body).Decode(&out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := out.Message
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return zero, &APIError{StatusCode: resp.StatusCode, Message: message}
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("failed to decode %s %s response: %w", method, path, decodeErr)
	}
	return out.Data, nil
}
