package uploader

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeAPI struct {
	server *httptest.Server

	mu          sync.Mutex
	blobs       map[string]int64
	statusCalls []dto.StatusUpdateRequest
	plants      []dto.PlantResponse

	inflight    atomic.Int32
	maxInflight atomic.Int32
	failBlob    string
}

func newFakeAPI(t *testing.T) *fakeAPI {
	t.Helper()
	api := &fakeAPI{blobs: map[string]int64{}}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req dto.LoginRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Password != "secret" {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"status": "error", "message": "Invalid credentials"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": map[string]string{"access_token": "tok"}})
	})
	mux.HandleFunc("GET /api/plants", func(w http.ResponseWriter, r *http.Request) {
		if !api.authorized(w, r) {
			return
		}
		api.mu.Lock()
		defer api.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": dto.Page[dto.PlantResponse]{Items: api.plants}})
	})
	mux.HandleFunc("POST /api/plants", func(w http.ResponseWriter, r *http.Request) {
		if !api.authorized(w, r) {
			return
		}
		var req dto.CreatePlantRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		api.mu.Lock()
		plant := dto.PlantResponse{ID: uint(len(api.plants) + 7), PlantCode: req.PlantCode, BreederID: 1}
		api.plants = append(api.plants, plant)
		api.mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]interface{}{"status": "success", "data": plant})
	})
	mux.HandleFunc("POST /api/plant/{id}/bulk-upload", func(w http.ResponseWriter, r *http.Request) {
		if !api.authorized(w, r) {
			return
		}
		var req dto.BulkUploadRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		tickets := make([]dto.UploadTicket, len(req.Files))
		for i := range req.Files {
			key := fmt.Sprintf("%s-%d.%s", r.PathValue("id"), i, req.Files[i].Extension)
			tickets[i] = dto.UploadTicket{
				UploadURL: api.server.URL + "/blob/" + key,
				BlobPath:  key,
				DBID:      uint(i + 1),
				Status:    models.FileStatusPending,
			}
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"status": "success", "data": tickets})
	})
	mux.HandleFunc("PUT /blob/{key}", func(w http.ResponseWriter, r *http.Request) {
		n := api.inflight.Add(1)
		defer api.inflight.Add(-1)
		for {
			peak := api.maxInflight.Load()
			if n <= peak || api.maxInflight.CompareAndSwap(peak, n) {
				break
			}
		}
		if r.Header.Get("Authorization") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		time.Sleep(5 * time.Millisecond)
		if r.PathValue("key") == api.failBlob {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		api.mu.Lock()
		api.blobs[r.PathValue("key")] = r.ContentLength
		api.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("POST /api/files/update-status", func(w http.ResponseWriter, r *http.Request) {
		if !api.authorized(w, r) {
			return
		}
		var req dto.StatusUpdateRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		api.mu.Lock()
		api.statusCalls = append(api.statusCalls, req)
		api.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "success", "data": dto.StatusUpdateResponse{Updated: int64(len(req.IDs))}})
	})

	api.server = httptest.NewServer(mux)
	return api
}

func (api *fakeAPI) authorized(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer tok" {
		writeJSON(w, http.StatusUnauthorized, map[string]interface{}{"status": "error", "message": "Not authenticated"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeFiles(t *testing.T, n int) []Job {
	t.Helper()
	dir := t.TempDir()
	jobs := make([]Job, n)
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("scan-%d.png", i))
		require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf("image-%02d", i)), 0o600))
		date := "2025-05-06"
		jobs[i] = Job{LocalPath: path, File: dto.FileIn{Date: &date, FileType: models.FileTypeTwoD, Extension: "png"}}
	}
	return jobs
}

func TestRunUploadsAndReportsOutcomes(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeAPI(t)
	defer api.server.Close()
	api.failBlob = "7-3.png"

	client, err := New(api.server.URL, 10*time.Second, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, "grower@example.com", "secret"))

	jobs := writeFiles(t, 12)
	report, err := client.Run(ctx, Options{PlantCode: "AB34", Workers: 3}, jobs)
	require.NoError(t, err)

	require.Len(t, report.Results, 12)
	assert.Equal(t, int64(11), report.Completed)
	assert.Equal(t, int64(1), report.Failed)
	assert.LessOrEqual(t, api.maxInflight.Load(), int32(3))

	for i, r := range report.Results {
		assert.Equal(t, jobs[i].LocalPath, r.LocalPath)
		assert.Equal(t, uint(i+1), r.Ticket.DBID)
	}
	assert.False(t, report.Results[3].OK())
	assert.Equal(t, http.StatusForbidden, report.Results[3].StatusCode)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Len(t, api.blobs, 11)
	assert.Equal(t, int64(len("image-00")), api.blobs["7-0.png"])
	require.Len(t, api.statusCalls, 2)
	assert.Equal(t, models.FileStatusCompleted, api.statusCalls[0].Status)
	assert.Len(t, api.statusCalls[0].IDs, 11)
	assert.Equal(t, models.FileStatusFailed, api.statusCalls[1].Status)
	assert.Equal(t, []uint{4}, api.statusCalls[1].IDs)
}

func TestRunReusesExistingPlant(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeAPI(t)
	defer api.server.Close()
	api.plants = []dto.PlantResponse{{ID: 42, PlantCode: "AB34", BreederID: 1}}

	client, err := New(api.server.URL, 10*time.Second, nil)
	require.NoError(t, err)
	defer client.Close()

	ctx := context.Background()
	require.NoError(t, client.Login(ctx, "grower@example.com", "secret"))

	report, err := client.Run(ctx, Options{PlantCode: "AB34"}, writeFiles(t, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(2), report.Completed)

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Len(t, api.plants, 1)
	assert.Contains(t, api.blobs, "42-0.png")
}

func TestLoginRejected(t *testing.T) {
	defer goleak.VerifyNone(t)

	api := newFakeAPI(t)
	defer api.server.Close()

	client, err := New(api.server.URL, 10*time.Second, nil)
	require.NoError(t, err)
	defer client.Close()

	err = client.Login(context.Background(), "grower@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "Invalid credentials", apiErr.Message)
}

func TestUploadAllMissingFile(t *testing.T) {
	defer goleak.VerifyNone(t)

	client, err := New("http://127.0.0.1:0", time.Second, nil)
	require.NoError(t, err)
	defer client.Close()

	jobs := []Job{{LocalPath: filepath.Join(t.TempDir(), "missing.png")}}
	results := client.UploadAll(context.Background(), jobs, []dto.UploadTicket{{DBID: 9}}, 0)
	require.Len(t, results, 1)
	assert.False(t, results[0].OK())
	assert.ErrorIs(t, results[0].Err, os.ErrNotExist)
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2025-05-06", NormalizeDate("20250506"))
	assert.Equal(t, "2025-05-06", NormalizeDate("20250506.0"))
	assert.Equal(t, "2025-05-06", NormalizeDate(" 2025-05-06 "))
	assert.Equal(t, "", NormalizeDate(""))
}
