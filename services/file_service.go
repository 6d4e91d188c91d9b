package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/lib/metrics"
	"github.com/autotraits-be/lib/storage"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/repositories"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// extensionTypes pairs the accepted upload extensions with their file type
var extensionTypes = map[string]models.FileType{
	"png": models.FileTypeTwoD,
	"ply": models.FileTypeThreeD,
}

var contentTypes = map[string]string{
	"png": "image/png",
	"ply": "application/octet-stream",
}

// FileService drives the plant file upload workflow: PENDING, then COMPLETED or FAILED
type FileService struct {
	store         storage.Store
	urlExpiry     time.Duration
	maxUploadSize int64
	plantRepo     *repositories.PlantRepository
	fileRepo      *repositories.FileRepository
}

// NewFileService creates a new file service instance
func NewFileService(store storage.Store, urlExpiry time.Duration, maxUploadSize int64) *FileService {
	return &FileService{
		store:         store,
		urlExpiry:     urlExpiry,
		maxUploadSize: maxUploadSize,
		plantRepo:     repositories.NewPlantRepository(),
		fileRepo:      repositories.NewFileRepository(),
	}
}

// MaxUploadSize is the largest file UploadFile accepts, in bytes
func (s *FileService) MaxUploadSize() int64 {
	return s.maxUploadSize
}

// ListPlantFiles returns the files of a plant code with signed read URLs
func (s *FileService) ListPlantFiles(ctx context.Context, plantCode string, query dto.PlantFileQuery, scope *uint) ([]dto.FileResponse, error) {
	if query.FileType != "" && !query.FileType.Valid() {
		return nil, newError(ErrBadRequest, "file_type must be TWO_D or THREE_D")
	}
	date, err := parseOptionalDate("date", query.Date)
	if err != nil {
		return nil, err
	}

	files, err := s.fileRepo.Find(repositories.FileFilter{
		PlantCode: plantCode,
		BreederID: scope,
		FileType:  query.FileType,
		Date:      date,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	out := make([]dto.FileResponse, 0, len(files))
	for _, f := range files {
		url, err := s.store.SignedURL(ctx, f.FilePath, storage.PermissionRead, s.urlExpiry)
		if err != nil {
			return nil, &UpstreamError{Op: "sign read url", Err: err}
		}
		out = append(out, dto.FileResponse{
			ID:       f.ID,
			PlantID:  f.PlantID,
			URL:      url,
			FileType: f.FileType,
			Date:     formatOptionalDate(f.Date),
			Status:   f.Status,
		})
	}
	return out, nil
}

// RegisterUpload records a PENDING file and returns a signed write URL for the client to PUT to
func (s *FileService) RegisterUpload(ctx context.Context, plantID uint, in dto.FileIn, scope *uint) (dto.UploadTicket, error) {
	tickets, err := s.register(ctx, plantID, []dto.FileIn{in}, scope)
	if err != nil {
		return dto.UploadTicket{}, err
	}
	return tickets[0], nil
}

// BulkRegister records many PENDING files for deferred client-driven upload
func (s *FileService) BulkRegister(ctx context.Context, plantID uint, files []dto.FileIn, breederID uint) ([]dto.UploadTicket, error) {
	return s.register(ctx, plantID, files, &breederID)
}

func (s *FileService) register(ctx context.Context, plantID uint, files []dto.FileIn, scope *uint) ([]dto.UploadTicket, error) {
	if _, err := s.plantRepo.FindScoped(plantID, scope); err != nil {
		return nil, notFound(err, "Plant not found or does not belong to breeder")
	}

	records := make([]models.PlantFile, 0, len(files))
	urls := make([]string, 0, len(files))
	for i, in := range files {
		if !in.FileType.Valid() {
			return nil, newError(ErrBadRequest, "file %d: file_type must be TWO_D or THREE_D", i)
		}
		ext := normalizeExtension(in.Extension)
		if ext == "" {
			return nil, newError(ErrBadRequest, "file %d: extension is required", i)
		}
		var date *datatypes.Date
		if in.Date != nil && *in.Date != "" {
			d, err := parseImportDate(*in.Date)
			if err != nil {
				return nil, &ValidationError{Field: "date", FruitIndex: -1, Message: fmt.Sprintf("file %d: invalid date %s", i, *in.Date)}
			}
			date = &d
		}

		key := blobKey(ext)
		url, err := s.store.SignedURL(ctx, key, storage.PermissionWrite, s.urlExpiry)
		if err != nil {
			return nil, &UpstreamError{Op: "sign upload url", Err: err}
		}
		records = append(records, models.PlantFile{
			PlantID:  plantID,
			Date:     date,
			FilePath: key,
			FileType: in.FileType,
			Status:   models.FileStatusPending,
		})
		urls = append(urls, url)
	}

	records, err := s.fileRepo.CreateBatch(records)
	if err != nil {
		return nil, fmt.Errorf("failed to register files: %w", err)
	}

	tickets := make([]dto.UploadTicket, 0, len(records))
	for i, rec := range records {
		tickets = append(tickets, dto.UploadTicket{
			UploadURL: urls[i],
			BlobPath:  rec.FilePath,
			DBID:      rec.ID,
			Status:    rec.Status,
		})
	}
	metrics.FileUploads.WithLabelValues(string(models.FileStatusPending)).Add(float64(len(tickets)))
	return tickets, nil
}

// UploadFile stores an uploaded file in one request. The record is created
// PENDING before the blob write and ends COMPLETED or FAILED; a failed write
// is returned as an UpstreamError.
func (s *FileService) UploadFile(ctx context.Context, plantID uint, date string, fileType models.FileType, filename string, size int64, body io.Reader, scope *uint) (dto.UploadResult, error) {
	ext := normalizeExtension(filepath.Ext(filename))
	expected, ok := extensionTypes[ext]
	if !ok {
		return dto.UploadResult{}, newError(ErrBadRequest, "Unsupported file extension")
	}
	if fileType != expected {
		return dto.UploadResult{}, newError(ErrBadRequest, "File extension %s does not match file_type %s", ext, fileType)
	}
	if size > s.maxUploadSize {
		return dto.UploadResult{}, newError(ErrBadRequest, "File too large (max %s)", formatSize(s.maxUploadSize))
	}
	d, err := parseDateField("date", date)
	if err != nil {
		return dto.UploadResult{}, err
	}
	if _, err := s.plantRepo.FindScoped(plantID, scope); err != nil {
		return dto.UploadResult{}, notFound(err, "Plant not found or does not belong to breeder")
	}

	record, err := s.fileRepo.Create(models.PlantFile{
		PlantID:  plantID,
		Date:     &d,
		FilePath: blobKey(ext),
		FileType: fileType,
		Status:   models.FileStatusPending,
	})
	if err != nil {
		return dto.UploadResult{}, fmt.Errorf("failed to register file: %w", err)
	}

	final := models.FileStatusCompleted
	uploadErr := s.store.Upload(ctx, record.FilePath, body, size, contentTypes[ext])
	if uploadErr != nil {
		final = models.FileStatusFailed
	}
	if _, err := s.fileRepo.UpdateStatus(record.ID, final); err != nil {
		return dto.UploadResult{}, fmt.Errorf("failed to record upload status: %w", err)
	}
	metrics.FileUploads.WithLabelValues(string(final)).Inc()

	if uploadErr != nil {
		zap.L().Warn("file upload failed",
			zap.Uint("file_id", record.ID),
			zap.String("blob_path", record.FilePath),
			zap.Error(uploadErr),
		)
		return dto.UploadResult{DBID: record.ID, FilePath: record.FilePath, Status: final},
			&UpstreamError{Op: "File upload failed", Err: uploadErr}
	}
	return dto.UploadResult{DBID: record.ID, FilePath: record.FilePath, Status: final}, nil
}

// UpdateStatuses records client-observed outcomes for PENDING files in scope.
// Files already COMPLETED or FAILED, or outside scope, are left untouched.
func (s *FileService) UpdateStatuses(req dto.StatusUpdateRequest, scope *uint) (int64, error) {
	if !req.Status.Terminal() {
		return 0, newError(ErrBadRequest, "status must be COMPLETED or FAILED")
	}
	updated, err := s.fileRepo.UpdateStatusBatch(req.IDs, req.Status, scope)
	if err != nil {
		return 0, fmt.Errorf("failed to update file status: %w", err)
	}
	metrics.FileUploads.WithLabelValues(string(req.Status)).Add(float64(updated))
	return updated, nil
}

// SeedResult counts the outcome of registering existing blobs
type SeedResult struct {
	Imported int                  `json:"imported"`
	Skipped  int                  `json:"skipped"`
	Errors   []dto.ImportRowError `json:"errors"`
}

// ImportExisting registers blobs that already exist in the store, creating
// plants as needed. Paths already registered are skipped.
func (s *FileService) ImportExisting(rows []Row, breederID uint) SeedResult {
	result := SeedResult{Errors: []dto.ImportRowError{}}
	for idx, row := range rows {
		skipped, err := s.importExistingRow(idx, row, breederID)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, dto.ImportRowError{Row: idx, Error: err.Error()})
		case skipped:
			result.Skipped++
		default:
			result.Imported++
		}
	}
	return result
}

func (s *FileService) importExistingRow(idx int, row Row, breederID uint) (bool, error) {
	code := strings.TrimSpace(row["plant_code"])
	path := strings.TrimSpace(row["file_path"])
	fileType := models.FileType(strings.TrimSpace(row["file_type"]))
	if code == "" || path == "" {
		return false, fmt.Errorf("plant_code and file_path are required at row %d", idx)
	}
	if !fileType.Valid() {
		return false, fmt.Errorf("invalid file_type at row %d: %s", idx, fileType)
	}
	var date *datatypes.Date
	if raw := strings.TrimSpace(row["date"]); !isNullToken(raw) {
		d, err := parseImportDate(raw)
		if err != nil {
			return false, fmt.Errorf("Invalid date format at row %d: %s", idx, raw)
		}
		date = &d
	}

	skipped := false
	err := s.fileRepo.DB().Transaction(func(tx *gorm.DB) error {
		files := s.fileRepo.WithTx(tx)
		exists, err := files.PathExists(path)
		if err != nil {
			return err
		}
		if exists {
			skipped = true
			return nil
		}
		plant, _, err := ensurePlantTx(s.plantRepo.WithTx(tx), code, breederID)
		if err != nil {
			return err
		}
		_, err = files.Create(models.PlantFile{
			PlantID:  plant.ID,
			Date:     date,
			FilePath: path,
			FileType: fileType,
			Status:   models.FileStatusCompleted,
		})
		return err
	})
	return skipped, err
}

// formatSize renders whole mebibytes as "NMB" and anything else in bytes
func formatSize(n int64) string {
	const mib = 1024 * 1024
	if n >= mib && n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}

func blobKey(ext string) string {
	return uuid.NewString() + "." + ext
}

func normalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

func formatOptionalDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := models.FormatDate(*d)
	return &s
}
