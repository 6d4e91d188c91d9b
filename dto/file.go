package dto

import "github.com/autotraits-be/models"

// FileIn describes one file to register for deferred upload
type FileIn struct {
	Date      *string         `json:"date"`
	FileType  models.FileType `json:"file_type" binding:"required"`
	Extension string          `json:"extension" binding:"required"`
}

// BulkUploadRequest registers many files for one plant
type BulkUploadRequest struct {
	Files []FileIn `json:"files" binding:"required,min=1,dive"`
}

// StatusUpdateRequest reports client-observed upload outcomes
type StatusUpdateRequest struct {
	IDs    []uint            `json:"ids" binding:"required,min=1"`
	Status models.FileStatus `json:"status" binding:"required"`
}

// StatusUpdateResponse reports how many files changed status
type StatusUpdateResponse struct {
	Updated int64 `json:"updated"`
}

// PlantFileQuery filters the files of a plant
type PlantFileQuery struct {
	BreederID *uint           `form:"breeder_id"`
	FileType  models.FileType `form:"file_type"`
	Date      string          `form:"date"`
}

// UploadTicket is a registered PENDING file with a signed write URL
type UploadTicket struct {
	UploadURL string            `json:"upload_url"`
	BlobPath  string            `json:"blob_path"`
	DBID      uint              `json:"db_id"`
	Status    models.FileStatus `json:"status"`
}

// UploadResult is the outcome of an in-request upload
type UploadResult struct {
	DBID     uint              `json:"db_id"`
	FilePath string            `json:"file_path"`
	Status   models.FileStatus `json:"status"`
}

// FileResponse represents a plant file with a signed read URL
type FileResponse struct {
	ID       uint              `json:"id"`
	PlantID  uint              `json:"plant_id"`
	URL      string            `json:"url"`
	FileType models.FileType   `json:"file_type"`
	Date     *string           `json:"date"`
	Status   models.FileStatus `json:"status"`
}
