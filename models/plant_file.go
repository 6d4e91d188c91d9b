package models

import (
	"time"

	"gorm.io/datatypes"
)

// FileType classifies a plant file
type FileType string

const (
	FileTypeTwoD   FileType = "TWO_D"
	FileTypeThreeD FileType = "THREE_D"
)

// Valid reports whether t is a known file type
func (t FileType) Valid() bool {
	return t == FileTypeTwoD || t == FileTypeThreeD
}

// FileStatus is the upload state of a plant file
type FileStatus string

const (
	FileStatusPending   FileStatus = "PENDING"
	FileStatusCompleted FileStatus = "COMPLETED"
	FileStatusFailed    FileStatus = "FAILED"
)

// Terminal reports whether s ends an upload attempt
func (s FileStatus) Terminal() bool {
	return s == FileStatusCompleted || s == FileStatusFailed
}

// CanTransitionTo reports whether s may move to next. Only PENDING moves, and only to a terminal state.
func (s FileStatus) CanTransitionTo(next FileStatus) bool {
	return s == FileStatusPending && next.Terminal()
}

// PlantFile tracks one blob (image or 3D scan) attached to a plant
type PlantFile struct {
	ID        uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	PlantID   uint            `json:"plant_id" gorm:"not null;index:idx_files_plant_id"`
	Date      *datatypes.Date `json:"date"`
	FilePath  string          `json:"file_path" gorm:"not null"`
	FileType  FileType        `json:"file_type" gorm:"type:varchar(16);not null"`
	Status    FileStatus      `json:"status" gorm:"type:varchar(16);not null;default:'PENDING';index:idx_files_status"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	// Relations
	Plant Plant `json:"-" gorm:"foreignKey:PlantID"`
}
