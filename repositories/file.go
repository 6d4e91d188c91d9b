package repositories

import (
	"github.com/autotraits-be/database"
	"github.com/autotraits-be/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FileFilter narrows a plant file listing
type FileFilter struct {
	PlantCode string
	BreederID *uint
	FileType  models.FileType
	Date      *datatypes.Date
}

// FileRepository handles database operations for plant files
type FileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new file repository instance
func NewFileRepository() *FileRepository {
	return &FileRepository{db: database.DB}
}

// WithTx returns a copy bound to tx
func (r *FileRepository) WithTx(tx *gorm.DB) *FileRepository {
	return &FileRepository{db: tx}
}

// Create inserts a new file record
func (r *FileRepository) Create(file models.PlantFile) (models.PlantFile, error) {
	result := r.db.Omit("Plant").Create(&file)
	return file, result.Error
}

// CreateBatch inserts many file records in one statement
func (r *FileRepository) CreateBatch(files []models.PlantFile) ([]models.PlantFile, error) {
	if len(files) == 0 {
		return files, nil
	}
	result := r.db.Omit("Plant").Create(&files)
	return files, result.Error
}

// FindByID retrieves a file by its ID
func (r *FileRepository) FindByID(id uint) (models.PlantFile, error) {
	var file models.PlantFile
	result := r.db.First(&file, id)
	return file, result.Error
}

// Find lists files of a plant code ordered by date, then id
func (r *FileRepository) Find(f FileFilter) ([]models.PlantFile, error) {
	var files []models.PlantFile
	db := r.db.Model(&models.PlantFile{}).
		Joins("JOIN plants ON plants.id = plant_files.plant_id").
		Where("plants.plant_code = ?", f.PlantCode)
	if f.BreederID != nil {
		db = db.Where("plants.breeder_id = ?", *f.BreederID)
	}
	if f.FileType != "" {
		db = db.Where("plant_files.file_type = ?", f.FileType)
	}
	if f.Date != nil {
		db = db.Where("plant_files.date = ?", *f.Date)
	}
	result := db.Order("plant_files.date, plant_files.id").Find(&files)
	return files, result.Error
}

// PathExists checks whether a blob path is already registered
func (r *FileRepository) PathExists(path string) (bool, error) {
	var count int64
	err := r.db.Model(&models.PlantFile{}).Where("file_path = ?", path).Count(&count).Error
	return count > 0, err
}

// UpdateStatus moves a PENDING file to status; it reports whether a row changed
func (r *FileRepository) UpdateStatus(id uint, status models.FileStatus) (bool, error) {
	result := r.db.Model(&models.PlantFile{}).
		Where("id = ? AND status = ?", id, models.FileStatusPending).
		Update("status", status)
	return result.RowsAffected > 0, result.Error
}

// UpdateStatusBatch moves the PENDING files among ids to status, restricted to
// breederID when it is non-nil, and returns how many rows changed
func (r *FileRepository) UpdateStatusBatch(ids []uint, status models.FileStatus, breederID *uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	db := r.db.Model(&models.PlantFile{}).
		Where("id IN ? AND status = ?", ids, models.FileStatusPending)
	if breederID != nil {
		db = db.Where("plant_id IN (?)",
			r.db.Model(&models.Plant{}).Select("id").Where("breeder_id = ?", *breederID))
	}
	result := db.Update("status", status)
	return result.RowsAffected, result.Error
}

// DB returns the database instance
func (r *FileRepository) DB() *gorm.DB {
	return r.db
}
