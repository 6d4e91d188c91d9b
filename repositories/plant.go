package repositories

import (
	"github.com/autotraits-be/database"
	"github.com/autotraits-be/models"
	"gorm.io/gorm"
)

// PlantRepository handles database operations for plants
type PlantRepository struct {
	db *gorm.DB
}

// NewPlantRepository creates a new plant repository instance
func NewPlantRepository() *PlantRepository {
	return &PlantRepository{db: database.DB}
}

// WithTx returns a copy bound to tx
func (r *PlantRepository) WithTx(tx *gorm.DB) *PlantRepository {
	return &PlantRepository{db: tx}
}

// DB returns the database instance
func (r *PlantRepository) DB() *gorm.DB {
	return r.db
}

// FindByID retrieves a plant by its ID
func (r *PlantRepository) FindByID(id uint) (models.Plant, error) {
	var plant models.Plant
	result := r.db.First(&plant, id)
	return plant, result.Error
}

// FindScoped retrieves a plant by ID, restricted to breederID when it is non-nil
func (r *PlantRepository) FindScoped(id uint, breederID *uint) (models.Plant, error) {
	var plant models.Plant
	db := r.db.Where("id = ?", id)
	if breederID != nil {
		db = db.Where("breeder_id = ?", *breederID)
	}
	result := db.First(&plant)
	return plant, result.Error
}

// FindByCode retrieves a plant by its code, restricted to breederID when it is non-nil
func (r *PlantRepository) FindByCode(code string, breederID *uint) (models.Plant, error) {
	var plant models.Plant
	db := r.db.Where("plant_code = ?", code)
	if breederID != nil {
		db = db.Where("breeder_id = ?", *breederID)
	}
	result := db.Order("id").First(&plant)
	return plant, result.Error
}

// CodeExists checks whether breederID already uses code, ignoring excludeID
func (r *PlantRepository) CodeExists(breederID uint, code string, excludeID uint) (bool, error) {
	var count int64
	db := r.db.Model(&models.Plant{}).Where("breeder_id = ? AND plant_code = ?", breederID, code)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

// Create inserts a new plant into the database
func (r *PlantRepository) Create(plant models.Plant) (models.Plant, error) {
	result := r.db.Omit("Breeder", "Measurements", "Files").Create(&plant)
	return plant, result.Error
}

// Update modifies an existing plant
func (r *PlantRepository) Update(plant models.Plant) error {
	result := r.db.Model(&models.Plant{ID: plant.ID}).Updates(map[string]interface{}{
		"plant_code": plant.PlantCode,
		"breeder_id": plant.BreederID,
	})
	return result.Error
}

// Delete removes a plant with its measurements, fruits and files
func (r *PlantRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		measurementIDs := tx.Model(&models.PlantMeasurement{}).Select("id").Where("plant_id = ?", id)
		if err := tx.Where("measurement_id IN (?)", measurementIDs).Delete(&models.PlantFruit{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plant_id = ?", id).Delete(&models.PlantMeasurement{}).Error; err != nil {
			return err
		}
		if err := tx.Where("plant_id = ?", id).Delete(&models.PlantFile{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Plant{}, id).Error
	})
}

// CountByBreeder counts plants owned by a breeder
func (r *PlantRepository) CountByBreeder(breederID uint) (int64, error) {
	var count int64
	result := r.db.Model(&models.Plant{}).Where("breeder_id = ?", breederID).Count(&count)
	return count, result.Error
}

// FindWithPagination retrieves plants ordered by code, restricted to breederID when it is non-nil
func (r *PlantRepository) FindWithPagination(offset, limit int, breederID *uint, search string) ([]models.Plant, int64, error) {
	var plants []models.Plant
	var totalCount int64

	db := r.db.Model(&models.Plant{})
	if breederID != nil {
		db = db.Where("breeder_id = ?", *breederID)
	}
	if search != "" {
		db = db.Where("plant_code LIKE ?", "%"+search+"%")
	}

	if err := db.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	if err := db.Order("plant_code, id").Limit(limit).Offset(offset).Find(&plants).Error; err != nil {
		return nil, 0, err
	}
	return plants, totalCount, nil
}
