package repositories

import (
	"errors"

	"github.com/autotraits-be/database"
	"github.com/autotraits-be/models"
	"gorm.io/gorm"
)

// BreederRepository handles database operations for breeders
type BreederRepository struct {
	db *gorm.DB
}

// NewBreederRepository creates a new breeder repository instance
func NewBreederRepository() *BreederRepository {
	return &BreederRepository{db: database.DB}
}

// WithTx returns a copy bound to tx
func (r *BreederRepository) WithTx(tx *gorm.DB) *BreederRepository {
	return &BreederRepository{db: tx}
}

// FindByID retrieves a breeder by its ID
func (r *BreederRepository) FindByID(id uint) (models.Breeder, error) {
	var breeder models.Breeder
	result := r.db.First(&breeder, id)
	return breeder, result.Error
}

// FindOrCreate returns the breeder called name, creating it when absent
func (r *BreederRepository) FindOrCreate(name string) (models.Breeder, error) {
	var breeder models.Breeder
	err := r.db.Where("name = ?", name).First(&breeder).Error
	if err == nil {
		return breeder, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return breeder, err
	}

	breeder = models.Breeder{Name: name}
	if err := r.db.Create(&breeder).Error; err != nil {
		if !database.IsUniqueViolation(err) {
			return breeder, err
		}
		// Lost a race with a concurrent signup
		breeder = models.Breeder{}
		err = r.db.Where("name = ?", name).First(&breeder).Error
		return breeder, err
	}
	return breeder, nil
}
