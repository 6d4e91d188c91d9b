package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autotraits-be/database"
	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/repositories"
	"gorm.io/gorm"
)

// PlantService handles business logic for plants
type PlantService struct {
	plantRepo *repositories.PlantRepository
}

// NewPlantService creates a new plant service instance
func NewPlantService() *PlantService {
	return &PlantService{
		plantRepo: repositories.NewPlantRepository(),
	}
}

// Create registers a plant code for breederID
func (s *PlantService) Create(code string, breederID uint) (models.Plant, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Plant{}, &ValidationError{Field: "plant_code", FruitIndex: -1, Message: "plant_code is required"}
	}

	exists, err := s.plantRepo.CodeExists(breederID, code, 0)
	if err != nil {
		return models.Plant{}, fmt.Errorf("failed to check plant code: %w", err)
	}
	if exists {
		return models.Plant{}, newError(ErrConflict, "Plant code %s already exists", code)
	}

	plant, err := s.plantRepo.Create(models.Plant{BreederID: breederID, PlantCode: code})
	if err != nil {
		if database.IsUniqueViolation(err) {
			return models.Plant{}, newError(ErrConflict, "Plant code %s already exists", code)
		}
		return models.Plant{}, fmt.Errorf("failed to create plant: %w", err)
	}
	return plant, nil
}

// EnsurePlant returns the plant of breederID with code, creating it when missing
func (s *PlantService) EnsurePlant(code string, breederID uint) (models.Plant, bool, error) {
	return ensurePlantTx(s.plantRepo, code, breederID)
}

func ensurePlantTx(plants *repositories.PlantRepository, code string, breederID uint) (models.Plant, bool, error) {
	plant, err := plants.FindByCode(code, &breederID)
	if err == nil {
		return plant, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return plant, false, fmt.Errorf("failed to look up plant %s: %w", code, err)
	}

	// A savepoint keeps an enclosing transaction usable after a lost insert race
	err = plants.DB().Transaction(func(tx *gorm.DB) error {
		var createErr error
		plant, createErr = plants.WithTx(tx).Create(models.Plant{BreederID: breederID, PlantCode: code})
		return createErr
	})
	if err != nil {
		if database.IsUniqueViolation(err) {
			plant, err = plants.FindByCode(code, &breederID)
			return plant, false, err
		}
		return plant, false, fmt.Errorf("failed to create plant %s: %w", code, err)
	}
	return plant, true, nil
}

// Get retrieves a plant, restricted to scope when it is non-nil
func (s *PlantService) Get(id uint, scope *uint) (models.Plant, error) {
	plant, err := s.plantRepo.FindScoped(id, scope)
	if err != nil {
		return plant, notFound(err, "Plant not found")
	}
	return plant, nil
}

// Rename changes the code of a plant; codes stay unique per breeder
func (s *PlantService) Rename(id uint, code string, scope *uint) (models.Plant, error) {
	plant, err := s.Get(id, scope)
	if err != nil {
		return plant, err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return plant, &ValidationError{Field: "plant_code", FruitIndex: -1, Message: "plant_code is required"}
	}

	exists, err := s.plantRepo.CodeExists(plant.BreederID, code, plant.ID)
	if err != nil {
		return plant, fmt.Errorf("failed to check plant code: %w", err)
	}
	if exists {
		return plant, newError(ErrConflict, "Plant code %s already exists", code)
	}

	plant.PlantCode = code
	if err := s.plantRepo.Update(plant); err != nil {
		if database.IsUniqueViolation(err) {
			return plant, newError(ErrConflict, "Plant code %s already exists", code)
		}
		return plant, fmt.Errorf("failed to update plant: %w", err)
	}
	return plant, nil
}

// Delete removes a plant together with its measurements and files
func (s *PlantService) Delete(id uint, scope *uint) error {
	plant, err := s.Get(id, scope)
	if err != nil {
		return err
	}
	if err := s.plantRepo.Delete(plant.ID); err != nil {
		return fmt.Errorf("failed to delete plant: %w", err)
	}
	return nil
}

// List returns a page of plants ordered by code
func (s *PlantService) List(filter dto.PlantFilter, scope *uint) (dto.Page[dto.PlantResponse], error) {
	page := dto.Page[dto.PlantResponse]{Offset: filter.Offset, Limit: filter.Limit}

	plants, total, err := s.plantRepo.FindWithPagination(filter.Offset, filter.Limit, scope, filter.Search)
	if err != nil {
		return page, fmt.Errorf("failed to list plants: %w", err)
	}

	page.Total = total
	page.Items = make([]dto.PlantResponse, 0, len(plants))
	for _, p := range plants {
		page.Items = append(page.Items, dto.NewPlantResponse(p))
	}
	return page, nil
}
