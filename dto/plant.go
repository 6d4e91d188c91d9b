package dto

import "github.com/autotraits-be/models"

// CreatePlantRequest represents the data needed to create a plant
type CreatePlantRequest struct {
	PlantCode string `json:"plant_code" binding:"required"`
	BreederID *uint  `json:"breeder_id"`
}

// UpdatePlantRequest represents the data needed to rename a plant
type UpdatePlantRequest struct {
	PlantCode string `json:"plant_code" binding:"required"`
}

// PlantFilter narrows a plant listing
type PlantFilter struct {
	PageRequest
	BreederID *uint  `form:"breeder_id"`
	Search    string `form:"search"`
}

// PlantResponse represents a plant in API responses
type PlantResponse struct {
	ID        uint   `json:"id"`
	PlantCode string `json:"plant_code"`
	BreederID uint   `json:"breeder_id"`
}

// NewPlantResponse maps a plant model to its response
func NewPlantResponse(p models.Plant) PlantResponse {
	return PlantResponse{ID: p.ID, PlantCode: p.PlantCode, BreederID: p.BreederID}
}
