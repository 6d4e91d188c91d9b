package dto

import (
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/repositories"
)

// CreateMeasurementRequest represents a new measurement with its fruits
type CreateMeasurementRequest struct {
	PlantID uint   `json:"plant_id" binding:"required"`
	Date    string `json:"date" binding:"required"`
	models.MeasurementTraits
	Fruits []models.FruitValues `json:"fruits"`
}

// Normalize drops non-finite numbers from the payload
func (r *CreateMeasurementRequest) Normalize() {
	r.MeasurementTraits.Sanitize()
	for i := range r.Fruits {
		r.Fruits[i].Sanitize()
	}
}

// UpdateMeasurementRequest is a partial update; nil fields keep their stored value.
// A non-nil Fruits replaces the whole fruit set, including with an empty list.
type UpdateMeasurementRequest struct {
	Date *string `json:"date"`
	models.MeasurementTraits
	Fruits *[]models.FruitValues `json:"fruits"`
}

// Normalize drops non-finite numbers from the payload
func (r *UpdateMeasurementRequest) Normalize() {
	r.MeasurementTraits.Sanitize()
	if r.Fruits != nil {
		for i := range *r.Fruits {
			(*r.Fruits)[i].Sanitize()
		}
	}
}

// MeasurementFilter holds the query parameters of a measurement listing
type MeasurementFilter struct {
	PageRequest
	BreederID *uint  `form:"breeder_id"`
	PlantCode string `form:"plant_code"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Variety   string `form:"variety"`
	Field     string `form:"field"`
}

// FruitResponse represents a stored fruit
type FruitResponse struct {
	ID uint `json:"id"`
	models.FruitValues
}

// MeasurementResponse represents a measurement in API responses
type MeasurementResponse struct {
	ID      uint   `json:"id"`
	PlantID uint   `json:"plant_id"`
	Date    string `json:"date"`
	models.MeasurementTraits
	Ripe           int             `json:"ripe"`
	CumulativeRipe *int64          `json:"cumulative_ripe,omitempty"`
	Plant          PlantResponse   `json:"plant"`
	Fruits         []FruitResponse `json:"fruits"`
}

// NewMeasurementResponse maps a measurement model to its response
func NewMeasurementResponse(m models.PlantMeasurement) MeasurementResponse {
	fruits := make([]FruitResponse, 0, len(m.Fruits))
	for _, f := range m.Fruits {
		fruits = append(fruits, FruitResponse{ID: f.ID, FruitValues: f.FruitValues})
	}
	return MeasurementResponse{
		ID:                m.ID,
		PlantID:           m.PlantID,
		Date:              models.FormatDate(m.Date),
		MeasurementTraits: m.MeasurementTraits,
		Ripe:              m.Ripe,
		Plant:             NewPlantResponse(m.Plant),
		Fruits:            fruits,
	}
}

// NewMeasurementListItem maps a listed measurement, carrying its running ripe total
func NewMeasurementListItem(m repositories.MeasurementWithCumulative) MeasurementResponse {
	resp := NewMeasurementResponse(m.PlantMeasurement)
	cumulative := m.CumulativeRipe
	resp.CumulativeRipe = &cumulative
	return resp
}

// SummaryResponse aggregates a breeder's measurements
type SummaryResponse struct {
	TotalPlants       int64            `json:"total_plants"`
	UniqueVarieties   []string         `json:"unique_varieties"`
	UniqueFields      []string         `json:"unique_fields"`
	SamplesPerVariety map[string]int64 `json:"samples_per_variety"`
	LastMeasuredDate  *string          `json:"last_measured_date"`
}

// ImportRowError records why one import row was rejected
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportResult summarises a bulk import
type ImportResult struct {
	Inserted int              `json:"inserted"`
	Updated  int              `json:"updated"`
	Errors   []ImportRowError `json:"errors"`
}
