package services

import (
	"errors"
	"fmt"

	"github.com/autotraits-be/database"
	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/repositories"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MeasurementService is the single write path for measurements and their fruits.
// Every write runs in one transaction and is re-read after commit.
type MeasurementService struct {
	plantRepo       *repositories.PlantRepository
	measurementRepo *repositories.MeasurementRepository
}

// NewMeasurementService creates a new measurement service instance
func NewMeasurementService() *MeasurementService {
	return &MeasurementService{
		plantRepo:       repositories.NewPlantRepository(),
		measurementRepo: repositories.NewMeasurementRepository(),
	}
}

// Create inserts a measurement for a plant of breederID; the (plant, date) pair must be new
func (s *MeasurementService) Create(req dto.CreateMeasurementRequest, breederID uint) (models.PlantMeasurement, error) {
	req.Normalize()
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return models.PlantMeasurement{}, err
	}

	var id uint
	err = s.measurementRepo.DB().Transaction(func(tx *gorm.DB) error {
		plants := s.plantRepo.WithTx(tx)
		measurements := s.measurementRepo.WithTx(tx)

		plant, err := plants.FindScoped(req.PlantID, &breederID)
		if err != nil {
			return notFound(err, "Plant not found or does not belong to breeder")
		}

		exists, err := measurements.ExistsByNaturalKey(plant.ID, date, 0)
		if err != nil {
			return fmt.Errorf("failed to check measurement uniqueness: %w", err)
		}
		if exists {
			return duplicateMeasurement(plant.ID, date)
		}

		if err := ValidateMeasurement(req.MeasurementTraits.NumericFields(), req.Fruits); err != nil {
			return err
		}

		m := models.PlantMeasurement{
			PlantID:           plant.ID,
			Date:              date,
			MeasurementTraits: req.MeasurementTraits,
			Ripe:              len(req.Fruits),
		}
		if err := measurements.Create(&m); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateMeasurement(plant.ID, date)
			}
			return fmt.Errorf("failed to create measurement: %w", err)
		}
		if _, err := measurements.ReplaceFruits(m.ID, req.Fruits); err != nil {
			return fmt.Errorf("failed to store fruits: %w", err)
		}
		id = m.ID
		return nil
	})
	if err != nil {
		return models.PlantMeasurement{}, err
	}
	return s.measurementRepo.FindScoped(id, &breederID)
}

// Update applies the supplied fields of req to a measurement of breederID
func (s *MeasurementService) Update(id uint, req dto.UpdateMeasurementRequest, breederID uint) (models.PlantMeasurement, error) {
	req.Normalize()
	var newDate *datatypes.Date
	if req.Date != nil {
		d, err := parseDateField("date", *req.Date)
		if err != nil {
			return models.PlantMeasurement{}, err
		}
		newDate = &d
	}

	err := s.measurementRepo.DB().Transaction(func(tx *gorm.DB) error {
		measurements := s.measurementRepo.WithTx(tx)

		m, err := measurements.FindScoped(id, &breederID)
		if err != nil {
			return notFound(err, "Measurement not found")
		}

		if newDate != nil && models.FormatDate(*newDate) != models.FormatDate(m.Date) {
			exists, err := measurements.ExistsByNaturalKey(m.PlantID, *newDate, m.ID)
			if err != nil {
				return fmt.Errorf("failed to check measurement uniqueness: %w", err)
			}
			if exists {
				return duplicateMeasurement(m.PlantID, *newDate)
			}
			m.Date = *newDate
		}

		m.MeasurementTraits.Apply(req.MeasurementTraits)

		fruits := models.FruitValuesOf(m.Fruits)
		if req.Fruits != nil {
			fruits = *req.Fruits
		}
		if err := ValidateMeasurement(m.MeasurementTraits.NumericFields(), fruits); err != nil {
			return err
		}

		if req.Fruits != nil {
			if _, err := measurements.ReplaceFruits(m.ID, fruits); err != nil {
				return fmt.Errorf("failed to replace fruits: %w", err)
			}
			m.Ripe = len(fruits)
		}
		if err := measurements.Save(&m); err != nil {
			if database.IsUniqueViolation(err) {
				return duplicateMeasurement(m.PlantID, m.Date)
			}
			return fmt.Errorf("failed to update measurement: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.PlantMeasurement{}, err
	}
	return s.measurementRepo.FindScoped(id, &breederID)
}

// Upsert inserts or fully replaces the measurement keyed by (plant, date).
// It reports whether a new row was created.
func (s *MeasurementService) Upsert(req dto.CreateMeasurementRequest, breederID uint) (models.PlantMeasurement, bool, error) {
	req.Normalize()
	date, err := parseDateField("date", req.Date)
	if err != nil {
		return models.PlantMeasurement{}, false, err
	}

	var id uint
	var created bool
	err = s.measurementRepo.DB().Transaction(func(tx *gorm.DB) error {
		var err error
		id, created, err = s.upsertTx(tx, req.PlantID, date, req.MeasurementTraits, req.Fruits, breederID)
		return err
	})
	if err != nil {
		return models.PlantMeasurement{}, false, err
	}
	m, err := s.measurementRepo.FindScoped(id, &breederID)
	return m, created, err
}

// upsertTx is the natural-key write shared by Upsert and the bulk import
func (s *MeasurementService) upsertTx(tx *gorm.DB, plantID uint, date datatypes.Date, traits models.MeasurementTraits, fruits []models.FruitValues, breederID uint) (uint, bool, error) {
	plants := s.plantRepo.WithTx(tx)
	measurements := s.measurementRepo.WithTx(tx)

	plant, err := plants.FindScoped(plantID, &breederID)
	if err != nil {
		return 0, false, notFound(err, "Plant not found or does not belong to breeder")
	}

	if err := ValidateMeasurement(traits.NumericFields(), fruits); err != nil {
		return 0, false, err
	}

	m, err := measurements.FindByNaturalKey(plant.ID, date)
	created := false
	switch {
	case err == nil:
		m.MeasurementTraits = traits
		m.Ripe = len(fruits)
		if err := measurements.Save(&m); err != nil {
			return 0, false, fmt.Errorf("failed to update measurement: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		m = models.PlantMeasurement{
			PlantID:           plant.ID,
			Date:              date,
			MeasurementTraits: traits,
			Ripe:              len(fruits),
		}
		if err := measurements.Create(&m); err != nil {
			if database.IsUniqueViolation(err) {
				return 0, false, duplicateMeasurement(plant.ID, date)
			}
			return 0, false, fmt.Errorf("failed to create measurement: %w", err)
		}
		created = true
	default:
		return 0, false, fmt.Errorf("failed to look up measurement: %w", err)
	}

	if _, err := measurements.ReplaceFruits(m.ID, fruits); err != nil {
		return 0, false, fmt.Errorf("failed to store fruits: %w", err)
	}
	return m.ID, created, nil
}

// Get retrieves a measurement, restricted to scope when it is non-nil
func (s *MeasurementService) Get(id uint, scope *uint) (models.PlantMeasurement, error) {
	m, err := s.measurementRepo.FindScoped(id, scope)
	if err != nil {
		return m, notFound(err, "Measurement not found")
	}
	return m, nil
}

// Delete removes a measurement and its fruits
func (s *MeasurementService) Delete(id uint, scope *uint) error {
	if _, err := s.Get(id, scope); err != nil {
		return err
	}
	return s.measurementRepo.Delete(id)
}

// List returns a page of measurements with their cumulative ripe counts
func (s *MeasurementService) List(filter dto.MeasurementFilter, scope *uint) (dto.Page[dto.MeasurementResponse], error) {
	page := dto.Page[dto.MeasurementResponse]{Offset: filter.Offset, Limit: filter.Limit}

	start, err := parseOptionalDate("start_date", filter.StartDate)
	if err != nil {
		return page, err
	}
	end, err := parseOptionalDate("end_date", filter.EndDate)
	if err != nil {
		return page, err
	}

	items, total, err := s.measurementRepo.List(repositories.MeasurementFilter{
		BreederID: scope,
		PlantCode: filter.PlantCode,
		StartDate: start,
		EndDate:   end,
		Variety:   filter.Variety,
		Field:     filter.Field,
		Offset:    filter.Offset,
		Limit:     filter.Limit,
	})
	if err != nil {
		return page, fmt.Errorf("failed to list measurements: %w", err)
	}

	page.Total = total
	page.Items = make([]dto.MeasurementResponse, 0, len(items))
	for _, item := range items {
		page.Items = append(page.Items, dto.NewMeasurementListItem(item))
	}
	return page, nil
}

// Summary aggregates the measurements of breederID within an optional date range
func (s *MeasurementService) Summary(breederID uint, startDate, endDate string) (dto.SummaryResponse, error) {
	var summary dto.SummaryResponse

	start, err := parseOptionalDate("start_date", startDate)
	if err != nil {
		return summary, err
	}
	end, err := parseOptionalDate("end_date", endDate)
	if err != nil {
		return summary, err
	}

	if summary.TotalPlants, err = s.plantRepo.CountByBreeder(breederID); err != nil {
		return summary, fmt.Errorf("failed to count plants: %w", err)
	}
	if summary.UniqueVarieties, err = s.measurementRepo.DistinctValues("variety", breederID, start, end); err != nil {
		return summary, fmt.Errorf("failed to list varieties: %w", err)
	}
	if summary.UniqueFields, err = s.measurementRepo.DistinctValues("field", breederID, start, end); err != nil {
		return summary, fmt.Errorf("failed to list fields: %w", err)
	}
	if summary.SamplesPerVariety, err = s.measurementRepo.SamplesPerVariety(breederID, start, end); err != nil {
		return summary, fmt.Errorf("failed to count samples: %w", err)
	}
	last, err := s.measurementRepo.LastDate(breederID, start, end)
	if err != nil {
		return summary, fmt.Errorf("failed to find last measurement: %w", err)
	}
	if last != nil {
		formatted := models.FormatDate(*last)
		summary.LastMeasuredDate = &formatted
	}
	if summary.UniqueVarieties == nil {
		summary.UniqueVarieties = []string{}
	}
	if summary.UniqueFields == nil {
		summary.UniqueFields = []string{}
	}
	return summary, nil
}

// UniqueDates lists the dates on which a plant code was measured
func (s *MeasurementService) UniqueDates(plantCode string, scope *uint) ([]string, error) {
	dates, err := s.measurementRepo.UniqueDates(plantCode, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurement dates: %w", err)
	}
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, models.FormatDate(d))
	}
	return out, nil
}

func duplicateMeasurement(plantID uint, date datatypes.Date) error {
	return newError(ErrConflict, "Measurement for plant %d on date %s already exists", plantID, models.FormatDate(date))
}

func notFound(err error, message string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return newError(ErrNotFound, "%s", message)
	}
	return err
}

func parseDateField(field, value string) (datatypes.Date, error) {
	d, err := models.ParseDate(value)
	if err != nil {
		return d, &ValidationError{Field: field, FruitIndex: -1, Message: fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)}
	}
	return d, nil
}

func parseOptionalDate(field, value string) (*datatypes.Date, error) {
	if value == "" {
		return nil, nil
	}
	d, err := parseDateField(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
