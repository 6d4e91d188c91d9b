package repositories

import (
	"github.com/autotraits-be/database"
	"github.com/autotraits-be/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MeasurementFilter narrows a measurement listing. Zero values mean "no filter".
type MeasurementFilter struct {
	BreederID *uint
	PlantCode string
	StartDate *datatypes.Date
	EndDate   *datatypes.Date
	Variety   string
	Field     string
	Offset    int
	Limit     int
}

// MeasurementWithCumulative pairs a measurement with the running ripe total of its plant
type MeasurementWithCumulative struct {
	models.PlantMeasurement
	CumulativeRipe int64
}

// MeasurementRepository handles database operations for measurements and their fruits
type MeasurementRepository struct {
	db *gorm.DB
}

// NewMeasurementRepository creates a new measurement repository instance
func NewMeasurementRepository() *MeasurementRepository {
	return &MeasurementRepository{db: database.DB}
}

// WithTx returns a copy bound to tx
func (r *MeasurementRepository) WithTx(tx *gorm.DB) *MeasurementRepository {
	return &MeasurementRepository{db: tx}
}

// DB returns the database instance
func (r *MeasurementRepository) DB() *gorm.DB {
	return r.db
}

// FindScoped loads a measurement with its plant and fruits, restricted to breederID when it is non-nil
func (r *MeasurementRepository) FindScoped(id uint, breederID *uint) (models.PlantMeasurement, error) {
	var m models.PlantMeasurement
	db := r.db.Preload("Plant").Preload("Fruits", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("plant_measurements.id = ?", id)
	if breederID != nil {
		db = db.Joins("JOIN plants ON plants.id = plant_measurements.plant_id").
			Where("plants.breeder_id = ?", *breederID)
	}
	result := db.First(&m)
	return m, result.Error
}

// FindByNaturalKey retrieves the measurement of plantID on date
func (r *MeasurementRepository) FindByNaturalKey(plantID uint, date datatypes.Date) (models.PlantMeasurement, error) {
	var m models.PlantMeasurement
	result := r.db.Where("plant_id = ? AND date = ?", plantID, date).First(&m)
	return m, result.Error
}

// ExistsByNaturalKey checks whether (plantID, date) is taken by a row other than excludeID
func (r *MeasurementRepository) ExistsByNaturalKey(plantID uint, date datatypes.Date, excludeID uint) (bool, error) {
	var count int64
	db := r.db.Model(&models.PlantMeasurement{}).Where("plant_id = ? AND date = ?", plantID, date)
	if excludeID != 0 {
		db = db.Where("id <> ?", excludeID)
	}
	err := db.Count(&count).Error
	return count > 0, err
}

// Create inserts the measurement row only; fruits are written with ReplaceFruits
func (r *MeasurementRepository) Create(m *models.PlantMeasurement) error {
	return r.db.Omit(clause.Associations).Create(m).Error
}

// Save writes every column of the measurement row, including nil traits
func (r *MeasurementRepository) Save(m *models.PlantMeasurement) error {
	return r.db.Omit(clause.Associations).Save(m).Error
}

// ReplaceFruits deletes all fruits of measurementID and inserts values in order
func (r *MeasurementRepository) ReplaceFruits(measurementID uint, values []models.FruitValues) ([]models.PlantFruit, error) {
	if err := r.db.Where("measurement_id = ?", measurementID).Delete(&models.PlantFruit{}).Error; err != nil {
		return nil, err
	}
	fruits := make([]models.PlantFruit, 0, len(values))
	for _, v := range values {
		fruits = append(fruits, models.PlantFruit{MeasurementID: measurementID, FruitValues: v})
	}
	if len(fruits) == 0 {
		return fruits, nil
	}
	if err := r.db.Create(&fruits).Error; err != nil {
		return nil, err
	}
	return fruits, nil
}

// CountFruits counts the stored fruits of a measurement
func (r *MeasurementRepository) CountFruits(measurementID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.PlantFruit{}).Where("measurement_id = ?", measurementID).Count(&count).Error
	return count, err
}

// Delete removes a measurement and its fruits
func (r *MeasurementRepository) Delete(id uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("measurement_id = ?", id).Delete(&models.PlantFruit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.PlantMeasurement{}, id).Error
	})
}

func (r *MeasurementRepository) filtered(f MeasurementFilter) *gorm.DB {
	db := r.db.Table("plant_measurements").
		Joins("JOIN plants ON plants.id = plant_measurements.plant_id")
	if f.BreederID != nil {
		db = db.Where("plants.breeder_id = ?", *f.BreederID)
	}
	if f.PlantCode != "" {
		db = db.Where("plants.plant_code = ?", f.PlantCode)
	}
	if f.StartDate != nil {
		db = db.Where("plant_measurements.date >= ?", *f.StartDate)
	}
	if f.EndDate != nil {
		db = db.Where("plant_measurements.date <= ?", *f.EndDate)
	}
	if f.Variety != "" {
		db = db.Where("plant_measurements.variety = ?", f.Variety)
	}
	if f.Field != "" {
		db = db.Where("plant_measurements.field = ?", f.Field)
	}
	return db
}

// List returns one page of filtered measurements ordered by date, each with the
// running sum of ripe over its plant's filtered rows up to that date
func (r *MeasurementRepository) List(f MeasurementFilter) ([]MeasurementWithCumulative, int64, error) {
	var total int64
	if err := r.filtered(f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	type row struct {
		ID             uint
		CumulativeRipe int64
	}
	var rows []row
	err := r.filtered(f).
		Select("plant_measurements.id AS id, SUM(plant_measurements.ripe) OVER (PARTITION BY plant_measurements.plant_id ORDER BY plant_measurements.date) AS cumulative_ripe").
		Order("plant_measurements.date, plant_measurements.id").
		Offset(f.Offset).Limit(f.Limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	if len(rows) == 0 {
		return []MeasurementWithCumulative{}, total, nil
	}

	ids := make([]uint, 0, len(rows))
	for _, rw := range rows {
		ids = append(ids, rw.ID)
	}
	var loaded []models.PlantMeasurement
	err = r.db.Preload("Plant").Preload("Fruits", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("id IN ?", ids).Find(&loaded).Error
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uint]models.PlantMeasurement, len(loaded))
	for _, m := range loaded {
		byID[m.ID] = m
	}

	items := make([]MeasurementWithCumulative, 0, len(rows))
	for _, rw := range rows {
		if m, ok := byID[rw.ID]; ok {
			items = append(items, MeasurementWithCumulative{PlantMeasurement: m, CumulativeRipe: rw.CumulativeRipe})
		}
	}
	return items, total, nil
}

// DistinctValues lists the non-null distinct values of column for a breeder within the date range
func (r *MeasurementRepository) DistinctValues(column string, breederID uint, start, end *datatypes.Date) ([]string, error) {
	var values []string
	col := "plant_measurements." + column
	err := r.filtered(MeasurementFilter{BreederID: &breederID, StartDate: start, EndDate: end}).
		Where(col+" IS NOT NULL").
		Distinct(col).
		Order(col).
		Pluck(col, &values).Error
	return values, err
}

// SamplesPerVariety counts measurements per non-null variety
func (r *MeasurementRepository) SamplesPerVariety(breederID uint, start, end *datatypes.Date) (map[string]int64, error) {
	type row struct {
		Variety string
		Count   int64
	}
	var rows []row
	err := r.filtered(MeasurementFilter{BreederID: &breederID, StartDate: start, EndDate: end}).
		Select("plant_measurements.variety AS variety, COUNT(plant_measurements.id) AS count").
		Where("plant_measurements.variety IS NOT NULL").
		Group("plant_measurements.variety").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, rw := range rows {
		out[rw.Variety] = rw.Count
	}
	return out, nil
}

// LastDate returns the latest measurement date in range, or nil when there is none
func (r *MeasurementRepository) LastDate(breederID uint, start, end *datatypes.Date) (*datatypes.Date, error) {
	var m models.PlantMeasurement
	result := r.filtered(MeasurementFilter{BreederID: &breederID, StartDate: start, EndDate: end}).
		Select("plant_measurements.date").
		Order("plant_measurements.date DESC").
		Limit(1).
		Scan(&m)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, nil
	}
	return &m.Date, nil
}

// UniqueDates lists the distinct measurement dates of a plant code, restricted to breederID when it is non-nil
func (r *MeasurementRepository) UniqueDates(plantCode string, breederID *uint) ([]datatypes.Date, error) {
	var ms []models.PlantMeasurement
	err := r.filtered(MeasurementFilter{BreederID: breederID, PlantCode: plantCode}).
		Distinct("plant_measurements.date").
		Order("plant_measurements.date").
		Scan(&ms).Error
	if err != nil {
		return nil, err
	}
	dates := make([]datatypes.Date, 0, len(ms))
	for _, m := range ms {
		dates = append(dates, m.Date)
	}
	return dates, nil
}
