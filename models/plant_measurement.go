package models

import (
	"math"
	"time"

	"gorm.io/datatypes"
)

// MeasurementTraits holds the nullable trait columns of a measurement.
// A nil field is "absent": valid for validation, and "not supplied" for patches.
type MeasurementTraits struct {
	Variety          *string  `json:"variety"`
	Biomass          *float64 `json:"biomass"`
	CanopyDensity    *float64 `json:"canopy_density"`
	PartRipe         *int     `json:"part_ripe"`
	Unripe           *int     `json:"unripe"`
	Flower           *int     `json:"flower"`
	YieldPerPlant    *float64 `json:"yield_per_plant"`
	CumYieldPerPlant *float64 `json:"cum_yield_per_plant"`
	Class1           *float64 `json:"class_1" gorm:"column:class_1"`
	LengthOfCropping *float64 `json:"length_of_cropping"`
	Field            *string  `json:"field"`
	PetioleLength    *float64 `json:"petiole_length"`
	PetioleStrength  *float64 `json:"petiole_strength"`
	PetioleRadius    *float64 `json:"petiole_radius"`
	TrussLength      *float64 `json:"truss_length"`
	TrussStrength    *float64 `json:"truss_strength"`
	TrussRadius      *float64 `json:"truss_radius"`
	GrowthHabit      *string  `json:"growth_habit"`
	FruitShape       *string  `json:"fruit_shape"`
	CropComposition  *float64 `json:"crop_composition"`
	PlantHeight      *float64 `json:"plant_height"`
	Exg              *float64 `json:"exg" gorm:"column:exg"`
}

// NumericField is one entry of the flattened numeric view of a measurement
type NumericField struct {
	Name  string
	Value *float64
}

// NumericFields flattens the sign-constrained trait columns, in a fixed order
func (t MeasurementTraits) NumericFields() []NumericField {
	return []NumericField{
		{"part_ripe", intAsFloat(t.PartRipe)},
		{"unripe", intAsFloat(t.Unripe)},
		{"flower", intAsFloat(t.Flower)},
		{"biomass", t.Biomass},
		{"canopy_density", t.CanopyDensity},
		{"yield_per_plant", t.YieldPerPlant},
		{"cum_yield_per_plant", t.CumYieldPerPlant},
		{"class_1", t.Class1},
		{"length_of_cropping", t.LengthOfCropping},
		{"petiole_length", t.PetioleLength},
		{"petiole_strength", t.PetioleStrength},
		{"petiole_radius", t.PetioleRadius},
		{"truss_length", t.TrussLength},
		{"truss_strength", t.TrussStrength},
		{"truss_radius", t.TrussRadius},
		{"crop_composition", t.CropComposition},
		{"plant_height", t.PlantHeight},
		{"exg", t.Exg},
	}
}

// Sanitize replaces NaN and infinite floats with nil
func (t *MeasurementTraits) Sanitize() {
	for _, f := range []**float64{
		&t.Biomass, &t.CanopyDensity, &t.YieldPerPlant, &t.CumYieldPerPlant,
		&t.Class1, &t.LengthOfCropping, &t.PetioleLength, &t.PetioleStrength,
		&t.PetioleRadius, &t.TrussLength, &t.TrussStrength, &t.TrussRadius,
		&t.CropComposition, &t.PlantHeight, &t.Exg,
	} {
		*f = finiteOrNil(*f)
	}
}

// Apply copies every non-nil field of patch onto t
func (t *MeasurementTraits) Apply(patch MeasurementTraits) {
	applyString(&t.Variety, patch.Variety)
	applyFloat(&t.Biomass, patch.Biomass)
	applyFloat(&t.CanopyDensity, patch.CanopyDensity)
	applyInt(&t.PartRipe, patch.PartRipe)
	applyInt(&t.Unripe, patch.Unripe)
	applyInt(&t.Flower, patch.Flower)
	applyFloat(&t.YieldPerPlant, patch.YieldPerPlant)
	applyFloat(&t.CumYieldPerPlant, patch.CumYieldPerPlant)
	applyFloat(&t.Class1, patch.Class1)
	applyFloat(&t.LengthOfCropping, patch.LengthOfCropping)
	applyString(&t.Field, patch.Field)
	applyFloat(&t.PetioleLength, patch.PetioleLength)
	applyFloat(&t.PetioleStrength, patch.PetioleStrength)
	applyFloat(&t.PetioleRadius, patch.PetioleRadius)
	applyFloat(&t.TrussLength, patch.TrussLength)
	applyFloat(&t.TrussStrength, patch.TrussStrength)
	applyFloat(&t.TrussRadius, patch.TrussRadius)
	applyString(&t.GrowthHabit, patch.GrowthHabit)
	applyString(&t.FruitShape, patch.FruitShape)
	applyFloat(&t.CropComposition, patch.CropComposition)
	applyFloat(&t.PlantHeight, patch.PlantHeight)
	applyFloat(&t.Exg, patch.Exg)
}

// PlantMeasurement is one dated observation of a plant; (plant_id, date) is its natural key.
// Ripe always equals len(Fruits) after a write that touches fruits.
type PlantMeasurement struct {
	ID                uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	PlantID           uint           `json:"plant_id" gorm:"not null;uniqueIndex:uix_plant_date,priority:1;index:idx_measurements_plant_id"`
	Date              datatypes.Date `json:"date" gorm:"not null;uniqueIndex:uix_plant_date,priority:2;index:idx_measurements_date"`
	MeasurementTraits `gorm:"embedded"`
	Ripe              int       `json:"ripe" gorm:"not null;default:0"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	Plant  Plant        `json:"plant" gorm:"foreignKey:PlantID"`
	Fruits []PlantFruit `json:"fruits" gorm:"foreignKey:MeasurementID;constraint:OnDelete:CASCADE"`
}

// FruitValues are the measured dimensions of one fruit sample
type FruitValues struct {
	Width  *float64 `json:"width"`
	Height *float64 `json:"height"`
	Mass   *float64 `json:"mass"`
}

// Sanitize replaces NaN and infinite values with nil
func (f *FruitValues) Sanitize() {
	f.Width = finiteOrNil(f.Width)
	f.Height = finiteOrNil(f.Height)
	f.Mass = finiteOrNil(f.Mass)
}

// PlantFruit is one fruit sample attached to a measurement
type PlantFruit struct {
	ID            uint `json:"id" gorm:"primaryKey;autoIncrement"`
	MeasurementID uint `json:"measurement_id" gorm:"not null;index:idx_fruits_measurement_id"`
	FruitValues   `gorm:"embedded"`
}

// FruitValuesOf strips identifiers from stored fruits
func FruitValuesOf(fruits []PlantFruit) []FruitValues {
	out := make([]FruitValues, 0, len(fruits))
	for _, f := range fruits {
		out = append(out, f.FruitValues)
	}
	return out
}

func intAsFloat(v *int) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

func finiteOrNil(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}

func applyFloat(dst **float64, v *float64) {
	if v != nil {
		*dst = v
	}
}

func applyInt(dst **int, v *int) {
	if v != nil {
		*dst = v
	}
}

func applyString(dst **string, v *string) {
	if v != nil {
		*dst = v
	}
}
