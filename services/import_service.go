package services

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/lib/metrics"
	"github.com/autotraits-be/models"
	"github.com/autotraits-be/repositories"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type columnKind int

const (
	textColumn columnKind = iota
	integerColumn
	decimalColumn
)

// traitColumn binds an import column to a measurement trait
type traitColumn struct {
	name    string
	kind    columnKind
	text    func(t *models.MeasurementTraits, v *string)
	integer func(t *models.MeasurementTraits, v *int)
	decimal func(t *models.MeasurementTraits, v *float64)
}

var traitColumns = []traitColumn{
	{name: "variety", kind: textColumn, text: func(t *models.MeasurementTraits, v *string) { t.Variety = v }},
	{name: "biomass", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.Biomass = v }},
	{name: "canopy_density", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.CanopyDensity = v }},
	{name: "part_ripe", kind: integerColumn, integer: func(t *models.MeasurementTraits, v *int) { t.PartRipe = v }},
	{name: "unripe", kind: integerColumn, integer: func(t *models.MeasurementTraits, v *int) { t.Unripe = v }},
	{name: "flower", kind: integerColumn, integer: func(t *models.MeasurementTraits, v *int) { t.Flower = v }},
	{name: "yield_per_plant", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.YieldPerPlant = v }},
	{name: "cum_yield_per_plant", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.CumYieldPerPlant = v }},
	{name: "class_1", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.Class1 = v }},
	{name: "length_of_cropping", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.LengthOfCropping = v }},
	{name: "field", kind: textColumn, text: func(t *models.MeasurementTraits, v *string) { t.Field = v }},
	{name: "petiole_length", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.PetioleLength = v }},
	{name: "petiole_strength", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.PetioleStrength = v }},
	{name: "petiole_radius", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.PetioleRadius = v }},
	{name: "truss_length", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.TrussLength = v }},
	{name: "truss_strength", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.TrussStrength = v }},
	{name: "truss_radius", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.TrussRadius = v }},
	{name: "growth_habit", kind: textColumn, text: func(t *models.MeasurementTraits, v *string) { t.GrowthHabit = v }},
	{name: "fruit_shape", kind: textColumn, text: func(t *models.MeasurementTraits, v *string) { t.FruitShape = v }},
	{name: "crop_composition", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.CropComposition = v }},
	{name: "plant_height", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.PlantHeight = v }},
	{name: "exg", kind: decimalColumn, decimal: func(t *models.MeasurementTraits, v *float64) { t.Exg = v }},
}

// Fruit list columns, zipped positionally into fruit records
const (
	fruitWidthColumn  = "fruit_width"
	fruitHeightColumn = "fruit_height"
	fruitMassColumn   = "mass"
)

// TemplateHeader is the column order of the downloadable import template
var TemplateHeader = []string{
	"plant_code", "date", "variety", "biomass", "canopy_density",
	"part_ripe", "unripe", "flower", "fruit_width", "fruit_height", "mass",
	"yield_per_plant", "cum_yield_per_plant", "class_1", "length_of_cropping",
	"field", "petiole_length", "petiole_strength", "petiole_radius",
	"truss_length", "truss_strength", "truss_radius", "growth_habit",
	"fruit_shape", "crop_composition", "plant_height", "exg",
}

// TemplateSample is an example row matching TemplateHeader
var TemplateSample = []string{
	"AA11", "20250506", "Falco", "", "",
	"0", "6", "4", "[]", "[]", "[]",
	"0", "", "", "",
	"A", "", "", "",
	"", "", "", "",
	"", "0", "27.09", "39.499",
}

var (
	nullTokens = map[string]bool{
		"": true, "nan": true, "none": true, "null": true, "na": true, "n/a": true,
		"inf": true, "-inf": true, "+inf": true, "infinity": true, "-infinity": true, "+infinity": true,
	}
	listNullPattern = regexp.MustCompile(`(?i)[-+]?\b(?:nan|none|infinity|inf)\b`)
	importDateFormats = []string{"2006-01-02", "02/01/2006"}
)

// ImportService runs the row-isolated bulk measurement import
type ImportService struct {
	plantRepo    *repositories.PlantRepository
	measurements *MeasurementService
}

// NewImportService creates a new import service on top of the measurement write path
func NewImportService(measurements *MeasurementService) *ImportService {
	return &ImportService{
		plantRepo:    repositories.NewPlantRepository(),
		measurements: measurements,
	}
}

// Import upserts every row for breederID. Rows are processed in order; a
// failing row is recorded and leaves nothing behind, and later rows still run.
func (s *ImportService) Import(rows []Row, breederID uint) dto.ImportResult {
	result := dto.ImportResult{Errors: []dto.ImportRowError{}}
	started := time.Now()

	for idx, row := range rows {
		created, err := s.importRow(idx, row, breederID)
		switch {
		case err != nil:
			result.Errors = append(result.Errors, dto.ImportRowError{Row: idx, Error: err.Error()})
			metrics.ImportRows.WithLabelValues("failed").Inc()
		case created:
			result.Inserted++
			metrics.ImportRows.WithLabelValues("inserted").Inc()
		default:
			result.Updated++
			metrics.ImportRows.WithLabelValues("updated").Inc()
		}
	}

	zap.L().Info("measurement import finished",
		zap.Uint("breeder_id", breederID),
		zap.Int("rows", len(rows)),
		zap.Int("inserted", result.Inserted),
		zap.Int("updated", result.Updated),
		zap.Int("failed", len(result.Errors)),
		zap.Duration("elapsed", time.Since(started)),
	)
	return result
}

func (s *ImportService) importRow(idx int, row Row, breederID uint) (created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected error at row %d: %v", idx, r)
		}
	}()

	rec, err := parseImportRow(idx, row)
	if err != nil {
		return false, err
	}

	err = s.plantRepo.DB().Transaction(func(tx *gorm.DB) error {
		plant, _, err := ensurePlantTx(s.plantRepo.WithTx(tx), rec.plantCode, breederID)
		if err != nil {
			return err
		}
		_, created, err = s.measurements.upsertTx(tx, plant.ID, rec.date, rec.traits, rec.fruits, breederID)
		return err
	})
	return created, err
}

type importRecord struct {
	plantCode string
	date      datatypes.Date
	traits    models.MeasurementTraits
	fruits    []models.FruitValues
}

func parseImportRow(idx int, row Row) (importRecord, error) {
	var rec importRecord

	widths := parseFloatList(row[fruitWidthColumn])
	heights := parseFloatList(row[fruitHeightColumn])
	masses := parseFloatList(row[fruitMassColumn])
	if len(widths) != len(heights) || len(heights) != len(masses) {
		return rec, &ValidationError{
			Field:      fruitWidthColumn,
			FruitIndex: -1,
			Message:    fmt.Sprintf("fruit_width, fruit_height, and mass must have the same length at row %d", idx),
		}
	}
	rec.fruits = make([]models.FruitValues, len(widths))
	for i := range widths {
		rec.fruits[i] = models.FruitValues{Width: widths[i], Height: heights[i], Mass: masses[i]}
	}

	rec.plantCode = strings.TrimSpace(row["plant_code"])
	if isNullToken(rec.plantCode) {
		return rec, &ValidationError{Field: "plant_code", FruitIndex: -1, Message: fmt.Sprintf("plant_code is required at row %d", idx)}
	}

	date, err := parseImportDate(row["date"])
	if err != nil {
		return rec, &ValidationError{Field: "date", FruitIndex: -1, Message: fmt.Sprintf("Invalid date format at row %d: %s", idx, row["date"])}
	}
	rec.date = date

	for _, col := range traitColumns {
		raw := strings.TrimSpace(row[col.name])
		if isNullToken(raw) {
			continue
		}
		switch col.kind {
		case textColumn:
			v := raw
			col.text(&rec.traits, &v)
		case integerColumn:
			v, err := parseInteger(raw)
			if err != nil {
				return rec, &ValidationError{Field: col.name, FruitIndex: -1, Message: fmt.Sprintf("%s must be an integer at row %d: %s", col.name, idx, raw)}
			}
			col.integer(&rec.traits, v)
		case decimalColumn:
			v, err := parseDecimal(raw)
			if err != nil {
				return rec, &ValidationError{Field: col.name, FruitIndex: -1, Message: fmt.Sprintf("%s must be a number at row %d: %s", col.name, idx, raw)}
			}
			col.decimal(&rec.traits, v)
		}
	}
	return rec, nil
}

// parseImportDate tries YYYYMMDD, then YYYY-MM-DD, then DD/MM/YYYY
func parseImportDate(raw string) (datatypes.Date, error) {
	raw = strings.TrimSpace(raw)
	// Spreadsheets may hand back 20250506 as "20250506.0"
	raw = strings.TrimSuffix(raw, ".0")
	if len(raw) == 8 && isDigits(raw) {
		t, err := time.Parse("20060102", raw)
		if err != nil {
			return datatypes.Date{}, err
		}
		return models.NewDate(t), nil
	}
	for _, layout := range importDateFormats {
		if t, err := time.Parse(layout, raw); err == nil {
			return models.NewDate(t), nil
		}
	}
	return datatypes.Date{}, fmt.Errorf("unsupported date %q", raw)
}

// parseFloatList decodes a textual list such as "[1.0, nan, 2]". Absent,
// empty or unparseable input yields an empty list.
func parseFloatList(raw string) []*float64 {
	raw = strings.TrimSpace(raw)
	if isNullToken(raw) {
		return []*float64{}
	}
	var items []interface{}
	if err := json.Unmarshal([]byte(listNullPattern.ReplaceAllString(raw, "null")), &items); err != nil {
		return []*float64{}
	}

	out := make([]*float64, 0, len(items))
	for _, item := range items {
		switch v := item.(type) {
		case nil:
			out = append(out, nil)
		case float64:
			f := v
			out = append(out, &f)
		case string:
			if isNullToken(strings.TrimSpace(v)) {
				out = append(out, nil)
				continue
			}
			f, err := parseDecimal(strings.TrimSpace(v))
			if err != nil {
				return []*float64{}
			}
			out = append(out, f)
		default:
			return []*float64{}
		}
	}
	return out
}

func parseDecimal(raw string) (*float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, nil
	}
	return &f, nil
}

func parseInteger(raw string) (*int, error) {
	f, err := parseDecimal(raw)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) || math.Abs(*f) > math.MaxInt32 {
		return nil, fmt.Errorf("not an integer: %s", raw)
	}
	n := int(*f)
	return &n, nil
}

func isNullToken(raw string) bool {
	return nullTokens[strings.ToLower(raw)]
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
