package services

import (
	"strings"
	"testing"

	"github.com/autotraits-be/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportDate(t *testing.T) {
	for _, raw := range []string{"20250506", "20250506.0", "2025-05-06", "06/05/2025", " 2025-05-06 "} {
		d, err := parseImportDate(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, "2025-05-06", models.FormatDate(d), raw)
	}
	for _, raw := range []string{"", "2025/05/06", "May 6", "20251306"} {
		_, err := parseImportDate(raw)
		assert.Error(t, err, raw)
	}
}

func TestParseFloatList(t *testing.T) {
	got := parseFloatList("[1.5, nan, 2, -Infinity, None]")
	require.Len(t, got, 5)
	assert.Equal(t, 1.5, *got[0])
	assert.Nil(t, got[1])
	assert.Equal(t, 2.0, *got[2])
	assert.Nil(t, got[3])
	assert.Nil(t, got[4])

	assert.Empty(t, parseFloatList(""))
	assert.Empty(t, parseFloatList("nan"))
	assert.Empty(t, parseFloatList("[]"))
	assert.Empty(t, parseFloatList("not a list"))
}

func TestParseInteger(t *testing.T) {
	n, err := parseInteger("6.0")
	require.NoError(t, err)
	assert.Equal(t, 6, *n)

	_, err = parseInteger("6.5")
	assert.Error(t, err)

	n, err = parseInteger("nan")
	require.NoError(t, err)
	assert.Nil(t, n)
}

func importRows(t *testing.T, csv string) []Row {
	t.Helper()
	rows, err := ReadCSV(strings.NewReader(csv), DefaultColumns.Measurement)
	require.NoError(t, err)
	return rows
}

func TestImportInsertsAndCreatesPlants(t *testing.T) {
	db := setupDB(t)
	breeder := seedBreeder(t, db, "Fresh Forward")
	seedPlant(t, db, breeder.ID, "AA11")
	svc := NewImportService(NewMeasurementService())

	rows := importRows(t, "ID,Date,Variety,Unripe,Fruit-width,Fruit-height,Mass,Ripe,field\n"+
		"AA11,20250506,Falco,6,\"[30.1, 28.4]\",\"[35, 33]\",\"[12, nan]\",99,A\n"+
		"BB22,2025-05-06,Malling,,[],[],[],,\n")

	result := svc.Import(rows, breeder.ID)
	require.Empty(t, result.Errors)
	assert.Equal(t, 2, result.Inserted)
	assert.Equal(t, 0, result.Updated)

	var plants []models.Plant
	require.NoError(t, db.Order("plant_code").Find(&plants).Error)
	require.Len(t, plants, 2)
	assert.Equal(t, "BB22", plants[1].PlantCode)
	assert.Equal(t, breeder.ID, plants[1].BreederID)

	var m models.PlantMeasurement
	require.NoError(t, db.Preload("Fruits").Where("plant_id = ?", plants[0].ID).First(&m).Error)
	assert.Equal(t, 2, m.Ripe, "ripe comes from the fruit lists, not the Ripe column")
	assert.Equal(t, "Falco", *m.Variety)
	assert.Equal(t, 6, *m.Unripe)
	assert.Equal(t, "A", *m.Field)
	require.Len(t, m.Fruits, 2)
	assert.Nil(t, m.Fruits[1].Mass)
}

func TestImportIsIdempotent(t *testing.T) {
	db := setupDB(t)
	breeder := seedBreeder(t, db, "Fresh Forward")
	svc := NewImportService(NewMeasurementService())

	csv := "plant_code,date,unripe,fruit_width,fruit_height,mass\n" +
		"AA11,20250506,1,[1],[2],[3]\n" +
		"AA11,20250513,2,\"[1, 1]\",\"[2, 2]\",\"[3, 3]\"\n"

	first := svc.Import(importRows(t, csv), breeder.ID)
	require.Empty(t, first.Errors)
	assert.Equal(t, 2, first.Inserted)

	second := svc.Import(importRows(t, csv), breeder.ID)
	require.Empty(t, second.Errors)
	assert.Equal(t, 0, second.Inserted)
	assert.Equal(t, 2, second.Updated)

	assert.Equal(t, int64(1), countRows(t, db, &models.Plant{}))
	assert.Equal(t, int64(2), countRows(t, db, &models.PlantMeasurement{}))
	assert.Equal(t, int64(3), countRows(t, db, &models.PlantFruit{}))
}

func TestImportLastDuplicateRowWins(t *testing.T) {
	db := setupDB(t)
	breeder := seedBreeder(t, db, "Fresh Forward")
	svc := NewImportService(NewMeasurementService())

	result := svc.Import(importRows(t, "plant_code,date,flower\nAA11,20250506,1\nAA11,2025-05-06,7\n"), breeder.ID)
	require.Empty(t, result.Errors)
	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Updated)

	var m models.PlantMeasurement
	require.NoError(t, db.First(&m).Error)
	assert.Equal(t, 7, *m.Flower)
}

func TestImportIsolatesRowErrors(t *testing.T) {
	db := setupDB(t)
	breeder := seedBreeder(t, db, "Fresh Forward")
	svc := NewImportService(NewMeasurementService())

	rows := importRows(t, "plant_code,date,unripe,fruit_width,fruit_height,mass\n"+
		"AA11,20250506,1,\"[1, 2]\",[2],\"[3, 4]\"\n"+
		"BB22,not-a-date,1,[],[],[]\n"+
		"CC33,20250506,-4,[],[],[]\n"+
		"DD44,20250506,2,[1],[1],[-1]\n"+
		"EE55,20250506,2,[1],[1],[1]\n")

	result := svc.Import(rows, breeder.ID)
	assert.Equal(t, 1, result.Inserted)
	require.Len(t, result.Errors, 4)

	assert.Equal(t, 0, result.Errors[0].Row)
	assert.Equal(t, "fruit_width, fruit_height, and mass must have the same length at row 0", result.Errors[0].Error)
	assert.Equal(t, 1, result.Errors[1].Row)
	assert.Equal(t, "Invalid date format at row 1: not-a-date", result.Errors[1].Error)
	assert.Equal(t, 2, result.Errors[2].Row)
	assert.Equal(t, "unripe must be non-negative", result.Errors[2].Error)
	assert.Equal(t, 3, result.Errors[3].Row)
	assert.Equal(t, "Fruit 0 mass must be non-negative", result.Errors[3].Error)

	// Failed rows leave neither plants nor measurements behind
	var codes []string
	require.NoError(t, db.Model(&models.Plant{}).Order("plant_code").Pluck("plant_code", &codes).Error)
	assert.Equal(t, []string{"EE55"}, codes)
	assert.Equal(t, int64(1), countRows(t, db, &models.PlantMeasurement{}))
}

func TestImportRejectsNonIntegerCounts(t *testing.T) {
	db := setupDB(t)
	breeder := seedBreeder(t, db, "Fresh Forward")
	svc := NewImportService(NewMeasurementService())

	result := svc.Import(importRows(t, "plant_code,date,part_ripe\nAA11,20250506,2.5\n"), breeder.ID)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0].Error, "part_ripe must be an integer at row 0")
}
