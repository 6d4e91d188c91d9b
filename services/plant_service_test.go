package services

import (
	"testing"

	"github.com/autotraits-be/dto"
	"github.com/autotraits-be/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePlant(t *testing.T) {
	db := setupDB(t)
	a := seedBreeder(t, db, "Fresh Forward")
	b := seedBreeder(t, db, "Berry Lab")
	svc := NewPlantService()

	plant, err := svc.Create(" AB34 ", a.ID)
	require.NoError(t, err)
	assert.Equal(t, "AB34", plant.PlantCode)
	assert.NotZero(t, plant.ID)

	_, err = svc.Create("AB34", a.ID)
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualError(t, err, "Plant code AB34 already exists")

	// codes are unique per breeder only
	_, err = svc.Create("AB34", b.ID)
	assert.NoError(t, err)

	_, err = svc.Create("   ", a.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEnsurePlantReusesExisting(t *testing.T) {
	db := setupDB(t)
	breeder := seedBreeder(t, db, "Fresh Forward")
	existing := seedPlant(t, db, breeder.ID, "AB34")
	svc := NewPlantService()

	plant, created, err := svc.EnsurePlant("AB34", breeder.ID)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, existing.ID, plant.ID)

	plant, created, err = svc.EnsurePlant("CD56", breeder.ID)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "CD56", plant.PlantCode)
	assert.Equal(t, int64(2), countRows(t, db, &models.Plant{}))
}

func TestRenamePlant(t *testing.T) {
	db := setupDB(t)
	a := seedBreeder(t, db, "Fresh Forward")
	b := seedBreeder(t, db, "Berry Lab")
	first := seedPlant(t, db, a.ID, "AB34")
	seedPlant(t, db, a.ID, "CD56")
	svc := NewPlantService()

	renamed, err := svc.Rename(first.ID, "EF78", &a.ID)
	require.NoError(t, err)
	assert.Equal(t, "EF78", renamed.PlantCode)

	// keeping its own code is not a conflict
	_, err = svc.Rename(first.ID, "EF78", &a.ID)
	assert.NoError(t, err)

	_, err = svc.Rename(first.ID, "CD56", &a.ID)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = svc.Rename(first.ID, "GH90", &b.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	stored, err := svc.Get(first.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, "EF78", stored.PlantCode)
}

func TestDeletePlantCascades(t *testing.T) {
	db := setupDB(t)
	breeder := seedBreeder(t, db, "Fresh Forward")
	plant := seedPlant(t, db, breeder.ID, "AB34")
	other := seedPlant(t, db, breeder.ID, "CD56")
	measurements := NewMeasurementService()
	svc := NewPlantService()

	for _, p := range []models.Plant{plant, other} {
		_, err := measurements.Create(dto.CreateMeasurementRequest{
			PlantID: p.ID,
			Date:    "2025-05-06",
			Fruits:  []models.FruitValues{fruit(30, 35, 12)},
		}, breeder.ID)
		require.NoError(t, err)
	}
	file := models.PlantFile{
		PlantID:  plant.ID,
		FilePath: "a.png",
		FileType: models.FileTypeTwoD,
		Status:   models.FileStatusCompleted,
	}
	require.NoError(t, db.Omit("Plant").Create(&file).Error)

	require.NoError(t, svc.Delete(plant.ID, &breeder.ID))

	assert.Equal(t, int64(1), countRows(t, db, &models.Plant{}))
	assert.Equal(t, int64(1), countRows(t, db, &models.PlantMeasurement{}))
	assert.Equal(t, int64(1), countRows(t, db, &models.PlantFruit{}))
	assert.Equal(t, int64(0), countRows(t, db, &models.PlantFile{}))

	err := svc.Delete(plant.ID, &breeder.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListPlants(t *testing.T) {
	db := setupDB(t)
	a := seedBreeder(t, db, "Fresh Forward")
	b := seedBreeder(t, db, "Berry Lab")
	for _, code := range []string{"CC03", "AA01", "BB02"} {
		seedPlant(t, db, a.ID, code)
	}
	seedPlant(t, db, b.ID, "AA09")
	svc := NewPlantService()

	page, err := svc.List(dto.PlantFilter{PageRequest: dto.PageRequest{Offset: 1, Limit: 1}}, &a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "BB02", page.Items[0].PlantCode)

	page, err = svc.List(dto.PlantFilter{PageRequest: dto.PageRequest{Limit: 10}, Search: "AA"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "AA01", page.Items[0].PlantCode)
	assert.Equal(t, "AA09", page.Items[1].PlantCode)
}
