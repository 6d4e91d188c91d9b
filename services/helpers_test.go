package services

import (
	"testing"

	"github.com/autotraits-be/database/dbtest"
	"github.com/autotraits-be/models"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func ptr[T any](v T) *T { return &v }

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	return dbtest.Open(t)
}

func seedBreeder(t *testing.T, db *gorm.DB, name string) models.Breeder {
	t.Helper()
	breeder := models.Breeder{Name: name}
	require.NoError(t, db.Create(&breeder).Error)
	return breeder
}

func seedPlant(t *testing.T, db *gorm.DB, breederID uint, code string) models.Plant {
	t.Helper()
	plant := models.Plant{BreederID: breederID, PlantCode: code}
	require.NoError(t, db.Omit("Breeder", "Measurements", "Files").Create(&plant).Error)
	return plant
}

func countRows(t *testing.T, db *gorm.DB, model interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}
