package services

import (
	"errors"
	"testing"

	"github.com/autotraits-be/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMeasurementAcceptsAbsentAndNonNegative(t *testing.T) {
	traits := models.MeasurementTraits{
		PartRipe:    ptr(0),
		Biomass:     ptr(12.5),
		PlantHeight: nil,
	}
	fruits := []models.FruitValues{
		{Width: ptr(1.0), Height: nil, Mass: ptr(0.0)},
		{},
	}
	assert.NoError(t, ValidateMeasurement(traits.NumericFields(), fruits))
}

func TestValidateMeasurementRejectsNegativeField(t *testing.T) {
	traits := models.MeasurementTraits{
		Unripe:      ptr(-1),
		PlantHeight: ptr(-3.0),
	}
	err := ValidateMeasurement(traits.NumericFields(), nil)
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "unripe", verr.Field)
	assert.Equal(t, -1, verr.FruitIndex)
	assert.Equal(t, "unripe must be non-negative", verr.Message)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestValidateMeasurementRejectsNegativeFruit(t *testing.T) {
	fruits := []models.FruitValues{
		{Width: ptr(1.0), Height: ptr(2.0), Mass: ptr(3.0)},
		{Width: ptr(1.0), Height: ptr(2.0), Mass: ptr(-0.5)},
	}
	err := ValidateMeasurement(models.MeasurementTraits{}.NumericFields(), fruits)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, 1, verr.FruitIndex)
	assert.Equal(t, "mass", verr.Field)
	assert.Equal(t, "Fruit 1 mass must be non-negative", verr.Message)
}

func TestValidateMeasurementFieldsBeforeFruits(t *testing.T) {
	traits := models.MeasurementTraits{Exg: ptr(-1.0)}
	fruits := []models.FruitValues{{Width: ptr(-1.0)}}

	var verr *ValidationError
	require.ErrorAs(t, ValidateMeasurement(traits.NumericFields(), fruits), &verr)
	assert.Equal(t, "exg", verr.Field)
}
