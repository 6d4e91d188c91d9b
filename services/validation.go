package services

import (
	"fmt"

	"github.com/autotraits-be/models"
)

// ValidateMeasurement enforces the sign constraint: every present numeric
// field and fruit dimension must be non-negative. Absent values always pass.
func ValidateMeasurement(fields []models.NumericField, fruits []models.FruitValues) error {
	for _, f := range fields {
		if f.Value != nil && *f.Value < 0 {
			return &ValidationError{
				Field:      f.Name,
				FruitIndex: -1,
				Message:    fmt.Sprintf("%s must be non-negative", f.Name),
			}
		}
	}
	for i, fruit := range fruits {
		for _, f := range []models.NumericField{
			{Name: "width", Value: fruit.Width},
			{Name: "height", Value: fruit.Height},
			{Name: "mass", Value: fruit.Mass},
		} {
			if f.Value != nil && *f.Value < 0 {
				return &ValidationError{
					Field:      f.Name,
					FruitIndex: i,
					Message:    fmt.Sprintf("Fruit %d %s must be non-negative", i, f.Name),
				}
			}
		}
	}
	return nil
}
