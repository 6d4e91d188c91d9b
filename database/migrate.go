package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/autotraits-be/models"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Models lists every table in migration order
func Models() []interface{} {
	return []interface{}{
		&models.Breeder{},
		&models.User{},
		&models.Plant{},
		&models.PlantMeasurement{},
		&models.PlantFruit{},
		&models.PlantFile{},
	}
}

// Migrate migrates the database schema
func Migrate(db *gorm.DB) error {
	zap.L().Info("migrating database schema")
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	zap.L().Info("database schema migrated")
	return nil
}

// IsUniqueViolation reports whether err came from a unique constraint
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
