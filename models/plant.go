package models

// Plant belongs to exactly one breeder; plant_code is unique per breeder
type Plant struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	BreederID uint   `json:"breeder_id" gorm:"not null;uniqueIndex:uix_breeder_plant,priority:1;index:idx_plants_breeder_id"`
	PlantCode string `json:"plant_code" gorm:"not null;uniqueIndex:uix_breeder_plant,priority:2"`

	// Relations
	Breeder      Breeder            `json:"-" gorm:"foreignKey:BreederID"`
	Measurements []PlantMeasurement `json:"-" gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`
	Files        []PlantFile        `json:"-" gorm:"foreignKey:PlantID;constraint:OnDelete:CASCADE"`
}
