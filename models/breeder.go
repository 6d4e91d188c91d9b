package models

import "time"

// Breeder is the tenant root; it owns users and plants
type Breeder struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Users  []User  `json:"-" gorm:"foreignKey:BreederID"`
	Plants []Plant `json:"-" gorm:"foreignKey:BreederID"`
}
