package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Record is one saved aggregate of COVID statistics and travel advisory
// data for a country. The covid/travel payloads are stored verbatim.
type Record struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	Country     string         `gorm:"size:255;not null" json:"country"`
	Timestamp   time.Time      `gorm:"not null;index" json:"timestamp"`
	Covid       datatypes.JSON `gorm:"not null" json:"covid"`
	Travel      datatypes.JSON `gorm:"not null" json:"travel"`
	Raw         datatypes.JSON `json:"raw,omitempty"`
	DateFetched time.Time      `json:"date_fetched"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
