package models

import (
	"time"

	"gorm.io/datatypes"
)

// Template is a stored prompt template. Variables holds the placeholder
// names extracted from Body at the time of the last save and is never
// edited directly. UsageCount only ever increases.
type Template struct {
	ID          uint                        `gorm:"primarykey" json:"id"`
	Name        string                      `gorm:"index;not null" json:"name"`
	Description string                      `json:"description"`
	Body        string                      `gorm:"type:text;not null" json:"body"`
	Category    string                      `gorm:"index;not null;default:'General'" json:"category"`
	Tags        datatypes.JSONSlice[string] `json:"tags"`
	Variables   datatypes.JSONSlice[string] `json:"variables"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
	UsageCount  int64                       `gorm:"not null;default:0" json:"usage_count"`
}
