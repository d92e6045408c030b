package models

import "time"

// KeyValueEntry stores one opaque value under a string key in SQL backends.
type KeyValueEntry struct {
	Key       string    `gorm:"primaryKey;size:191" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name for all SQL dialects.
func (KeyValueEntry) TableName() string {
	return "key_value_entries"
}
