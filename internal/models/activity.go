package models

import (
	"time"

	"gorm.io/datatypes"
)

// ActivityLog captures auditable roster changes made by teachers or operators.
type ActivityLog struct {
	ID         uint              `gorm:"primaryKey" json:"id"`
	ActorName  string            `gorm:"size:128;not null" json:"actor_name"`
	ActorRole  string            `gorm:"size:32;not null" json:"actor_role"`
	Action     string            `gorm:"size:64;not null;index" json:"action"`
	EntityType string            `gorm:"size:64;not null" json:"entity_type"`
	EntityKey  string            `gorm:"size:255" json:"entity_key"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt  time.Time         `json:"created_at"`
}
