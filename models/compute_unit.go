package models

import (
	"time"
)

// Compute unit status values. A unit is flipped between these only by
// the sync service, never directly by an operator request.
const (
	UnitStatusOnline  = "online"
	UnitStatusOffline = "offline"
)

// ComputeUnit is a managed edge device running its own AI service.
type ComputeUnit struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Name      string     `json:"name" gorm:"not null"`
	IPAddress string     `json:"ip_address" gorm:"uniqueIndex;not null"`
	Status    string     `json:"status" gorm:"default:offline"` // online, offline
	LastSeen  *time.Time `json:"last_seen,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`

	Streamers []Streamer `json:"streamers,omitempty" gorm:"foreignKey:ComputeUnitID"`
}
