package models

import (
	"time"
)

// Streamer status values, derived from the owning unit's most recent
// reconciliation pass.
const (
	StreamerStatusActive   = "active"
	StreamerStatusInactive = "inactive"
)

// Streamer is a camera or other data source exposed by a compute
// unit. The UUID is assigned by the device and is globally unique, so
// a streamer reported by a different unit migrates to that unit on the
// next sync.
type Streamer struct {
	ID                 uint       `json:"id" gorm:"primaryKey"`
	StreamerUUID       string     `json:"streamer_uuid" gorm:"uniqueIndex;not null"`
	StreamerType       string     `json:"streamer_type" gorm:"not null"` // camera, io, etc.
	StreamerHrName     string     `json:"streamer_hr_name" gorm:"not null"`
	ConfigTemplateName string     `json:"config_template_name"`
	IsAlive            string     `json:"is_alive" gorm:"default:false"` // wire boolean, stored raw
	Status             string     `json:"status" gorm:"default:inactive"`
	ComputeUnitID      *uint      `json:"compute_unit_id,omitempty" gorm:"index"`
	IPAddress          string     `json:"ip_address"`
	Features           []string   `json:"features" gorm:"serializer:json"`
	LastSeen           *time.Time `json:"last_seen,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}
