package models

import (
	"time"
)

// FavoriteStreamer is an operator-pinned streamer. It carries enough
// denormalized data (owner address, name, type) to stay usable when the
// live Streamer row is stale or gone; it is never cascaded from
// compute unit or streamer deletion.
type FavoriteStreamer struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	StreamerUUID       string    `json:"streamer_uuid" gorm:"uniqueIndex;not null"`
	StreamerHrName     string    `json:"streamer_hr_name" gorm:"not null"`
	StreamerType       string    `json:"streamer_type" gorm:"not null"`
	ConfigTemplateName string    `json:"config_template_name"`
	ComputeUnitIP      string    `json:"compute_unit_ip" gorm:"not null"`
	IsAlive            string    `json:"is_alive" gorm:"default:false"`
	IPAddress          string    `json:"ip_address"`
	AddedAt            time.Time `json:"added_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
