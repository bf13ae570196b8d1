package models

import "time"

// EventType names an entry in the dead man's switch audit log.
type EventType string

const (
	EventWarningSent    EventType = "warning_sent"
	EventAssetsReleased EventType = "assets_released"
	EventHeartbeat      EventType = "heartbeat_confirmed"
)

// DeadManSwitchEvent is an append-only audit record. CreatedAt of the latest
// warning_sent event is the start of the grace period.
type DeadManSwitchEvent struct {
	ID        int64
	VaultID   string
	Type      EventType
	Details   string
	CreatedAt time.Time
}
