package model

import (
	"encoding/json"
	"time"
)

// ButtonStat is a row of `button_stats` joined with the button name.
type ButtonStat struct {
	ButtonID   uint64     `json:"button_id"`
	Name       string     `json:"name"`
	PlayCount  int64      `json:"play_count"`
	LastPlayed *time.Time `json:"last_played"`
}

// AuditEntry is a row of `audit_log`, written by the event consumer.
type AuditEntry struct {
	ID        uint64          `json:"id"`
	UserID    *uint64         `json:"user_id"`
	Username  string          `json:"username"`
	Action    string          `json:"action"`
	IPAddress string          `json:"ip_address"`
	UserAgent string          `json:"user_agent"`
	Details   json.RawMessage `json:"details"`
	CreatedAt time.Time       `json:"created_at"`
}
