package models

import "time"

// ConnectionRecord tracks one live push channel for a user. A user may hold
// several simultaneous records (multi-device). Disconnect flips IsConnected
// to false and keeps the record for last-seen auditability; a later connect
// with the same address starts a fresh lifecycle instance.
type ConnectionRecord struct {
	UserID         string    `json:"user_id"`
	ChannelAddress string    `json:"channel_address"`
	IsConnected    bool      `json:"is_connected"`
	LastSeen       time.Time `json:"last_seen"`
}
