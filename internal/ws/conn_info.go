package ws

import "time"

// ConnInfo describes the client side of a push session.
type ConnInfo struct {
	ConnID      string
	DeviceID    string
	IP          string
	UserAgent   string
	RequestID   string
	TraceID     string
	ConnectedAt time.Time
}
