package domain

import "time"

// User represents an application user stored in the database. The registry
// exists for operator bookkeeping; the conversation itself lives in Redis.
type User struct {
	ID           int64
	TelegramID   int64
	FirstName    string
	LastName     string
	Username     string
	LastActiveAt time.Time
	CreatedAt    time.Time
}
