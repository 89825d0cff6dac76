package entity

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHistory records a previously used password hash so the policy
// engine can refuse reuse. Only the most recent entries are retained.
type PasswordHistory struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	PasswordHash string
	CreatedByIP  string // Client IP at the time of the change, for audit.
	UserAgent    string
	CreatedAt    time.Time
}
