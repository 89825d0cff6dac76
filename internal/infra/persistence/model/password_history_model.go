package model

import (
	"time"

	"github.com/google/uuid"
)

// PasswordHistoryModel mirrors the 'password_history' table. Rows beyond the
// configured retention count are pruned after every password change.
type PasswordHistoryModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index"`
	PasswordHash string    `gorm:"type:varchar(255);not null"`
	CreatedByIP  string    `gorm:"type:varchar(64)"`
	UserAgent    string    `gorm:"type:varchar(255)"`
	CreatedAt    time.Time `gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (PasswordHistoryModel) TableName() string {
	return "password_history"
}
