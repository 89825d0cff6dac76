package model

import (
	"time"

	"github.com/google/uuid"
)

// VerificationTokenModel mirrors the 'verification_tokens' table.
type VerificationTokenModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;index"`
	Token     string    `gorm:"type:varchar(64);unique;not null"`
	ExpiresAt time.Time `gorm:"not null"`
	Used      bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (VerificationTokenModel) TableName() string {
	return "verification_tokens"
}
