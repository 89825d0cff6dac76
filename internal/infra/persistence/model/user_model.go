// Package model contains the GORM persistence models mirroring the schema.
package model

import (
	"time"

	"github.com/google/uuid"
)

// UserModel mirrors the 'users' table. PostgreSQL generates UUIDs via uuid_generate_v7().
type UserModel struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;default:uuid_generate_v7()"`
	Email        string    `gorm:"type:varchar(255);unique;not null"`
	PasswordHash string    `gorm:"type:varchar(255)"`
	FirstName    string    `gorm:"type:varchar(100);not null"`
	LastName     string    `gorm:"type:varchar(100);not null"`
	PhoneNumber  string    `gorm:"type:varchar(32)"`

	EmailVerified bool `gorm:"not null;default:false"`
	AccountLocked bool `gorm:"not null;default:false"`
	Enabled       bool `gorm:"not null;default:true"`

	FailedLoginAttempts int    `gorm:"not null;default:0"`
	Provider            string `gorm:"type:varchar(32);not null;default:'LOCAL'"`
	ProviderID          string `gorm:"type:varchar(255)"`

	Roles []RoleModel `gorm:"many2many:user_roles;joinForeignKey:UserID;joinReferences:RoleID"`

	LastLogin *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// RoleModel mirrors the 'roles' table.
type RoleModel struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	Name        string `gorm:"type:varchar(32);unique;not null"`
	Description string `gorm:"type:varchar(255)"`
}

// TableName explicitly sets the table name for GORM.
func (RoleModel) TableName() string {
	return "roles"
}
