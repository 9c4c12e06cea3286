package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles stored in profiles.role.
const (
	RolUsuario = "user"
	RolAdmin   = "admin"
)

// Usuario is the identity record. Password hashes never leave the repository layer.
type Usuario struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	Username     string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time

	Perfil *Perfil `gorm:"foreignKey:ID;references:ID"`
}

func (Usuario) TableName() string { return "users" }

func (u *Usuario) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Perfil shares its primary key with Usuario (1:1).
// Rol: "user" | "admin"
type Perfil struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username  string    `gorm:"not null"`
	Rut       string    `gorm:"type:varchar(20);not null"`
	Rol       string    `gorm:"column:role;type:varchar(10);not null;default:'user'"`
	Puntos    int       `gorm:"not null;default:0;check:puntos >= 0"`
	AvatarURL *string
	CreatedAt time.Time
}

func (Perfil) TableName() string { return "profiles" }

// RefreshToken is an opaque, revocable credential. Expired rows are reaped by the token worker.
type RefreshToken struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Token     string    `gorm:"type:varchar(128);uniqueIndex;not null"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"`
	ExpiresAt time.Time `gorm:"not null;index"`
	CreatedAt time.Time

	Usuario *Usuario `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (RefreshToken) TableName() string { return "refresh_tokens" }

func (t *RefreshToken) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the token is no longer usable at instant now.
func (t *RefreshToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
