package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Producto is a catalog entry. PrecioPuntos is the price expressed in loyalty points.
type Producto struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name         string          `gorm:"index;not null"`
	Price        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Points       int             `gorm:"not null;default:0"`
	PrecioPuntos *int
	ImageURL     *string
	Description  *string
	Category     *string `gorm:"index"`
	SubCategory  *string
	CreatedAt    time.Time
}

func (Producto) TableName() string { return "products" }

func (p *Producto) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
