package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CierreCaja is the daily cash register reconciliation.
// Fecha carries a unique index: at most one closing per business date, enforced by the store.
// Maquina2/Maquina3 are nullable; absent terminals are NOT stored as zero.
type CierreCaja struct {
	ID                   uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Fecha                string           `gorm:"type:varchar(10);not null;uniqueIndex:uni_cierres_caja_fecha"`
	TotalEfectivo        decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	TotalMaquinas        decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Maquina1             decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Maquina2             *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Maquina3             *decimal.Decimal `gorm:"type:decimal(12,2)"`
	SalidasEfectivo      decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	IngresosEfectivo     decimal.Decimal  `gorm:"type:decimal(12,2);not null"`
	Observacion          *string
	TotalPagosTarjetaWeb decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	UsuarioID            uuid.UUID       `gorm:"type:uuid;index;not null"`
	CreatedAt            time.Time
}

func (CierreCaja) TableName() string { return "cierres_caja" }

func (c *CierreCaja) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
