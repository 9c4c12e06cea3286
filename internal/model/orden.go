package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MetodoEfectivo is the only payment method counted as cash in a closing.
const MetodoEfectivo = "efectivo"

// Orden is a customer order. Fecha is the business date (YYYY-MM-DD) in the
// configured timezone and OrderNumber restarts every business day.
type Orden struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderNumber  int             `gorm:"not null;uniqueIndex:idx_orders_fecha_numero"`
	Fecha        string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_orders_fecha_numero;index"`
	UserID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	Total        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	MetodoPago   string          `gorm:"type:varchar(30);not null"`
	Status       string          `gorm:"type:varchar(30);not null"`
	PointsUsed   int             `gorm:"not null;default:0"`
	PointsEarned int             `gorm:"not null;default:0"`
	CreatedAt    time.Time

	Items   []OrdenItem `gorm:"foreignKey:OrderID"`
	Usuario *Usuario    `gorm:"foreignKey:UserID"`
}

func (Orden) TableName() string { return "orders" }

func (o *Orden) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// OrdenItem snapshots the unit price at order time; it is never re-read from Producto.
// (order_id, product_id) is not unique: repeated lines are kept as sent.
type OrdenItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Quantity  int             `gorm:"not null;check:quantity > 0"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductID"`
}

func (OrdenItem) TableName() string { return "order_items" }

func (i *OrdenItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
