package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ProductoRequest is used for both create and full update.
type ProductoRequest struct {
	Name         string           `json:"name"          validate:"max=120"`
	Price        *decimal.Decimal `json:"price"`
	Points       *int             `json:"points"        validate:"omitempty,min=0"`
	PrecioPuntos *int             `json:"precio_puntos" validate:"omitempty,min=0"`
	ImageURL     *string          `json:"image_url"`
	Description  *string          `json:"description"`
	Category     *string          `json:"category"`
	SubCategory  *string          `json:"sub_category"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Price        decimal.Decimal `json:"price"`
	Points       int             `json:"points"`
	PrecioPuntos *int            `json:"precio_puntos"`
	ImageURL     *string         `json:"image_url"`
	Description  *string         `json:"description"`
	Category     *string         `json:"category"`
	SubCategory  *string         `json:"sub_category"`
	CreatedAt    time.Time       `json:"created_at"`
}

type ProductoListResponse struct {
	Products []ProductoResponse `json:"products"`
}

type ProductoEnvelope struct {
	Message string           `json:"message,omitempty"`
	Product ProductoResponse `json:"product"`
}
