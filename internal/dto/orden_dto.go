package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// Item fields are pointers so that the order service can tell a missing field
// from a zero value and reject the order naming the offending line.
type OrdenItemRequest struct {
	ProductID *string          `json:"product_id"`
	Quantity  *int             `json:"quantity"`
	Price     *decimal.Decimal `json:"price"`
}

type CrearOrdenRequest struct {
	Total        *decimal.Decimal   `json:"total"`
	MetodoPago   string             `json:"metodo_pago"`
	Status       string             `json:"status"`
	PointsUsed   int                `json:"points_used"   validate:"min=0"`
	PointsEarned int                `json:"points_earned" validate:"min=0"`
	Items        []OrdenItemRequest `json:"items"`
}

type ActualizarMetodoPagoRequest struct {
	MetodoPago string `json:"metodo_pago"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrdenResponse struct {
	ID           string          `json:"id"`
	OrderNumber  int             `json:"order_number"`
	Fecha        string          `json:"fecha"`
	UserID       string          `json:"user_id"`
	Total        decimal.Decimal `json:"total"`
	MetodoPago   string          `json:"metodo_pago"`
	Status       string          `json:"status"`
	PointsUsed   int             `json:"points_used"`
	PointsEarned int             `json:"points_earned"`
	CreatedAt    time.Time       `json:"created_at"`
}

// OrdenAdminResponse adds the owner's profile, which may be missing.
type OrdenAdminResponse struct {
	OrdenResponse
	Username *string `json:"username"`
	Rut      *string `json:"rut"`
	Role     *string `json:"role"`
}

type OrdenItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	ImageURL  *string         `json:"image_url"`
	Category  *string         `json:"category"`
}

type CrearOrdenResponse struct {
	Message string        `json:"message"`
	Order   OrdenResponse `json:"order"`
}

type OrdenDetalleResponse struct {
	Order OrdenResponse       `json:"order"`
	Items []OrdenItemResponse `json:"items"`
}

type OrdenAdminDetalleResponse struct {
	Order OrdenAdminResponse  `json:"order"`
	Items []OrdenItemResponse `json:"items"`
}

type OrdenListResponse struct {
	Orders []OrdenAdminResponse `json:"orders"`
}

type ActualizarOrdenResponse struct {
	Message string        `json:"message"`
	Order   OrdenResponse `json:"order"`
}

// ─── Receipts ────────────────────────────────────────────────────────────────

type ReciboArchivo struct {
	Categoria     string `json:"categoria"`
	Filename      string `json:"filename"`
	ContentType   string `json:"content_type"`
	ContentBase64 string `json:"content_base64"`
}

type RecibosResponse struct {
	OrderID  string          `json:"order_id"`
	Receipts []ReciboArchivo `json:"receipts"`
}
