package repository

import (
	"context"
	"time"

	"cuchito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrdenConPerfil is an order row left-joined with its owner's profile.
// Profile columns are nil when the profile row is missing.
type OrdenConPerfil struct {
	ID           uuid.UUID
	OrderNumber  int
	Fecha        string
	UserID       uuid.UUID
	Total        decimal.Decimal
	MetodoPago   string
	Status       string
	PointsUsed   int
	PointsEarned int
	CreatedAt    time.Time
	Username     *string
	Rut          *string
	Role         *string
}

// OrdenItemDetalle is an order line joined with the product it references.
type OrdenItemDetalle struct {
	ProductID uuid.UUID
	Quantity  int
	Price     decimal.Decimal
	Name      string
	ImageURL  *string
	Category  *string
}

// PagoPorMetodo is the per payment method aggregate of one business date.
type PagoPorMetodo struct {
	MetodoPago string
	Total      decimal.Decimal
}

type OrdenRepository interface {
	// Used inside transactions: callers must pass the tx instance
	NextOrderNumber(ctx context.Context, tx *gorm.DB, fecha string) (int, error)
	Create(ctx context.Context, tx *gorm.DB, o *model.Orden) error
	CreateItem(ctx context.Context, tx *gorm.DB, it *model.OrdenItem) error
	SumByMetodo(ctx context.Context, tx *gorm.DB, fecha string) ([]PagoPorMetodo, error)

	FindByID(ctx context.Context, id uuid.UUID) (*model.Orden, error)
	FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Orden, error)
	FindConPerfil(ctx context.Context, id uuid.UUID) (*OrdenConPerfil, error)
	ListConPerfil(ctx context.Context) ([]OrdenConPerfil, error)
	FindItems(ctx context.Context, orderID uuid.UUID) ([]OrdenItemDetalle, error)
	UpdateMetodoPago(ctx context.Context, id uuid.UUID, metodo string) (int64, error)

	// FechasSinCierre lists business dates with orders and no cash closing, newest first.
	FechasSinCierre(ctx context.Context) ([]string, error)

	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type ordenRepo struct{ db *gorm.DB }

func NewOrdenRepository(db *gorm.DB) OrdenRepository { return &ordenRepo{db: db} }

func (r *ordenRepo) DB() *gorm.DB { return r.db }

func (r *ordenRepo) NextOrderNumber(ctx context.Context, tx *gorm.DB, fecha string) (int, error) {
	// Daily sequence; a concurrent writer taking the same number trips the
	// (fecha, order_number) unique index and the transaction fails.
	var num int
	err := conn(tx, r.db).WithContext(ctx).Model(&model.Orden{}).
		Select("COALESCE(MAX(order_number), 0) + 1").
		Where("fecha = ?", fecha).
		Scan(&num).Error
	return num, err
}

func (r *ordenRepo) Create(ctx context.Context, tx *gorm.DB, o *model.Orden) error {
	return conn(tx, r.db).WithContext(ctx).Omit("Items", "Usuario").Create(o).Error
}

func (r *ordenRepo) CreateItem(ctx context.Context, tx *gorm.DB, it *model.OrdenItem) error {
	return conn(tx, r.db).WithContext(ctx).Omit("Producto").Create(it).Error
}

func (r *ordenRepo) SumByMetodo(ctx context.Context, tx *gorm.DB, fecha string) ([]PagoPorMetodo, error) {
	var rows []PagoPorMetodo
	err := conn(tx, r.db).WithContext(ctx).Model(&model.Orden{}).
		Select("metodo_pago, SUM(total) AS total").
		Where("fecha = ?", fecha).
		Group("metodo_pago").
		Scan(&rows).Error
	return rows, err
}

func (r *ordenRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	err := r.db.WithContext(ctx).First(&o, "id = ?", id).Error
	return &o, err
}

func (r *ordenRepo) FindByIDForUser(ctx context.Context, id, userID uuid.UUID) (*model.Orden, error) {
	var o model.Orden
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&o).Error
	return &o, err
}

func (r *ordenRepo) conPerfil(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("orders AS o").
		Select("o.id, o.order_number, o.fecha, o.user_id, o.total, o.metodo_pago, o.status, " +
			"o.points_used, o.points_earned, o.created_at, p.username, p.rut, p.role").
		Joins("LEFT JOIN profiles p ON p.id = o.user_id")
}

func (r *ordenRepo) FindConPerfil(ctx context.Context, id uuid.UUID) (*OrdenConPerfil, error) {
	var rows []OrdenConPerfil
	if err := r.conPerfil(ctx).Where("o.id = ?", id).Limit(1).Scan(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *ordenRepo) ListConPerfil(ctx context.Context) ([]OrdenConPerfil, error) {
	var rows []OrdenConPerfil
	err := r.conPerfil(ctx).Order("o.created_at DESC").Scan(&rows).Error
	return rows, err
}

func (r *ordenRepo) FindItems(ctx context.Context, orderID uuid.UUID) ([]OrdenItemDetalle, error) {
	var items []OrdenItemDetalle
	err := r.db.WithContext(ctx).Table("order_items AS oi").
		Select("oi.product_id, oi.quantity, oi.price, p.name, p.image_url, p.category").
		Joins("JOIN products p ON p.id = oi.product_id").
		Where("oi.order_id = ?", orderID).
		Order("p.name ASC").
		Scan(&items).Error
	return items, err
}

func (r *ordenRepo) UpdateMetodoPago(ctx context.Context, id uuid.UUID, metodo string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Orden{}).Where("id = ?", id).Update("metodo_pago", metodo)
	return res.RowsAffected, res.Error
}

func (r *ordenRepo) FechasSinCierre(ctx context.Context) ([]string, error) {
	var fechas []string
	err := r.db.WithContext(ctx).Raw(`
		SELECT DISTINCT o.fecha
		FROM orders o
		LEFT JOIN cierres_caja c ON c.fecha = o.fecha
		WHERE c.id IS NULL
		ORDER BY o.fecha DESC`).Scan(&fechas).Error
	return fechas, err
}
