package repository

import (
	"context"
	"time"

	"cuchito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CierreConUsuario is a closing joined with the username of the admin who recorded it.
type CierreConUsuario struct {
	ID                   uuid.UUID
	Fecha                string
	TotalEfectivo        decimal.Decimal
	TotalMaquinas        decimal.Decimal
	Maquina1             decimal.Decimal
	Maquina2             *decimal.Decimal
	Maquina3             *decimal.Decimal
	SalidasEfectivo      decimal.Decimal
	IngresosEfectivo     decimal.Decimal
	Observacion          *string
	TotalPagosTarjetaWeb decimal.Decimal
	UsuarioID            uuid.UUID
	CreatedAt            time.Time
	Username             *string
}

type CierreRepository interface {
	Create(ctx context.Context, tx *gorm.DB, c *model.CierreCaja) error
	ExistsFecha(ctx context.Context, tx *gorm.DB, fecha string) (bool, error)
	FindConUsuario(ctx context.Context, id uuid.UUID) (*CierreConUsuario, error)
	FindByFecha(ctx context.Context, fecha string) (*model.CierreCaja, error)
	ListConUsuario(ctx context.Context) ([]CierreConUsuario, error)
	DB() *gorm.DB
}

type cierreRepo struct{ db *gorm.DB }

func NewCierreRepository(db *gorm.DB) CierreRepository { return &cierreRepo{db: db} }

func (r *cierreRepo) DB() *gorm.DB { return r.db }

func (r *cierreRepo) Create(ctx context.Context, tx *gorm.DB, c *model.CierreCaja) error {
	return conn(tx, r.db).WithContext(ctx).Create(c).Error
}

func (r *cierreRepo) ExistsFecha(ctx context.Context, tx *gorm.DB, fecha string) (bool, error) {
	var n int64
	err := conn(tx, r.db).WithContext(ctx).Model(&model.CierreCaja{}).Where("fecha = ?", fecha).Count(&n).Error
	return n > 0, err
}

func (r *cierreRepo) conUsuario(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Table("cierres_caja AS c").
		Select("c.*, p.username").
		Joins("LEFT JOIN profiles p ON p.id = c.usuario_id")
}

// FindConUsuario returns gorm.ErrRecordNotFound when no closing has that id.
func (r *cierreRepo) FindConUsuario(ctx context.Context, id uuid.UUID) (*CierreConUsuario, error) {
	var row CierreConUsuario
	if err := r.conUsuario(ctx).Where("c.id = ?", id).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *cierreRepo) FindByFecha(ctx context.Context, fecha string) (*model.CierreCaja, error) {
	var c model.CierreCaja
	err := r.db.WithContext(ctx).Where("fecha = ?", fecha).First(&c).Error
	return &c, err
}

func (r *cierreRepo) ListConUsuario(ctx context.Context) ([]CierreConUsuario, error) {
	var rows []CierreConUsuario
	err := r.conUsuario(ctx).
		Order("c.fecha DESC").
		Scan(&rows).Error
	return rows, err
}
