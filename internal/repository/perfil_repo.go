package repository

import (
	"context"
	"errors"

	"cuchito/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrSaldoInsuficiente is returned when a points adjustment would leave the
// profile balance below zero (or the profile does not exist).
var ErrSaldoInsuficiente = errors.New("saldo de puntos insuficiente")

type PerfilRepository interface {
	Create(ctx context.Context, tx *gorm.DB, p *model.Perfil) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Perfil, error)
	FindRol(ctx context.Context, id uuid.UUID) (string, error)
	List(ctx context.Context) ([]model.Perfil, error)
	UpdateRol(ctx context.Context, id uuid.UUID, rol string) (int64, error)
	SetPuntos(ctx context.Context, id uuid.UUID, puntos int) (int64, error)

	// AjustarPuntosTx applies delta to the balance only if the result stays >= 0.
	AjustarPuntosTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error
}

type perfilRepo struct{ db *gorm.DB }

func NewPerfilRepository(db *gorm.DB) PerfilRepository { return &perfilRepo{db: db} }

func (r *perfilRepo) Create(ctx context.Context, tx *gorm.DB, p *model.Perfil) error {
	return conn(tx, r.db).WithContext(ctx).Create(p).Error
}

func (r *perfilRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Perfil, error) {
	var p model.Perfil
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	return &p, err
}

func (r *perfilRepo) FindRol(ctx context.Context, id uuid.UUID) (string, error) {
	var p model.Perfil
	err := r.db.WithContext(ctx).Select("role").First(&p, "id = ?", id).Error
	return p.Rol, err
}

func (r *perfilRepo) List(ctx context.Context) ([]model.Perfil, error) {
	var perfiles []model.Perfil
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&perfiles).Error
	return perfiles, err
}

func (r *perfilRepo) UpdateRol(ctx context.Context, id uuid.UUID, rol string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Perfil{}).Where("id = ?", id).Update("role", rol)
	return res.RowsAffected, res.Error
}

func (r *perfilRepo) SetPuntos(ctx context.Context, id uuid.UUID, puntos int) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Perfil{}).Where("id = ?", id).Update("puntos", puntos)
	return res.RowsAffected, res.Error
}

func (r *perfilRepo) AjustarPuntosTx(ctx context.Context, tx *gorm.DB, id uuid.UUID, delta int) error {
	res := conn(tx, r.db).WithContext(ctx).Model(&model.Perfil{}).
		Where("id = ? AND puntos + ? >= 0", id, delta).
		Update("puntos", gorm.Expr("puntos + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSaldoInsuficiente
	}
	return nil
}
