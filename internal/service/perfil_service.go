package service

import (
	"context"
	"errors"
	"fmt"

	"cuchito/internal/apierror"
	"cuchito/internal/dto"
	"cuchito/internal/model"
	"cuchito/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PerfilService interface {
	// RolDe returns the role currently stored for the user; NotFound if the
	// profile does not exist.
	RolDe(ctx context.Context, userID uuid.UUID) (string, error)
	Obtener(ctx context.Context, userID uuid.UUID) (*dto.PerfilResponse, error)
	ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error)
	ListarPerfiles(ctx context.Context) ([]dto.PerfilResponse, error)
	ActualizarRol(ctx context.Context, id uuid.UUID, rol string) (*dto.PerfilResponse, error)
	ActualizarPuntos(ctx context.Context, id uuid.UUID, puntos int) (*dto.PerfilResponse, error)
}

type perfilService struct {
	perfiles repository.PerfilRepository
	usuarios repository.UsuarioRepository
}

func NewPerfilService(perfiles repository.PerfilRepository, usuarios repository.UsuarioRepository) PerfilService {
	return &perfilService{perfiles: perfiles, usuarios: usuarios}
}

func (s *perfilService) RolDe(ctx context.Context, userID uuid.UUID) (string, error) {
	rol, err := s.perfiles.FindRol(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", apierror.NotFound("Perfil no encontrado")
	}
	if err != nil {
		return "", fmt.Errorf("rol de usuario: %w", err)
	}
	return rol, nil
}

func (s *perfilService) Obtener(ctx context.Context, userID uuid.UUID) (*dto.PerfilResponse, error) {
	p, err := s.perfiles.FindByID(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Perfil no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("obtener perfil: %w", err)
	}
	resp := perfilToResponse(p)
	return &resp, nil
}

func (s *perfilService) ListarUsuarios(ctx context.Context) ([]dto.UsuarioResponse, error) {
	users, err := s.usuarios.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar usuarios: %w", err)
	}
	resp := make([]dto.UsuarioResponse, len(users))
	for i, u := range users {
		resp[i] = dto.UsuarioResponse{ID: u.ID.String(), Email: u.Email, Username: u.Username}
	}
	return resp, nil
}

func (s *perfilService) ListarPerfiles(ctx context.Context) ([]dto.PerfilResponse, error) {
	perfiles, err := s.perfiles.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar perfiles: %w", err)
	}
	resp := make([]dto.PerfilResponse, len(perfiles))
	for i := range perfiles {
		resp[i] = perfilToResponse(&perfiles[i])
	}
	return resp, nil
}

func (s *perfilService) ActualizarRol(ctx context.Context, id uuid.UUID, rol string) (*dto.PerfilResponse, error) {
	if rol != model.RolUsuario && rol != model.RolAdmin {
		return nil, apierror.Validation("Rol inválido: use user o admin")
	}
	n, err := s.perfiles.UpdateRol(ctx, id, rol)
	if err != nil {
		return nil, fmt.Errorf("actualizar rol: %w", err)
	}
	if n == 0 {
		return nil, apierror.NotFound("Perfil no encontrado")
	}
	return s.Obtener(ctx, id)
}

func (s *perfilService) ActualizarPuntos(ctx context.Context, id uuid.UUID, puntos int) (*dto.PerfilResponse, error) {
	if puntos < 0 {
		return nil, apierror.Validation("Los puntos no pueden ser negativos")
	}
	n, err := s.perfiles.SetPuntos(ctx, id, puntos)
	if err != nil {
		return nil, fmt.Errorf("actualizar puntos: %w", err)
	}
	if n == 0 {
		return nil, apierror.NotFound("Perfil no encontrado")
	}
	return s.Obtener(ctx, id)
}

func perfilToResponse(p *model.Perfil) dto.PerfilResponse {
	return dto.PerfilResponse{
		ID:        p.ID.String(),
		Username:  p.Username,
		Rut:       p.Rut,
		Role:      p.Rol,
		Puntos:    p.Puntos,
		AvatarURL: p.AvatarURL,
		CreatedAt: p.CreatedAt,
	}
}
