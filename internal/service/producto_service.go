package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"cuchito/internal/apierror"
	"cuchito/internal/dto"
	"cuchito/internal/model"
	"cuchito/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// productListCacheKey holds the JSON of the whole public catalog.
const productListCacheKey = "products:all"

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Listar(ctx context.Context) ([]dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	Crear(ctx context.Context, req dto.ProductoRequest) (*dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo     repository.ProductoRepository
	rdb      *redis.Client // nil disables the cache
	cacheTTL time.Duration
}

func NewProductoService(repo repository.ProductoRepository, rdb *redis.Client, cacheTTL time.Duration) ProductoService {
	return &productoService{repo: repo, rdb: rdb, cacheTTL: cacheTTL}
}

// Listar serves the catalog from redis when possible; a cache failure falls
// back to the database.
func (s *productoService) Listar(ctx context.Context) ([]dto.ProductoResponse, error) {
	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, productListCacheKey).Bytes(); err == nil {
			var resp []dto.ProductoResponse
			if jsonErr := json.Unmarshal(cached, &resp); jsonErr == nil {
				return resp, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("product cache read failed")
		}
	}

	productos, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar productos: %w", err)
	}
	resp := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		resp[i] = productoToResponse(&productos[i])
	}

	if s.rdb != nil && s.cacheTTL > 0 {
		if b, jsonErr := json.Marshal(resp); jsonErr == nil {
			if err := s.rdb.Set(ctx, productListCacheKey, b, s.cacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("product cache write failed")
			}
		}
	}
	return resp, nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Producto no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("obtener producto: %w", err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Crear(ctx context.Context, req dto.ProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{}
	if err := applyProducto(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("crear producto: %w", err)
	}
	s.invalidate(ctx)
	resp := productoToResponse(p)
	return &resp, nil
}

// Actualizar replaces every editable field with the request values.
func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Producto no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}
	if err := applyProducto(p, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("actualizar producto: %w", err)
	}
	s.invalidate(ctx)
	resp := productoToResponse(p)
	return &resp, nil
}

// Eliminar refuses to delete a product referenced by any order line,
// since order items keep a foreign key to it.
func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	refs, err := s.repo.CountOrderItems(ctx, id)
	if err != nil {
		return fmt.Errorf("eliminar producto: %w", err)
	}
	if refs > 0 {
		return apierror.Conflict("El producto tiene órdenes asociadas y no puede eliminarse")
	}

	n, err := s.repo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return apierror.Conflict("El producto tiene órdenes asociadas y no puede eliminarse")
	}
	if err != nil {
		return fmt.Errorf("eliminar producto: %w", err)
	}
	if n == 0 {
		return apierror.NotFound("Producto no encontrado")
	}
	s.invalidate(ctx)
	return nil
}

func (s *productoService) invalidate(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, productListCacheKey).Err(); err != nil {
		log.Warn().Err(err).Msg("product cache invalidation failed")
	}
}

func applyProducto(p *model.Producto, req dto.ProductoRequest) error {
	name := strings.TrimSpace(req.Name)
	if name == "" || req.Price == nil {
		return apierror.Validation("Nombre y precio son obligatorios")
	}
	if !req.Price.IsPositive() {
		return apierror.Validation("El precio debe ser mayor a 0")
	}
	p.Name = name
	p.Price = *req.Price
	p.Points = 0
	if req.Points != nil {
		p.Points = *req.Points
	}
	p.PrecioPuntos = req.PrecioPuntos
	p.ImageURL = req.ImageURL
	p.Description = req.Description
	p.Category = req.Category
	p.SubCategory = req.SubCategory
	return nil
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:           p.ID.String(),
		Name:         p.Name,
		Price:        p.Price,
		Points:       p.Points,
		PrecioPuntos: p.PrecioPuntos,
		ImageURL:     p.ImageURL,
		Description:  p.Description,
		Category:     p.Category,
		SubCategory:  p.SubCategory,
		CreatedAt:    p.CreatedAt,
	}
}
