package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"cuchito/internal/apierror"
	"cuchito/internal/dto"
	"cuchito/internal/model"
	"cuchito/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReciboQueue receives the id of every committed order so that its receipts
// can be delivered asynchronously.
type ReciboQueue interface {
	EnqueueRecibo(ctx context.Context, orderID uuid.UUID) error
}

type OrdenService interface {
	Crear(ctx context.Context, userID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error)
	ObtenerParaUsuario(ctx context.Context, id, userID uuid.UUID) (*dto.OrdenDetalleResponse, error)
	ListarTodas(ctx context.Context) ([]dto.OrdenAdminResponse, error)
	ObtenerAdmin(ctx context.Context, id uuid.UUID) (*dto.OrdenAdminDetalleResponse, error)
	ActualizarMetodoPago(ctx context.Context, id uuid.UUID, metodo string) (*dto.OrdenResponse, error)
}

type ordenService struct {
	ordenes   repository.OrdenRepository
	productos repository.ProductoRepository
	perfiles  repository.PerfilRepository
	queue     ReciboQueue // nil: no receipt delivery
	loc       *time.Location
	now       func() time.Time
}

func NewOrdenService(
	ordenes repository.OrdenRepository,
	productos repository.ProductoRepository,
	perfiles repository.PerfilRepository,
	queue ReciboQueue,
	loc *time.Location,
) OrdenService {
	return &ordenService{
		ordenes:   ordenes,
		productos: productos,
		perfiles:  perfiles,
		queue:     queue,
		loc:       loc,
		now:       time.Now,
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────
// Single transaction:
//   1. next daily order number for today's business date
//   2. insert the order
//   3. validate and insert each item; the first bad item aborts everything
//   4. apply points_earned - points_used to the buyer's balance
//   5. COMMIT, then (async) enqueue the receipt job

func (s *ordenService) Crear(ctx context.Context, userID uuid.UUID, req dto.CrearOrdenRequest) (*dto.OrdenResponse, error) {
	metodo := strings.TrimSpace(req.MetodoPago)
	status := strings.TrimSpace(req.Status)
	if req.Total == nil || req.Total.IsZero() || metodo == "" || status == "" || len(req.Items) == 0 {
		return nil, apierror.Validation("Campos obligatorios: total, metodo_pago, status, items[]")
	}
	if req.Total.IsNegative() {
		return nil, apierror.Validation("El total no puede ser negativo")
	}
	if req.PointsUsed < 0 || req.PointsEarned < 0 {
		return nil, apierror.Validation("Los puntos no pueden ser negativos")
	}

	orden := &model.Orden{
		Fecha:        businessDate(s.now(), s.loc),
		UserID:       userID,
		Total:        *req.Total,
		MetodoPago:   metodo,
		Status:       status,
		PointsUsed:   req.PointsUsed,
		PointsEarned: req.PointsEarned,
	}

	txErr := runTx(ctx, s.ordenes.DB(), func(tx *gorm.DB) error {
		num, err := s.ordenes.NextOrderNumber(ctx, tx, orden.Fecha)
		if err != nil {
			return err
		}
		orden.OrderNumber = num
		if err := s.ordenes.Create(ctx, tx, orden); err != nil {
			return err
		}

		for i, it := range req.Items {
			item, err := s.validarItem(ctx, tx, i+1, it)
			if err != nil {
				return err
			}
			item.OrderID = orden.ID
			if err := s.ordenes.CreateItem(ctx, tx, item); err != nil {
				if errors.Is(err, gorm.ErrForeignKeyViolated) {
					return apierror.Validation(fmt.Sprintf("item %d: producto no encontrado", i+1))
				}
				return err
			}
		}

		if delta := req.PointsEarned - req.PointsUsed; delta != 0 {
			err := s.perfiles.AjustarPuntosTx(ctx, tx, userID, delta)
			if errors.Is(err, repository.ErrSaldoInsuficiente) {
				return apierror.Validation("Puntos insuficientes")
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if txErr != nil {
		var apiErr *apierror.Error
		if errors.As(txErr, &apiErr) {
			return nil, apiErr
		}
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict("Número de orden en uso, intente nuevamente")
		}
		return nil, fmt.Errorf("crear orden: %w", txErr)
	}

	if s.queue != nil {
		if err := s.queue.EnqueueRecibo(ctx, orden.ID); err != nil {
			log.Warn().Err(err).Str("order_id", orden.ID.String()).Msg("receipt job not enqueued")
		}
	}

	resp := ordenToResponse(orden)
	return &resp, nil
}

func (s *ordenService) validarItem(ctx context.Context, tx *gorm.DB, n int, it dto.OrdenItemRequest) (*model.OrdenItem, error) {
	if it.ProductID == nil || it.Quantity == nil || it.Price == nil {
		return nil, apierror.Validation(fmt.Sprintf("item %d: cada item debe tener product_id, quantity y price", n))
	}
	pid, err := uuid.Parse(*it.ProductID)
	if err != nil {
		return nil, apierror.Validation(fmt.Sprintf("item %d: product_id inválido", n))
	}
	if *it.Quantity <= 0 {
		return nil, apierror.Validation(fmt.Sprintf("item %d: quantity debe ser mayor a 0", n))
	}
	if it.Price.IsNegative() {
		return nil, apierror.Validation(fmt.Sprintf("item %d: price no puede ser negativo", n))
	}
	ok, err := s.productos.ExistsTx(ctx, tx, pid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apierror.Validation(fmt.Sprintf("item %d: producto no encontrado", n))
	}
	return &model.OrdenItem{ProductID: pid, Quantity: *it.Quantity, Price: *it.Price}, nil
}

// ── Lectura ───────────────────────────────────────────────────────────────────

// ObtenerParaUsuario scopes the lookup to the owner; a foreign order is
// reported exactly like a missing one.
func (s *ordenService) ObtenerParaUsuario(ctx context.Context, id, userID uuid.UUID) (*dto.OrdenDetalleResponse, error) {
	orden, err := s.ordenes.FindByIDForUser(ctx, id, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Orden no encontrada o no pertenece al usuario")
	}
	if err != nil {
		return nil, fmt.Errorf("obtener orden: %w", err)
	}
	items, err := s.ordenes.FindItems(ctx, orden.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener items: %w", err)
	}
	return &dto.OrdenDetalleResponse{Order: ordenToResponse(orden), Items: itemsToResponse(items)}, nil
}

func (s *ordenService) ListarTodas(ctx context.Context) ([]dto.OrdenAdminResponse, error) {
	rows, err := s.ordenes.ListConPerfil(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar ordenes: %w", err)
	}
	resp := make([]dto.OrdenAdminResponse, len(rows))
	for i := range rows {
		resp[i] = ordenConPerfilToResponse(&rows[i])
	}
	return resp, nil
}

func (s *ordenService) ObtenerAdmin(ctx context.Context, id uuid.UUID) (*dto.OrdenAdminDetalleResponse, error) {
	row, err := s.ordenes.FindConPerfil(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Orden no encontrada")
	}
	if err != nil {
		return nil, fmt.Errorf("obtener orden: %w", err)
	}
	items, err := s.ordenes.FindItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("obtener items: %w", err)
	}
	return &dto.OrdenAdminDetalleResponse{Order: ordenConPerfilToResponse(row), Items: itemsToResponse(items)}, nil
}

func (s *ordenService) ActualizarMetodoPago(ctx context.Context, id uuid.UUID, metodo string) (*dto.OrdenResponse, error) {
	metodo = strings.TrimSpace(metodo)
	if metodo == "" {
		return nil, apierror.Validation("metodo_pago es obligatorio")
	}
	n, err := s.ordenes.UpdateMetodoPago(ctx, id, metodo)
	if err != nil {
		return nil, fmt.Errorf("actualizar metodo de pago: %w", err)
	}
	if n == 0 {
		return nil, apierror.NotFound("Orden no encontrada")
	}
	orden, err := s.ordenes.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("actualizar metodo de pago: %w", err)
	}
	resp := ordenToResponse(orden)
	return &resp, nil
}

// ── Mappers ───────────────────────────────────────────────────────────────────

func ordenToResponse(o *model.Orden) dto.OrdenResponse {
	return dto.OrdenResponse{
		ID:           o.ID.String(),
		OrderNumber:  o.OrderNumber,
		Fecha:        o.Fecha,
		UserID:       o.UserID.String(),
		Total:        o.Total,
		MetodoPago:   o.MetodoPago,
		Status:       o.Status,
		PointsUsed:   o.PointsUsed,
		PointsEarned: o.PointsEarned,
		CreatedAt:    o.CreatedAt,
	}
}

func ordenConPerfilToResponse(r *repository.OrdenConPerfil) dto.OrdenAdminResponse {
	return dto.OrdenAdminResponse{
		OrdenResponse: dto.OrdenResponse{
			ID:           r.ID.String(),
			OrderNumber:  r.OrderNumber,
			Fecha:        r.Fecha,
			UserID:       r.UserID.String(),
			Total:        r.Total,
			MetodoPago:   r.MetodoPago,
			Status:       r.Status,
			PointsUsed:   r.PointsUsed,
			PointsEarned: r.PointsEarned,
			CreatedAt:    r.CreatedAt,
		},
		Username: r.Username,
		Rut:      r.Rut,
		Role:     r.Role,
	}
}

func itemsToResponse(items []repository.OrdenItemDetalle) []dto.OrdenItemResponse {
	resp := make([]dto.OrdenItemResponse, len(items))
	for i, it := range items {
		resp[i] = dto.OrdenItemResponse{
			ProductID: it.ProductID.String(),
			Quantity:  it.Quantity,
			Price:     it.Price,
			Name:      it.Name,
			ImageURL:  it.ImageURL,
			Category:  it.Category,
		}
	}
	return resp
}
