package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cuchito/internal/apierror"
	"cuchito/internal/dto"
	"cuchito/internal/model"
	"cuchito/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const msgCierreDuplicado = "Ya existe un cierre de caja para esa fecha"

type CierreService interface {
	CrearManual(ctx context.Context, usuarioID uuid.UUID, req dto.CierreManualRequest) (*dto.CierreResponse, error)
	CrearParaFecha(ctx context.Context, fecha string, usuarioID uuid.UUID, req dto.CierreAutoRequest) (*dto.CierreResponse, error)
	Listar(ctx context.Context) ([]dto.CierreResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.CierreResponse, error)
	Hoy(ctx context.Context) (*dto.CierreHoyResponse, error)
	Pendientes(ctx context.Context) ([]dto.FechaPendiente, error)
}

type cierreService struct {
	cierres repository.CierreRepository
	ordenes repository.OrdenRepository
	loc     *time.Location
	now     func() time.Time
}

func NewCierreService(cierres repository.CierreRepository, ordenes repository.OrdenRepository, loc *time.Location) CierreService {
	return &cierreService{cierres: cierres, ordenes: ordenes, loc: loc, now: time.Now}
}

// ReducirPagos folds per-method order totals into the two closing buckets:
// the "efectivo" group is cash, every other method adds to the card/web total.
func ReducirPagos(pagos []repository.PagoPorMetodo) (efectivo, tarjetaWeb decimal.Decimal) {
	efectivo, tarjetaWeb = decimal.Zero, decimal.Zero
	for _, p := range pagos {
		if p.MetodoPago == model.MetodoEfectivo {
			efectivo = p.Total
			continue
		}
		tarjetaWeb = tarjetaWeb.Add(p.Total)
	}
	return efectivo, tarjetaWeb
}

// totalMaquinas sums the card terminals, absent terminals count as zero.
func totalMaquinas(m1 decimal.Decimal, m2, m3 *decimal.Decimal) decimal.Decimal {
	total := m1
	for _, m := range []*decimal.Decimal{m2, m3} {
		if m != nil {
			total = total.Add(*m)
		}
	}
	return total
}

// ── Manual ────────────────────────────────────────────────────────────────────
// Dated today. A second closing for the same date is rejected by the unique
// index on cierres_caja.fecha.

func (s *cierreService) CrearManual(ctx context.Context, usuarioID uuid.UUID, req dto.CierreManualRequest) (*dto.CierreResponse, error) {
	if req.TotalEfectivo == nil || req.TotalMaquinas == nil || req.Maquina1 == nil ||
		req.SalidasEfectivo == nil || req.IngresosEfectivo == nil {
		return nil, apierror.Validation("Campos obligatorios faltantes")
	}

	tarjetaWeb := decimal.Zero
	if req.TotalPagosTarjetaWeb != nil {
		tarjetaWeb = *req.TotalPagosTarjetaWeb
	}

	c := &model.CierreCaja{
		Fecha:                businessDate(s.now(), s.loc),
		TotalEfectivo:        *req.TotalEfectivo,
		TotalMaquinas:        *req.TotalMaquinas,
		Maquina1:             *req.Maquina1,
		Maquina2:             req.Maquina2,
		Maquina3:             req.Maquina3,
		SalidasEfectivo:      *req.SalidasEfectivo,
		IngresosEfectivo:     *req.IngresosEfectivo,
		Observacion:          req.Observacion,
		TotalPagosTarjetaWeb: tarjetaWeb,
		UsuarioID:            usuarioID,
	}
	err := s.cierres.Create(ctx, nil, c)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apierror.Conflict(msgCierreDuplicado)
	}
	if err != nil {
		return nil, fmt.Errorf("crear cierre manual: %w", err)
	}
	resp := cierreToResponse(c, nil)
	return &resp, nil
}

// ── Automático ────────────────────────────────────────────────────────────────
// Full transaction:
//   1. reject if the date already has a closing
//   2. SUM(total) of that date's orders GROUP BY metodo_pago
//   3. reject if there are no orders
//   4. reduce to efectivo / tarjeta-web, add up the terminals
//   5. insert; a concurrent insert for the same date trips the unique index

func (s *cierreService) CrearParaFecha(ctx context.Context, fecha string, usuarioID uuid.UUID, req dto.CierreAutoRequest) (*dto.CierreResponse, error) {
	dia, err := time.Parse(fechaLayout, fecha)
	if err != nil {
		return nil, apierror.Validation("Fecha inválida, use el formato YYYY-MM-DD")
	}
	fecha = dia.Format(fechaLayout)

	if req.Maquina1 == nil || req.SalidasEfectivo == nil || req.IngresosEfectivo == nil {
		return nil, apierror.Validation("Faltan campos requeridos")
	}

	var c *model.CierreCaja
	txErr := runTx(ctx, s.cierres.DB(), func(tx *gorm.DB) error {
		exists, err := s.cierres.ExistsFecha(ctx, tx, fecha)
		if err != nil {
			return err
		}
		if exists {
			return apierror.Conflict(msgCierreDuplicado)
		}

		pagos, err := s.ordenes.SumByMetodo(ctx, tx, fecha)
		if err != nil {
			return err
		}
		if len(pagos) == 0 {
			return apierror.NotFound("No hay pedidos en esa fecha")
		}
		efectivo, tarjetaWeb := ReducirPagos(pagos)

		c = &model.CierreCaja{
			Fecha:                fecha,
			TotalEfectivo:        efectivo,
			TotalMaquinas:        totalMaquinas(*req.Maquina1, req.Maquina2, req.Maquina3),
			Maquina1:             *req.Maquina1,
			Maquina2:             req.Maquina2,
			Maquina3:             req.Maquina3,
			SalidasEfectivo:      *req.SalidasEfectivo,
			IngresosEfectivo:     *req.IngresosEfectivo,
			Observacion:          req.Observacion,
			TotalPagosTarjetaWeb: tarjetaWeb,
			UsuarioID:            usuarioID,
		}
		return s.cierres.Create(ctx, tx, c)
	})
	if txErr != nil {
		var apiErr *apierror.Error
		if errors.As(txErr, &apiErr) {
			return nil, apiErr
		}
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			return nil, apierror.Conflict(msgCierreDuplicado)
		}
		return nil, fmt.Errorf("crear cierre para %s: %w", fecha, txErr)
	}

	resp := cierreToResponse(c, nil)
	return &resp, nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *cierreService) Listar(ctx context.Context) ([]dto.CierreResponse, error) {
	rows, err := s.cierres.ListConUsuario(ctx)
	if err != nil {
		return nil, fmt.Errorf("listar cierres: %w", err)
	}
	resp := make([]dto.CierreResponse, len(rows))
	for i := range rows {
		resp[i] = cierreConUsuarioToResponse(&rows[i])
	}
	return resp, nil
}

func (s *cierreService) Obtener(ctx context.Context, id uuid.UUID) (*dto.CierreResponse, error) {
	row, err := s.cierres.FindConUsuario(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Cierre de caja no encontrado")
	}
	if err != nil {
		return nil, fmt.Errorf("obtener cierre: %w", err)
	}
	resp := cierreConUsuarioToResponse(row)
	return &resp, nil
}

func (s *cierreService) Hoy(ctx context.Context) (*dto.CierreHoyResponse, error) {
	c, err := s.cierres.FindByFecha(ctx, businessDate(s.now(), s.loc))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &dto.CierreHoyResponse{Exists: false}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cierre de hoy: %w", err)
	}
	resp := cierreToResponse(c, nil)
	return &dto.CierreHoyResponse{Exists: true, Cierre: &resp}, nil
}

func (s *cierreService) Pendientes(ctx context.Context) ([]dto.FechaPendiente, error) {
	fechas, err := s.ordenes.FechasSinCierre(ctx)
	if err != nil {
		return nil, fmt.Errorf("cierres pendientes: %w", err)
	}
	resp := make([]dto.FechaPendiente, len(fechas))
	for i, f := range fechas {
		resp[i] = dto.FechaPendiente{Fecha: f}
	}
	return resp, nil
}

func cierreToResponse(c *model.CierreCaja, username *string) dto.CierreResponse {
	return dto.CierreResponse{
		ID:                   c.ID.String(),
		Fecha:                c.Fecha,
		TotalEfectivo:        c.TotalEfectivo,
		TotalMaquinas:        c.TotalMaquinas,
		Maquina1:             c.Maquina1,
		Maquina2:             c.Maquina2,
		Maquina3:             c.Maquina3,
		SalidasEfectivo:      c.SalidasEfectivo,
		IngresosEfectivo:     c.IngresosEfectivo,
		Observacion:          c.Observacion,
		TotalPagosTarjetaWeb: c.TotalPagosTarjetaWeb,
		UsuarioID:            c.UsuarioID.String(),
		Username:             username,
		CreatedAt:            c.CreatedAt,
	}
}

func cierreConUsuarioToResponse(r *repository.CierreConUsuario) dto.CierreResponse {
	return cierreToResponse(&model.CierreCaja{
		ID:                   r.ID,
		Fecha:                r.Fecha,
		TotalEfectivo:        r.TotalEfectivo,
		TotalMaquinas:        r.TotalMaquinas,
		Maquina1:             r.Maquina1,
		Maquina2:             r.Maquina2,
		Maquina3:             r.Maquina3,
		SalidasEfectivo:      r.SalidasEfectivo,
		IngresosEfectivo:     r.IngresosEfectivo,
		Observacion:          r.Observacion,
		TotalPagosTarjetaWeb: r.TotalPagosTarjetaWeb,
		UsuarioID:            r.UsuarioID,
		CreatedAt:            r.CreatedAt,
	}, r.Username)
}
