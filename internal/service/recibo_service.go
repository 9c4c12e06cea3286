package service

import (
	"context"
	"errors"
	"fmt"

	"cuchito/internal/apierror"
	"cuchito/internal/infra"
	"cuchito/internal/model"
	"cuchito/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoriaOtros titles the receipt of every item outside the special category.
const CategoriaOtros = "Otros"

// ReceiptRenderer is satisfied by *infra.ReceiptRenderer.
type ReceiptRenderer interface {
	Render(rc infra.Receipt) ([]byte, error)
	Filename(rc infra.Receipt) string
}

// Recibo is one rendered PDF.
type Recibo struct {
	Categoria   string
	Filename    string
	ContentType string
	Content     []byte
}

// ReciboLote holds the receipts of one order; Recibos is empty when nothing is printable.
type ReciboLote struct {
	Orden   *model.Orden
	Recibos []Recibo
}

type ReciboService interface {
	Generar(ctx context.Context, orderID uuid.UUID) (*ReciboLote, error)
}

type reciboService struct {
	ordenes  repository.OrdenRepository
	renderer ReceiptRenderer
	especial string
}

func NewReciboService(ordenes repository.OrdenRepository, renderer ReceiptRenderer, categoriaEspecial string) ReciboService {
	return &reciboService{ordenes: ordenes, renderer: renderer, especial: categoriaEspecial}
}

// AgruparPorCategoria splits items into those whose category equals especial
// (exact match) and everything else, preserving order.
func AgruparPorCategoria(items []repository.OrdenItemDetalle, especial string) (especiales, otros []repository.OrdenItemDetalle) {
	for _, it := range items {
		if it.Category != nil && *it.Category == especial {
			especiales = append(especiales, it)
		} else {
			otros = append(otros, it)
		}
	}
	return especiales, otros
}

func (s *reciboService) Generar(ctx context.Context, orderID uuid.UUID) (*ReciboLote, error) {
	orden, err := s.ordenes.FindByID(ctx, orderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Orden no encontrada")
	}
	if err != nil {
		return nil, fmt.Errorf("recibos: %w", err)
	}
	items, err := s.ordenes.FindItems(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("recibos: items: %w", err)
	}

	especiales, otros := AgruparPorCategoria(items, s.especial)
	lote := &ReciboLote{Orden: orden, Recibos: []Recibo{}}
	for _, grupo := range []struct {
		categoria string
		items     []repository.OrdenItemDetalle
	}{
		{s.especial, especiales},
		{CategoriaOtros, otros},
	} {
		if len(grupo.items) == 0 {
			continue
		}
		rc := infra.Receipt{
			OrderNumber: orden.OrderNumber,
			Categoria:   grupo.categoria,
			CreatedAt:   orden.CreatedAt,
			Lines:       make([]infra.ReceiptLine, len(grupo.items)),
		}
		for i, it := range grupo.items {
			rc.Lines[i] = infra.ReceiptLine{Quantity: it.Quantity, Name: it.Name, Price: it.Price}
		}
		pdf, err := s.renderer.Render(rc)
		if err != nil {
			return nil, fmt.Errorf("recibos: %s: %w", grupo.categoria, err)
		}
		lote.Recibos = append(lote.Recibos, Recibo{
			Categoria:   grupo.categoria,
			Filename:    s.renderer.Filename(rc),
			ContentType: "application/pdf",
			Content:     pdf,
		})
	}
	return lote, nil
}
