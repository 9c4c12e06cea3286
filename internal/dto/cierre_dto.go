package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CierreManualRequest struct {
	TotalEfectivo    *decimal.Decimal `json:"total_efectivo"`
	TotalMaquinas    *decimal.Decimal `json:"total_maquinas"`
	Maquina1         *decimal.Decimal `json:"maquina1"`
	Maquina2         *decimal.Decimal `json:"maquina2"`
	Maquina3         *decimal.Decimal `json:"maquina3"`
	SalidasEfectivo  *decimal.Decimal `json:"salidas_efectivo"`
	IngresosEfectivo *decimal.Decimal `json:"ingresos_efectivo"`
	Observacion      *string          `json:"observacion"`
	// Absent means no card/web payments were recorded.
	TotalPagosTarjetaWeb *decimal.Decimal `json:"total_pagos_tarjeta_web"`
}

type CierreAutoRequest struct {
	Maquina1         *decimal.Decimal `json:"maquina1"`
	Maquina2         *decimal.Decimal `json:"maquina2"`
	Maquina3         *decimal.Decimal `json:"maquina3"`
	SalidasEfectivo  *decimal.Decimal `json:"salidas_efectivo"`
	IngresosEfectivo *decimal.Decimal `json:"ingresos_efectivo"`
	Observacion      *string          `json:"observacion"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CierreResponse struct {
	ID                   string           `json:"id"`
	Fecha                string           `json:"fecha"`
	TotalEfectivo        decimal.Decimal  `json:"total_efectivo"`
	TotalMaquinas        decimal.Decimal  `json:"total_maquinas"`
	Maquina1             decimal.Decimal  `json:"maquina1"`
	Maquina2             *decimal.Decimal `json:"maquina2"`
	Maquina3             *decimal.Decimal `json:"maquina3"`
	SalidasEfectivo      decimal.Decimal  `json:"salidas_efectivo"`
	IngresosEfectivo     decimal.Decimal  `json:"ingresos_efectivo"`
	Observacion          *string          `json:"observacion"`
	TotalPagosTarjetaWeb decimal.Decimal  `json:"total_pagos_tarjeta_web"`
	UsuarioID            string           `json:"usuario_id"`
	Username             *string          `json:"username,omitempty"`
	CreatedAt            time.Time        `json:"created_at"`
}

type CierreEnvelope struct {
	Message string         `json:"message"`
	Cierre  CierreResponse `json:"cierre"`
}

type CierreListResponse struct {
	Cierres []CierreResponse `json:"cierres"`
}

type CierreHoyResponse struct {
	Exists bool            `json:"exists"`
	Cierre *CierreResponse `json:"cierre"`
}

type FechaPendiente struct {
	Fecha string `json:"fecha"`
}

type CierresPendientesResponse struct {
	Pendientes []FechaPendiente `json:"pendientes"`
}
