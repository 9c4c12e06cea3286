package handler

import (
	"net/http"

	"cuchito/internal/dto"
	"cuchito/internal/service"

	"github.com/gin-gonic/gin"
)

type CierresHandler struct{ svc service.CierreService }

func NewCierresHandler(svc service.CierreService) *CierresHandler {
	return &CierresHandler{svc: svc}
}

func (h *CierresHandler) CrearManual(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}
	var req dto.CierreManualRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearManual(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CierreEnvelope{Message: "Cierre de caja registrado", Cierre: *resp})
}

// CrearParaFecha godoc
// @Summary Cierre de caja calculado desde las órdenes de una fecha
// @Tags cierres
// @Accept json
// @Produce json
// @Param fecha path string true "Fecha YYYY-MM-DD"
// @Param body body dto.CierreAutoRequest true "Montos de máquinas y movimientos de efectivo"
// @Success 201 {object} dto.CierreEnvelope
// @Failure 404 {object} apierror.APIError
// @Failure 409 {object} apierror.APIError
// @Router /admin/cierres-caja/auto/{fecha} [post]
func (h *CierresHandler) CrearParaFecha(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}
	var req dto.CierreAutoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CrearParaFecha(c.Request.Context(), c.Param("fecha"), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CierreEnvelope{Message: "Cierre de caja creado para fecha específica", Cierre: *resp})
}

func (h *CierresHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CierreListResponse{Cierres: resp})
}

func (h *CierresHandler) Obtener(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CierreEnvelope{Cierre: *resp})
}

func (h *CierresHandler) Hoy(c *gin.Context) {
	resp, err := h.svc.Hoy(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CierresHandler) Pendientes(c *gin.Context) {
	resp, err := h.svc.Pendientes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CierresPendientesResponse{Pendientes: resp})
}
