package handler

import (
	"encoding/base64"
	"net/http"

	"cuchito/internal/dto"
	"cuchito/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdenesHandler struct {
	svc     service.OrdenService
	recibos service.ReciboService
}

func NewOrdenesHandler(svc service.OrdenService, recibos service.ReciboService) *OrdenesHandler {
	return &OrdenesHandler{svc: svc, recibos: recibos}
}

// Crear godoc
// @Summary Crear orden con items
// @Tags ordenes
// @Accept json
// @Produce json
// @Param body body dto.CrearOrdenRequest true "Orden"
// @Success 201 {object} dto.CrearOrdenResponse
// @Failure 400 {object} apierror.APIError
// @Router /orders [post]
func (h *OrdenesHandler) Crear(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}
	var req dto.CrearOrdenRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), uid, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.CrearOrdenResponse{Message: "Orden creada con items", Order: *resp})
}

// ObtenerPropia returns the order only to its owner.
func (h *OrdenesHandler) ObtenerPropia(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerParaUsuario(c.Request.Context(), id, uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Admin ─────────────────────────────────────────────────────────────────────

func (h *OrdenesHandler) ListarTodas(c *gin.Context) {
	resp, err := h.svc.ListarTodas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.OrdenListResponse{Orders: resp})
}

func (h *OrdenesHandler) ObtenerAdmin(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerAdmin(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdenesHandler) ActualizarMetodoPago(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarMetodoPagoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarMetodoPago(c.Request.Context(), id, req.MetodoPago)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ActualizarOrdenResponse{Message: "Método de pago actualizado", Order: *resp})
}

// Imprimir godoc
// @Summary Recibos PDF de una orden, uno por grupo de categoría
// @Tags ordenes
// @Produce json
// @Param id path string true "ID de la orden"
// @Success 200 {object} dto.RecibosResponse
// @Failure 404 {object} apierror.APIError
// @Router /admin/orders/{id}/imprimir [get]
func (h *OrdenesHandler) Imprimir(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	lote, err := h.recibos.Generar(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := dto.RecibosResponse{OrderID: id.String(), Receipts: make([]dto.ReciboArchivo, len(lote.Recibos))}
	for i, r := range lote.Recibos {
		resp.Receipts[i] = dto.ReciboArchivo{
			Categoria:     r.Categoria,
			Filename:      r.Filename,
			ContentType:   r.ContentType,
			ContentBase64: base64.StdEncoding.EncodeToString(r.Content),
		}
	}
	c.JSON(http.StatusOK, resp)
}
