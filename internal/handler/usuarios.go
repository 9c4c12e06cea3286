package handler

import (
	"net/http"

	"cuchito/internal/dto"
	"cuchito/internal/middleware"
	"cuchito/internal/service"

	"github.com/gin-gonic/gin"
)

// ── Usuario (caller) ──────────────────────────────────────────────────────────

type UsuariosHandler struct{ svc service.PerfilService }

func NewUsuariosHandler(svc service.PerfilService) *UsuariosHandler {
	return &UsuariosHandler{svc: svc}
}

// Me echoes the identity carried by the access token.
func (h *UsuariosHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	resp := dto.MeResponse{Message: "Usuario autenticado"}
	resp.User.ID = claims.ID
	resp.User.Email = claims.Email
	if claims.ExpiresAt != nil {
		resp.User.Exp = claims.ExpiresAt.Unix()
	}
	if claims.IssuedAt != nil {
		resp.User.Iat = claims.IssuedAt.Unix()
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UsuariosHandler) Perfil(c *gin.Context) {
	uid, ok := mustUserID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), uid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PerfilEnvelope{Profile: *resp})
}

// ── Admin ─────────────────────────────────────────────────────────────────────

func (h *UsuariosHandler) ListarUsuarios(c *gin.Context) {
	resp, err := h.svc.ListarUsuarios(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.UsuarioListResponse{Users: resp})
}

func (h *UsuariosHandler) ListarPerfiles(c *gin.Context) {
	resp, err := h.svc.ListarPerfiles(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PerfilListResponse{Profiles: resp})
}

func (h *UsuariosHandler) ActualizarRol(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarRolRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarRol(c.Request.Context(), id, req.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PerfilEnvelope{Message: "Rol actualizado", Profile: *resp})
}

func (h *UsuariosHandler) ActualizarPuntos(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarPuntosRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarPuntos(c.Request.Context(), id, *req.Puntos)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PerfilEnvelope{Message: "Puntos actualizados", Profile: *resp})
}
