package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ActualizarRolRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type ActualizarPuntosRequest struct {
	Puntos *int `json:"puntos" validate:"required,min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PerfilResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Rut       string    `json:"rut"`
	Role      string    `json:"role"`
	Puntos    int       `json:"puntos"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

type ClaimsResponse struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
	Iat   int64  `json:"iat"`
}

type MeResponse struct {
	Message string         `json:"message"`
	User    ClaimsResponse `json:"user"`
}

type UsuarioListResponse struct {
	Users []UsuarioResponse `json:"users"`
}

type PerfilListResponse struct {
	Profiles []PerfilResponse `json:"profiles"`
}

type PerfilEnvelope struct {
	Message string         `json:"message,omitempty"`
	Profile PerfilResponse `json:"profile"`
}
