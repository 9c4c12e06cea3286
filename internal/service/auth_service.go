package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"cuchito/internal/apierror"
	"cuchito/internal/config"
	"cuchito/internal/dto"
	"cuchito/internal/model"
	"cuchito/internal/repository"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BcryptCost is shared with the seed tools.
const BcryptCost = 12

const minPasswordLen = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthService interface {
	Register(ctx context.Context, req dto.RegisterRequest) (*dto.UsuarioResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	VerifyAccessToken(token string) (*AccessClaims, error)
	ReapExpired(ctx context.Context) (int64, error)
}

type authService struct {
	usuarios   repository.UsuarioRepository
	perfiles   repository.PerfilRepository
	tokens     repository.RefreshTokenRepository
	issuer     *TokenIssuer
	refreshTTL time.Duration
	now        func() time.Time
}

func NewAuthService(
	usuarios repository.UsuarioRepository,
	perfiles repository.PerfilRepository,
	tokens repository.RefreshTokenRepository,
	cfg *config.Config,
) AuthService {
	return &authService{
		usuarios:   usuarios,
		perfiles:   perfiles,
		tokens:     tokens,
		issuer:     NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL()),
		refreshTTL: cfg.RefreshTokenTTL(),
		now:        time.Now,
	}
}

// ── Register ──────────────────────────────────────────────────────────────────
// User and Profile are written in the same transaction: an identity without a
// profile can never be committed.

func (s *authService) Register(ctx context.Context, req dto.RegisterRequest) (*dto.UsuarioResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	rut := strings.TrimSpace(req.Rut)

	if email == "" || username == "" || req.Password == "" || rut == "" {
		return nil, apierror.Validation("Todos los campos son obligatorios")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLen {
		return nil, apierror.Validation("La contraseña debe tener al menos 6 caracteres")
	}
	if !emailPattern.MatchString(email) {
		return nil, apierror.Validation("Email no válido")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("registrar usuario: hash: %w", err)
	}

	user := &model.Usuario{Email: email, Username: username, PasswordHash: string(hash)}
	err = runTx(ctx, s.usuarios.DB(), func(tx *gorm.DB) error {
		if err := s.usuarios.Create(ctx, tx, user); err != nil {
			return err
		}
		return s.perfiles.Create(ctx, tx, &model.Perfil{
			ID:       user.ID,
			Username: username,
			Rut:      rut,
			Rol:      model.RolUsuario,
		})
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, apierror.Conflict("El email ya está registrado")
	}
	if err != nil {
		return nil, fmt.Errorf("registrar usuario: %w", err)
	}

	return &dto.UsuarioResponse{ID: user.ID.String(), Email: user.Email, Username: user.Username}, nil
}

// ── Login ─────────────────────────────────────────────────────────────────────

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (*dto.LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, apierror.Validation("Email y contraseña requeridos")
	}

	user, err := s.usuarios.FindByEmail(ctx, email)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.Unauthorized("Email no registrado")
	}
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apierror.Unauthorized("Contraseña incorrecta")
	}

	accessToken, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("login: sign: %w", err)
	}
	refreshToken, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, &model.RefreshToken{
		Token:     refreshToken,
		UserID:    user.ID,
		ExpiresAt: s.now().UTC().Add(s.refreshTTL),
	}); err != nil {
		return nil, fmt.Errorf("login: persist refresh token: %w", err)
	}

	return &dto.LoginResponse{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

// ── Refresh / Logout ──────────────────────────────────────────────────────────
// The refresh token is not rotated: the same token stays valid until its
// original expiry or until logout.

func (s *authService) Refresh(ctx context.Context, refreshToken string) (*dto.RefreshResponse, error) {
	if refreshToken == "" {
		return nil, apierror.Validation("Refresh token requerido")
	}

	stored, err := s.tokens.FindByToken(ctx, refreshToken)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Token inválido")
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if stored.Expired(s.now()) {
		if _, err := s.tokens.DeleteByToken(ctx, refreshToken); err != nil {
			return nil, fmt.Errorf("refresh: delete stale token: %w", err)
		}
		return nil, apierror.Expired("Refresh token expirado")
	}

	user, err := s.usuarios.FindByID(ctx, stored.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.NotFound("Token inválido")
	}
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	accessToken, err := s.issuer.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("refresh: sign: %w", err)
	}
	return &dto.RefreshResponse{AccessToken: accessToken}, nil
}

func (s *authService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return apierror.Validation("Refresh token requerido")
	}
	n, err := s.tokens.DeleteByToken(ctx, refreshToken)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if n == 0 {
		return apierror.NotFound("Refresh token no encontrado")
	}
	return nil
}

func (s *authService) VerifyAccessToken(token string) (*AccessClaims, error) {
	return s.issuer.Verify(token)
}

// ReapExpired deletes every refresh token past its expiry.
func (s *authService) ReapExpired(ctx context.Context) (int64, error) {
	n, err := s.tokens.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("reap refresh tokens: %w", err)
	}
	return n, nil
}
