package service

import (
	"context"
	"testing"
	"time"

	"cuchito/internal/apierror"
	"cuchito/internal/config"
	"cuchito/internal/dto"
	"cuchito/internal/model"
	"cuchito/internal/repository"
	"cuchito/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func newTestAuth(t *testing.T) (*authService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	cfg := &config.Config{JWTSecret: "test_jwt_secret_32_chars_minimum!", JWTExpirationMinutes: 60, RefreshTokenDays: 7}
	svc := NewAuthService(
		repository.NewUsuarioRepository(db),
		repository.NewPerfilRepository(db),
		repository.NewRefreshTokenRepository(db),
		cfg,
	).(*authService)
	return svc, db
}

func registerAndLogin(t *testing.T, svc *authService, email string) *dto.LoginResponse {
	t.Helper()
	ctx := context.Background()
	_, err := svc.Register(ctx, dto.RegisterRequest{Email: email, Username: "ana", Password: "secreto1", Rut: "12345678-9"})
	require.NoError(t, err)
	resp, err := svc.Login(ctx, dto.LoginRequest{Email: email, Password: "secreto1"})
	require.NoError(t, err)
	return resp
}

// ── Register ──────────────────────────────────────────────────────────────────

func TestRegister_Validation(t *testing.T) {
	svc, db := newTestAuth(t)
	cases := []struct {
		name string
		req  dto.RegisterRequest
		msg  string
	}{
		{"missing rut", dto.RegisterRequest{Email: "a@b.cl", Username: "a", Password: "secreto1"}, "Todos los campos son obligatorios"},
		{"short password", dto.RegisterRequest{Email: "a@b.cl", Username: "a", Password: "12345", Rut: "1-9"}, "La contraseña debe tener al menos 6 caracteres"},
		{"bad email", dto.RegisterRequest{Email: "no-arroba", Username: "a", Password: "secreto1", Rut: "1-9"}, "Email no válido"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, apierror.Is(err, apierror.KindValidation))
			assert.EqualError(t, err, tc.msg)
		})
	}

	var n int64
	db.Model(&model.Usuario{}).Count(&n)
	assert.Zero(t, n, "rejected registrations must not write users")
}

func TestRegister_StoresOnlyHashAndProfile(t *testing.T) {
	svc, db := newTestAuth(t)

	resp, err := svc.Register(context.Background(), dto.RegisterRequest{
		Email: "Ana@Example.com", Username: "ana", Password: "secreto1", Rut: "12345678-9",
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", resp.Email)

	var u model.Usuario
	require.NoError(t, db.First(&u, "id = ?", resp.ID).Error)
	assert.NotEqual(t, "secreto1", u.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secreto1")))

	var p model.Perfil
	require.NoError(t, db.First(&p, "id = ?", resp.ID).Error)
	assert.Equal(t, model.RolUsuario, p.Rol)
	assert.Zero(t, p.Puntos)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuth(t)
	req := dto.RegisterRequest{Email: "ana@example.com", Username: "ana", Password: "secreto1", Rut: "1-9"}
	_, err := svc.Register(context.Background(), req)
	require.NoError(t, err)

	req.Email = "ANA@example.com"
	_, err = svc.Register(context.Background(), req)
	assert.True(t, apierror.Is(err, apierror.KindConflict))
}

// ── Login ─────────────────────────────────────────────────────────────────────

func TestLogin_IssuesAccessAndRefresh(t *testing.T) {
	svc, db := newTestAuth(t)
	before := time.Now().UTC()
	resp := registerAndLogin(t, svc, "ana@example.com")

	claims, err := svc.VerifyAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", claims.Email)

	assert.Len(t, resp.RefreshToken, 128)
	var rt model.RefreshToken
	require.NoError(t, db.First(&rt, "token = ?", resp.RefreshToken).Error)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), rt.ExpiresAt, time.Minute)
}

func TestLogin_Failures(t *testing.T) {
	svc, _ := newTestAuth(t)
	registerAndLogin(t, svc, "ana@example.com")
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com"})
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "nadie@example.com", Password: "secreto1"})
	assert.True(t, apierror.Is(err, apierror.KindUnauthorized))
	assert.EqualError(t, err, "Email no registrado")

	_, err = svc.Login(ctx, dto.LoginRequest{Email: "ana@example.com", Password: "otra-clave"})
	assert.True(t, apierror.Is(err, apierror.KindUnauthorized))
	assert.EqualError(t, err, "Contraseña incorrecta")
}

// ── Refresh / Logout ──────────────────────────────────────────────────────────

func TestRefresh_ReusableUntilExpiry(t *testing.T) {
	svc, db := newTestAuth(t)
	login := registerAndLogin(t, svc, "ana@example.com")
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		resp, err := svc.Refresh(ctx, login.RefreshToken)
		require.NoError(t, err)
		_, err = svc.VerifyAccessToken(resp.AccessToken)
		assert.NoError(t, err)
	}

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	_, err := svc.Refresh(ctx, login.RefreshToken)
	assert.True(t, apierror.Is(err, apierror.KindExpired))

	var n int64
	db.Model(&model.RefreshToken{}).Where("token = ?", login.RefreshToken).Count(&n)
	assert.Zero(t, n, "expired token must be deleted")
}

func TestRefresh_UnknownToken(t *testing.T) {
	svc, _ := newTestAuth(t)
	_, err := svc.Refresh(context.Background(), "deadbeef")
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	_, err = svc.Refresh(context.Background(), "")
	assert.True(t, apierror.Is(err, apierror.KindValidation))
}

func TestLogout_RevokesToken(t *testing.T) {
	svc, _ := newTestAuth(t)
	login := registerAndLogin(t, svc, "ana@example.com")
	ctx := context.Background()

	require.NoError(t, svc.Logout(ctx, login.RefreshToken))

	_, err := svc.Refresh(ctx, login.RefreshToken)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	err = svc.Logout(ctx, login.RefreshToken)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestReapExpired(t *testing.T) {
	svc, db := newTestAuth(t)
	registerAndLogin(t, svc, "ana@example.com")
	registerAndLogin(t, svc, "bea@example.com")

	n, err := svc.ReapExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	n, err = svc.ReapExpired(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	var left int64
	db.Model(&model.RefreshToken{}).Count(&left)
	assert.Zero(t, left)
}
