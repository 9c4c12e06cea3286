package router

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"cuchito/internal/config"
	"cuchito/internal/model"
	"cuchito/internal/testutil"
	"cuchito/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

type testEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	rdb    *redis.Client
}

func testConfig() *config.Config {
	return &config.Config{
		Env:                    "test",
		JWTSecret:              "test_jwt_secret_32_chars_minimum!",
		JWTExpirationMinutes:   60,
		RefreshTokenDays:       7,
		TimeZone:               "America/Santiago",
		BusinessName:           "CHURROS CUCHITO",
		ReceiptSpecialCategory: "Churros",
		ProductCacheTTLSeconds: 60,
	}
}

func newEnv(t *testing.T, db *gorm.DB, rdb *redis.Client) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	deps := Deps{Redis: rdb}
	if rdb != nil {
		deps.ReciboQueue = worker.NewDispatcher(rdb)
	}
	return &testEnv{engine: New(testConfig(), db, deps), db: db, rdb: rdb}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type loginBody struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// signup registers and logs in; admin promotes the profile directly in the DB.
func (e *testEnv) signup(t *testing.T, email string, admin bool) (string, loginBody) {
	t.Helper()
	w := e.do(t, http.MethodPost, "/auth/register", map[string]string{
		"email": email, "username": email, "password": "secreto1", "rut": "12345678-9",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	reg := decode[struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
	}](t, w)

	if admin {
		require.NoError(t, e.db.Model(&model.Perfil{}).Where("id = ?", reg.User.ID).Update("role", model.RolAdmin).Error)
	}

	w = e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": "secreto1"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return reg.User.ID, decode[loginBody](t, w)
}

func (e *testEnv) crearProducto(t *testing.T, token, name string, price int, category string) string {
	t.Helper()
	w := e.do(t, http.MethodPost, "/admin/products", map[string]any{"name": name, "price": price, "category": category}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[struct {
		Product struct {
			ID string `json:"id"`
		} `json:"product"`
	}](t, w).Product.ID
}

type ordenBody struct {
	ID          string `json:"id"`
	OrderNumber int    `json:"order_number"`
	Fecha       string `json:"fecha"`
}

// runStoreFlow is shared by the sqlite and the containerized suites.
func runStoreFlow(t *testing.T, e *testEnv) {
	_, admin := e.signup(t, "admin@cuchito.test", true)
	_, ana := e.signup(t, "ana@cuchito.test", false)
	_, bea := e.signup(t, "bea@cuchito.test", false)

	// non-admins cannot manage the catalog
	w := e.do(t, http.MethodPost, "/admin/products", map[string]any{"name": "x", "price": 1}, ana.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	churro := e.crearProducto(t, admin.AccessToken, "Churro", 1000, "Churros")
	cafe := e.crearProducto(t, admin.AccessToken, "Café", 1500, "Bebidas")

	w = e.do(t, http.MethodGet, "/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[struct {
		Products []json.RawMessage `json:"products"`
	}](t, w).Products, 2)

	// ana orders, bea cannot see it
	w = e.do(t, http.MethodPost, "/orders", map[string]any{
		"total": 3500, "metodo_pago": "efectivo", "status": "pagado",
		"items": []map[string]any{
			{"product_id": churro, "quantity": 2, "price": 1000},
			{"product_id": cafe, "quantity": 1, "price": 1500},
		},
	}, ana.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	orden := decode[struct {
		Message string    `json:"message"`
		Order   ordenBody `json:"order"`
	}](t, w)
	assert.Equal(t, "Orden creada con items", orden.Message)
	assert.Equal(t, 1, orden.Order.OrderNumber)

	w = e.do(t, http.MethodGet, "/orders/"+orden.Order.ID, nil, ana.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	detalle := decode[struct {
		Order ordenBody         `json:"order"`
		Items []json.RawMessage `json:"items"`
	}](t, w)
	assert.Equal(t, orden.Order.ID, detalle.Order.ID)
	assert.Len(t, detalle.Items, 2)

	w = e.do(t, http.MethodGet, "/orders/"+orden.Order.ID, nil, bea.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// a bad item aborts the whole order
	w = e.do(t, http.MethodPost, "/orders", map[string]any{
		"total": 1000, "metodo_pago": "efectivo", "status": "pagado",
		"items": []map[string]any{{"product_id": churro, "quantity": 0, "price": 1000}},
	}, ana.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// receipts: one PDF per category group
	w = e.do(t, http.MethodGet, "/admin/orders/"+orden.Order.ID+"/imprimir", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	recibos := decode[struct {
		OrderID  string `json:"order_id"`
		Receipts []struct {
			Categoria     string `json:"categoria"`
			ContentBase64 string `json:"content_base64"`
		} `json:"receipts"`
	}](t, w)
	require.Len(t, recibos.Receipts, 2)
	assert.Equal(t, "Churros", recibos.Receipts[0].Categoria)
	assert.Equal(t, "Otros", recibos.Receipts[1].Categoria)
	pdf, err := base64.StdEncoding.DecodeString(recibos.Receipts[0].ContentBase64)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	// cash closing for the order's business date
	closing := map[string]any{"maquina1": 0, "salidas_efectivo": 0, "ingresos_efectivo": 0}
	w = e.do(t, http.MethodGet, "/admin/cierres-caja/pendientes", nil, admin.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), orden.Order.Fecha)

	w = e.do(t, http.MethodPost, "/admin/cierres-caja/auto/"+orden.Order.Fecha, closing, admin.AccessToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	cierre := decode[struct {
		Cierre struct {
			TotalEfectivo json.Number `json:"total_efectivo"`
		} `json:"cierre"`
	}](t, w)
	assert.Equal(t, "3500", cierre.Cierre.TotalEfectivo.String())

	w = e.do(t, http.MethodPost, "/admin/cierres-caja/auto/"+orden.Order.Fecha, closing, admin.AccessToken)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodPost, "/admin/cierres-caja/auto/2000-01-01", closing, admin.AccessToken)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var cierres int64
	e.db.Model(&model.CierreCaja{}).Count(&cierres)
	assert.EqualValues(t, 1, cierres)

	// refresh is reusable until logout
	for i := 0; i < 2; i++ {
		w = e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": ana.RefreshToken}, "")
		assert.Equal(t, http.StatusOK, w.Code)
	}
	w = e.do(t, http.MethodPost, "/auth/logout", map[string]string{"refreshToken": ana.RefreshToken}, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": ana.RefreshToken}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestStoreFlow(t *testing.T) {
	runStoreFlow(t, newEnv(t, testutil.NewDB(t), nil))
}

func TestAdminDemotionTakesEffectImmediately(t *testing.T) {
	e := newEnv(t, testutil.NewDB(t), nil)
	_, root := e.signup(t, "root@cuchito.test", true)
	otherID, other := e.signup(t, "otro@cuchito.test", true)

	w := e.do(t, http.MethodGet, "/admin/users", nil, other.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	w = e.do(t, http.MethodPut, fmt.Sprintf("/admin/profiles/%s/role", otherID), map[string]string{"role": "user"}, root.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = e.do(t, http.MethodGet, "/admin/users", nil, other.AccessToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPut, fmt.Sprintf("/admin/profiles/%s/role", otherID), map[string]string{"role": "owner"}, root.AccessToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUserEndpoints(t *testing.T) {
	e := newEnv(t, testutil.NewDB(t), nil)
	id, ana := e.signup(t, "ana@cuchito.test", false)

	w := e.do(t, http.MethodGet, "/user/me", nil, ana.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[struct {
		User struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Exp   int64  `json:"exp"`
		} `json:"user"`
	}](t, w)
	assert.Equal(t, id, me.User.ID)
	assert.Equal(t, "ana@cuchito.test", me.User.Email)
	assert.NotZero(t, me.User.Exp)

	w = e.do(t, http.MethodGet, "/user/profile", nil, ana.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"user"`)

	assert.Equal(t, http.StatusUnauthorized, e.do(t, http.MethodGet, "/user/me", nil, "").Code)
}

func TestAuthErrors(t *testing.T) {
	e := newEnv(t, testutil.NewDB(t), nil)

	w := e.do(t, http.MethodPost, "/auth/register", map[string]string{"email": "a@b.cl"}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Todos los campos son obligatorios"}`, w.Body.String())

	w = e.do(t, http.MethodPost, "/auth/login", map[string]string{"email": "nadie@b.cl", "password": "x"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = e.do(t, http.MethodPost, "/auth/refresh", map[string]string{"refreshToken": "nope"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodPost, "/auth/logout", map[string]string{"refreshToken": "nope"}, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealth_WithoutRedis(t *testing.T) {
	e := newEnv(t, testutil.NewDB(t), nil)
	w := e.do(t, http.MethodGet, "/health", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"disabled"`)
}
