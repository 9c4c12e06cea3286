package service

import (
	"context"
	"testing"
	"time"

	"cuchito/internal/apierror"
	"cuchito/internal/dto"
	"cuchito/internal/model"
	"cuchito/internal/repository"
	"cuchito/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeQueue struct{ ids []uuid.UUID }

func (q *fakeQueue) EnqueueRecibo(_ context.Context, id uuid.UUID) error {
	q.ids = append(q.ids, id)
	return nil
}

func newTestOrdenes(t *testing.T, queue ReciboQueue) (*ordenService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewOrdenService(
		repository.NewOrdenRepository(db),
		repository.NewProductoRepository(db),
		repository.NewPerfilRepository(db),
		queue,
		santiago,
	).(*ordenService)
	// 2025-03-02 02:30 UTC is still March 1st in Santiago (UTC-3).
	svc.now = func() time.Time { return time.Date(2025, 3, 2, 2, 30, 0, 0, time.UTC) }
	return svc, db
}

func item(p *model.Producto, qty int, price int64) dto.OrdenItemRequest {
	id := p.ID.String()
	return dto.OrdenItemRequest{ProductID: &id, Quantity: &qty, Price: dec(price)}
}

func TestCrearOrden_WritesOrderAndItems(t *testing.T) {
	q := &fakeQueue{}
	svc, db := newTestOrdenes(t, q)
	u := seedUsuario(t, db, "ana@example.com", model.RolUsuario, 0)
	churro := seedProducto(t, db, "Churro", 1000, ptr("Churros"))
	cafe := seedProducto(t, db, "Café", 1500, ptr("Bebidas"))

	resp, err := svc.Crear(context.Background(), u.ID, dto.CrearOrdenRequest{
		Total: dec(3500), MetodoPago: "efectivo", Status: "pagado",
		Items: []dto.OrdenItemRequest{item(churro, 2, 1000), item(cafe, 1, 1500)},
	})
	require.NoError(t, err)
	assert.Equal(t, "2025-03-01", resp.Fecha)
	assert.Equal(t, 1, resp.OrderNumber)
	assert.True(t, decimal.NewFromInt(3500).Equal(resp.Total))

	var n int64
	db.Model(&model.OrdenItem{}).Where("order_id = ?", resp.ID).Count(&n)
	assert.EqualValues(t, 2, n)
	require.Len(t, q.ids, 1)
	assert.Equal(t, resp.ID, q.ids[0].String())
}

func TestCrearOrden_DailyNumbering(t *testing.T) {
	svc, db := newTestOrdenes(t, nil)
	u := seedUsuario(t, db, "ana@example.com", model.RolUsuario, 0)
	p := seedProducto(t, db, "Churro", 1000, nil)
	req := dto.CrearOrdenRequest{Total: dec(1000), MetodoPago: "tarjeta", Status: "pagado", Items: []dto.OrdenItemRequest{item(p, 1, 1000)}}

	first, err := svc.Crear(context.Background(), u.ID, req)
	require.NoError(t, err)
	second, err := svc.Crear(context.Background(), u.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 1, first.OrderNumber)
	assert.Equal(t, 2, second.OrderNumber)

	svc.now = func() time.Time { return time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC) }
	next, err := svc.Crear(context.Background(), u.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-02", next.Fecha)
	assert.Equal(t, 1, next.OrderNumber, "numbering restarts every business day")
}

func TestCrearOrden_BadLastItemRollsBack(t *testing.T) {
	q := &fakeQueue{}
	svc, db := newTestOrdenes(t, q)
	u := seedUsuario(t, db, "ana@example.com", model.RolUsuario, 10)
	p := seedProducto(t, db, "Churro", 1000, nil)
	ghost := &model.Producto{ID: uuid.New()}

	_, err := svc.Crear(context.Background(), u.ID, dto.CrearOrdenRequest{
		Total: dec(3000), MetodoPago: "efectivo", Status: "pagado", PointsEarned: 5,
		Items: []dto.OrdenItemRequest{item(p, 1, 1000), item(p, 1, 1000), item(ghost, 1, 1000)},
	})
	require.Error(t, err)
	assert.True(t, apierror.Is(err, apierror.KindValidation))
	assert.Contains(t, err.Error(), "item 3")

	var orders, items int64
	db.Model(&model.Orden{}).Count(&orders)
	db.Model(&model.OrdenItem{}).Count(&items)
	assert.Zero(t, orders)
	assert.Zero(t, items)
	assert.Empty(t, q.ids)

	var perfil model.Perfil
	require.NoError(t, db.First(&perfil, "id = ?", u.ID).Error)
	assert.Equal(t, 10, perfil.Puntos, "points untouched on rollback")
}

func TestCrearOrden_ItemValidation(t *testing.T) {
	svc, db := newTestOrdenes(t, nil)
	u := seedUsuario(t, db, "ana@example.com", model.RolUsuario, 0)
	p := seedProducto(t, db, "Churro", 1000, nil)
	id := p.ID.String()
	bad := "no-es-uuid"

	cases := []struct {
		name string
		it   dto.OrdenItemRequest
	}{
		{"missing price", dto.OrdenItemRequest{ProductID: &id, Quantity: ptr(1)}},
		{"zero quantity", dto.OrdenItemRequest{ProductID: &id, Quantity: ptr(0), Price: dec(1000)}},
		{"negative price", dto.OrdenItemRequest{ProductID: &id, Quantity: ptr(1), Price: dec(-1)}},
		{"malformed id", dto.OrdenItemRequest{ProductID: &bad, Quantity: ptr(1), Price: dec(1000)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Crear(context.Background(), u.ID, dto.CrearOrdenRequest{
				Total: dec(1000), MetodoPago: "efectivo", Status: "pagado", Items: []dto.OrdenItemRequest{tc.it},
			})
			assert.True(t, apierror.Is(err, apierror.KindValidation), "got %v", err)
		})
	}

	_, err := svc.Crear(context.Background(), u.ID, dto.CrearOrdenRequest{Total: dec(1000), MetodoPago: "efectivo", Status: "pagado"})
	assert.True(t, apierror.Is(err, apierror.KindValidation), "items are required")

	_, err = svc.Crear(context.Background(), u.ID, dto.CrearOrdenRequest{
		Total: dec(0), MetodoPago: "efectivo", Status: "pagado",
		Items: []dto.OrdenItemRequest{{ProductID: &id, Quantity: ptr(1), Price: dec(1000)}},
	})
	assert.True(t, apierror.Is(err, apierror.KindValidation), "a zero total is rejected")

	var orders int64
	db.Model(&model.Orden{}).Count(&orders)
	assert.Zero(t, orders)
}

func TestCrearOrden_Points(t *testing.T) {
	svc, db := newTestOrdenes(t, nil)
	u := seedUsuario(t, db, "ana@example.com", model.RolUsuario, 10)
	p := seedProducto(t, db, "Churro", 1000, nil)
	base := dto.CrearOrdenRequest{Total: dec(1000), MetodoPago: "efectivo", Status: "pagado", Items: []dto.OrdenItemRequest{item(p, 1, 1000)}}

	req := base
	req.PointsUsed, req.PointsEarned = 4, 1
	_, err := svc.Crear(context.Background(), u.ID, req)
	require.NoError(t, err)

	var perfil model.Perfil
	require.NoError(t, db.First(&perfil, "id = ?", u.ID).Error)
	assert.Equal(t, 7, perfil.Puntos)

	req = base
	req.PointsUsed = 50
	_, err = svc.Crear(context.Background(), u.ID, req)
	assert.True(t, apierror.Is(err, apierror.KindValidation))
	assert.EqualError(t, err, "Puntos insuficientes")
}

func TestObtenerParaUsuario_OwnerScoped(t *testing.T) {
	svc, db := newTestOrdenes(t, nil)
	a := seedUsuario(t, db, "a@example.com", model.RolUsuario, 0)
	b := seedUsuario(t, db, "b@example.com", model.RolUsuario, 0)
	p := seedProducto(t, db, "Churro", 1000, ptr("Churros"))

	created, err := svc.Crear(context.Background(), a.ID, dto.CrearOrdenRequest{
		Total: dec(2000), MetodoPago: "efectivo", Status: "pagado", Items: []dto.OrdenItemRequest{item(p, 2, 1000)},
	})
	require.NoError(t, err)
	id := uuid.MustParse(created.ID)

	got, err := svc.ObtenerParaUsuario(context.Background(), id, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assert.Equal(t, "Churro", got.Items[0].Name)
	assert.Equal(t, 2, got.Items[0].Quantity)

	_, err = svc.ObtenerParaUsuario(context.Background(), id, b.ID)
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}

func TestAdminOrdenes(t *testing.T) {
	svc, db := newTestOrdenes(t, nil)
	a := seedUsuario(t, db, "a@example.com", model.RolUsuario, 0)
	o := seedOrden(t, db, a.ID, "2025-03-01", 1, "efectivo", 1000)

	list, err := svc.ListarTodas(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Username)
	assert.Equal(t, "a@example.com", *list[0].Username)

	updated, err := svc.ActualizarMetodoPago(context.Background(), o.ID, "transferencia")
	require.NoError(t, err)
	assert.Equal(t, "transferencia", updated.MetodoPago)

	_, err = svc.ActualizarMetodoPago(context.Background(), uuid.New(), "efectivo")
	assert.True(t, apierror.Is(err, apierror.KindNotFound))

	_, err = svc.ObtenerAdmin(context.Background(), uuid.New())
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}
