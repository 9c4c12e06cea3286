package service

import (
	"context"
	"fmt"
	"testing"

	"cuchito/internal/apierror"
	"cuchito/internal/infra"
	"cuchito/internal/model"
	"cuchito/internal/repository"
	"cuchito/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubRenderer struct{ rendered []infra.Receipt }

func (r *stubRenderer) Render(rc infra.Receipt) ([]byte, error) {
	r.rendered = append(r.rendered, rc)
	return []byte("%PDF-" + rc.Categoria), nil
}

func (r *stubRenderer) Filename(rc infra.Receipt) string {
	return fmt.Sprintf("pedido_%d_%s.pdf", rc.OrderNumber, rc.Categoria)
}

func addItem(t *testing.T, db *gorm.DB, o *model.Orden, p *model.Producto, qty int) {
	t.Helper()
	require.NoError(t, db.Omit("Producto").Create(&model.OrdenItem{OrderID: o.ID, ProductID: p.ID, Quantity: qty, Price: p.Price}).Error)
}

func TestAgruparPorCategoria(t *testing.T) {
	items := []repository.OrdenItemDetalle{
		{Name: "a", Category: ptr("Churros")},
		{Name: "b", Category: ptr("churros")},
		{Name: "c"},
		{Name: "d", Category: ptr("Churros")},
	}
	especiales, otros := AgruparPorCategoria(items, "Churros")
	require.Len(t, especiales, 2)
	assert.Equal(t, "a", especiales[0].Name)
	assert.Equal(t, "d", especiales[1].Name)
	require.Len(t, otros, 2, "match is exact and case-sensitive")
}

func TestGenerarRecibos(t *testing.T) {
	db := testutil.NewDB(t)
	r := &stubRenderer{}
	svc := NewReciboService(repository.NewOrdenRepository(db), r, "Churros")
	u := seedUsuario(t, db, "ana@example.com", model.RolUsuario, 0)
	churro := seedProducto(t, db, "Churro", 1000, ptr("Churros"))
	cafe := seedProducto(t, db, "Café", 1500, ptr("Bebidas"))

	both := seedOrden(t, db, u.ID, "2025-03-01", 1, "efectivo", 3500)
	addItem(t, db, both, churro, 2)
	addItem(t, db, both, cafe, 1)

	lote, err := svc.Generar(context.Background(), both.ID)
	require.NoError(t, err)
	require.Len(t, lote.Recibos, 2)
	assert.Equal(t, "Churros", lote.Recibos[0].Categoria)
	assert.Equal(t, CategoriaOtros, lote.Recibos[1].Categoria)
	assert.Equal(t, "application/pdf", lote.Recibos[0].ContentType)
	assert.Equal(t, "pedido_1_Churros.pdf", lote.Recibos[0].Filename)
	require.Len(t, r.rendered[0].Lines, 1)
	assert.Equal(t, 2, r.rendered[0].Lines[0].Quantity)

	only := seedOrden(t, db, u.ID, "2025-03-01", 2, "efectivo", 1500)
	addItem(t, db, only, cafe, 1)
	lote, err = svc.Generar(context.Background(), only.ID)
	require.NoError(t, err)
	require.Len(t, lote.Recibos, 1)
	assert.Equal(t, CategoriaOtros, lote.Recibos[0].Categoria)

	empty := seedOrden(t, db, u.ID, "2025-03-01", 3, "efectivo", 0)
	lote, err = svc.Generar(context.Background(), empty.ID)
	require.NoError(t, err)
	assert.Empty(t, lote.Recibos)

	_, err = svc.Generar(context.Background(), uuid.New())
	assert.True(t, apierror.Is(err, apierror.KindNotFound))
}
