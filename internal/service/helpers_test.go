package service

import (
	"testing"
	"time"

	"cuchito/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var santiago = mustLoc("America/Santiago")

func mustLoc(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// seedUsuario inserts a user with its profile. The password hash is a
// placeholder: these fixtures never log in.
func seedUsuario(t *testing.T, db *gorm.DB, email, rol string, puntos int) *model.Usuario {
	t.Helper()
	u := &model.Usuario{Email: email, Username: email, PasswordHash: "x"}
	require.NoError(t, db.Create(u).Error)
	require.NoError(t, db.Create(&model.Perfil{
		ID: u.ID, Username: email, Rut: "11111111-1", Rol: rol, Puntos: puntos,
	}).Error)
	return u
}

func seedProducto(t *testing.T, db *gorm.DB, name string, price int64, category *string) *model.Producto {
	t.Helper()
	p := &model.Producto{Name: name, Price: decimal.NewFromInt(price), Category: category}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedOrden(t *testing.T, db *gorm.DB, userID uuid.UUID, fecha string, num int, metodo string, total int64) *model.Orden {
	t.Helper()
	o := &model.Orden{
		Fecha: fecha, OrderNumber: num, UserID: userID,
		Total: decimal.NewFromInt(total), MetodoPago: metodo, Status: "pagado",
	}
	require.NoError(t, db.Omit("Items", "Usuario").Create(o).Error)
	return o
}

func ptr[T any](v T) *T { return &v }

func dec(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
