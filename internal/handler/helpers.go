package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"cuchito/internal/apierror"
	"cuchito/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Report JSON field names instead of Go field names.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes a 400 response if either step fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON inválido"))
		return false
	}
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			c.JSON(http.StatusBadRequest, apierror.New("Datos inválidos: "+strings.Join(fields, ", ")))
			return false
		}
		c.JSON(http.StatusBadRequest, apierror.New("Datos inválidos"))
		return false
	}
	return true
}

// respondError writes typed business errors with their status and message.
// Anything else is attached to the context so ErrorHandler logs it and
// answers a generic 500.
func respondError(c *gin.Context, err error) {
	var apiErr *apierror.Error
	if errors.As(err, &apiErr) {
		c.JSON(apierror.HTTPStatus(apiErr), apierror.New(apiErr.Message))
		return
	}
	_ = c.Error(err)
	c.Abort()
}

// parseID reads a uuid path parameter, writing 400 when malformed.
func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("ID inválido"))
		return uuid.Nil, false
	}
	return id, true
}

// mustUserID returns the caller id placed by JWTAuth.
func mustUserID(c *gin.Context) (uuid.UUID, bool) {
	uid, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, apierror.New("Token no proporcionado"))
	}
	return uid, ok
}
