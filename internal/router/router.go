package router

import (
	"time"

	"cuchito/internal/config"
	"cuchito/internal/handler"
	"cuchito/internal/infra"
	"cuchito/internal/middleware"
	"cuchito/internal/repository"
	"cuchito/internal/service"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the optional collaborators owned by the composition root.
// Zero values disable the matching feature.
type Deps struct {
	Redis        *redis.Client           // product cache, health
	ReciboQueue  service.ReciboQueue     // receipt jobs; nil when nobody consumes them
	MailBreaker  *infra.CircuitBreaker   // reported by /health
	LoginLimiter *middleware.RateLimiter // defaults to 20/min per IP
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, deps Deps) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())

	loc := cfg.Location()

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	perfilRepo := repository.NewPerfilRepository(db)
	tokenRepo := repository.NewRefreshTokenRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ordenRepo := repository.NewOrdenRepository(db)
	cierreRepo := repository.NewCierreRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(usuarioRepo, perfilRepo, tokenRepo, cfg)
	perfilSvc := service.NewPerfilService(perfilRepo, usuarioRepo)
	productoSvc := service.NewProductoService(productoRepo, deps.Redis, cfg.ProductCacheTTL())
	reciboSvc := service.NewReciboService(ordenRepo, infra.NewReceiptRenderer(cfg.BusinessName, loc), cfg.ReceiptSpecialCategory)
	cierreSvc := service.NewCierreService(cierreRepo, ordenRepo, loc)

	ordenSvc := service.NewOrdenService(ordenRepo, productoRepo, perfilRepo, deps.ReciboQueue, loc)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	ordenesH := handler.NewOrdenesHandler(ordenSvc, reciboSvc)
	cierresH := handler.NewCierresHandler(cierreSvc)
	usuariosH := handler.NewUsuariosHandler(perfilSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, deps.Redis, deps.MailBreaker))
	r.GET("/products", productosH.Listar)
	r.GET("/products/:id", productosH.ObtenerPorID)

	loginRL := deps.LoginLimiter
	if loginRL == nil {
		loginRL = middleware.NewRateLimiter(20, time.Minute)
	}
	auth := r.Group("/auth")
	{
		auth.POST("/register", authH.Register)
		auth.POST("/login", middleware.LoginRateLimiter(loginRL), authH.Login)
		auth.POST("/refresh", authH.Refresh)
		auth.POST("/logout", authH.Logout)
	}

	jwtMW := middleware.JWTAuth(authSvc)

	user := r.Group("/user", jwtMW)
	{
		user.GET("/me", usuariosH.Me)
		user.GET("/profile", usuariosH.Perfil)
	}

	orders := r.Group("/orders", jwtMW)
	{
		orders.POST("", ordenesH.Crear)
		orders.GET("/:id", ordenesH.ObtenerPropia)
	}

	// Admin: the role is re-read from the profile on every request so a
	// demotion takes effect before the access token expires.
	admin := r.Group("/admin", jwtMW, middleware.RequireAdmin(perfilSvc))
	{
		admin.POST("/products", productosH.Crear)
		admin.PUT("/products/:id", productosH.Actualizar)
		admin.DELETE("/products/:id", productosH.Eliminar)

		admin.GET("/orders", ordenesH.ListarTodas)
		admin.GET("/orders/:id", ordenesH.ObtenerAdmin)
		admin.PUT("/orders/:id", ordenesH.ActualizarMetodoPago)
		admin.GET("/orders/:id/imprimir", ordenesH.Imprimir)

		cierres := admin.Group("/cierres-caja")
		{
			cierres.POST("", cierresH.CrearManual)
			cierres.GET("", cierresH.Listar)
			cierres.GET("/hoy", cierresH.Hoy)
			cierres.GET("/pendientes", cierresH.Pendientes)
			cierres.POST("/auto/:fecha", cierresH.CrearParaFecha)
			cierres.GET("/:id", cierresH.Obtener)
		}

		admin.GET("/users", usuariosH.ListarUsuarios)
		admin.GET("/profiles", usuariosH.ListarPerfiles)
		admin.PUT("/profiles/:id/role", usuariosH.ActualizarRol)
		admin.PUT("/profiles/:id/puntos", usuariosH.ActualizarPuntos)
	}

	// Swagger UI, only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
