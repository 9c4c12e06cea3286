package infra

import (
	"fmt"

	"cuchito/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Usuario{},
		&model.Perfil{},
		&model.RefreshToken{},
		&model.Producto{},
		&model.Orden{},
		&model.OrdenItem{},
		&model.CierreCaja{},
	}
}

// NewDatabase establishes a GORM connection backed by pgx. Driver errors are
// translated so that unique and foreign key violations surface as
// gorm.ErrDuplicatedKey and gorm.ErrForeignKeyViolated.
func NewDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return db, nil
}

// RunMigrations creates or updates all tables, then applies the idempotent
// SQL patches that AutoMigrate cannot express.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	return applySchemaPatches(db)
}

// applySchemaPatches only runs on PostgreSQL; each statement is guarded so
// re-running on an already-patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	patches := []string{
		// fecha format guard: the business date is always YYYY-MM-DD
		`DO $$ BEGIN
		  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_cierres_caja_fecha_formato') THEN
		    ALTER TABLE cierres_caja ADD CONSTRAINT chk_cierres_caja_fecha_formato
		        CHECK (fecha ~ '^\d{4}-\d{2}-\d{2}$');
		  END IF;
		END $$`,
		// pending closings anti-join lists order dates newest first
		`CREATE INDEX IF NOT EXISTS idx_orders_fecha_desc ON orders (fecha DESC)`,
	}

	for _, sql := range patches {
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", sql[:min(len(sql), 60)], err)
		}
	}
	return nil
}
