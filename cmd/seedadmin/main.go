// cmd/seedadmin/main.go: Crea/actualiza un usuario administrador.
// Uso: SEED_EMAIL=... SEED_PASSWORD=... go run ./cmd/seedadmin
package main

import (
	"context"
	"fmt"
	"os"

	"cuchito/internal/config"
	"cuchito/internal/infra"
	"cuchito/internal/model"
	"cuchito/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	email := envOr("SEED_EMAIL", "admin@cuchito.local")
	password := envOr("SEED_PASSWORD", "admin1234")
	username := envOr("SEED_USERNAME", "admin")
	rut := envOr("SEED_RUT", "11111111-1")

	hash, err := bcrypt.GenerateFromPassword([]byte(password), service.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt error")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect error")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("migration error")
	}

	err = db.WithContext(context.Background()).Transaction(func(tx *gorm.DB) error {
		var u model.Usuario
		res := tx.Where("LOWER(email) = LOWER(?)", email).Limit(1).Find(&u)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			u = model.Usuario{Email: email, Username: username}
		}
		u.PasswordHash = string(hash)
		if err := tx.Save(&u).Error; err != nil {
			return err
		}
		p := model.Perfil{ID: u.ID, Username: username, Rut: rut, Rol: model.RolAdmin}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role"}),
		}).Create(&p).Error
	})
	if err != nil {
		log.Fatal().Err(err).Msg("insert error")
	}
	fmt.Printf("Usuario '%s' creado/actualizado como admin\n", email)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
