package migration

import (
	"github.com/smallbiznis/antigravity/internal/config"
	"github.com/smallbiznis/antigravity/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if err := RunMigrations(conn); err != nil {
			return err
		}

		if !cfg.IsProduction() {
			return seed.EnsureDemoCatalog(conn)
		}
		return nil
	}),
)
