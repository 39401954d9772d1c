package migration

import (
	"errors"

	"github.com/smallbiznis/antigravity/internal/store/domain"
	"gorm.io/gorm"
)

// RunMigrations creates the core tables on startup so the service is
// usable out of the box for local and self-hosted environments.
func RunMigrations(conn *gorm.DB) error {
	if conn == nil {
		return errors.New("migration database handle is required")
	}

	return conn.AutoMigrate(
		&domain.Product{},
		&domain.Order{},
		&domain.Entitlement{},
		&domain.WebhookEvent{},
	)
}
