package seed

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/antigravity/internal/store/domain"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EnsureDemoCatalog seeds demo products for non-production startup so the
// checkout flow works without manual catalog setup. Existing rows win.
func EnsureDemoCatalog(db *gorm.DB) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	now := time.Now().UTC()
	products := []domain.Product{
		{
			ID:             "prod_starter",
			Name:           "Starter",
			Description:    "Single-seat license",
			PriceCents:     1500,
			Currency:       "USD",
			CreemProductID: "creem_prod_starter",
			Active:         true,
			Metadata:       datatypes.JSONMap{"tier": "starter"},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
		{
			ID:             "prod_team",
			Name:           "Team",
			Description:    "Up to ten seats",
			PriceCents:     4900,
			Currency:       "USD",
			CreemProductID: "creem_prod_team",
			Active:         true,
			Metadata:       datatypes.JSONMap{"tier": "team"},
			CreatedAt:      now,
			UpdatedAt:      now,
		},
	}

	ctx := context.Background()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&products).Error
}
