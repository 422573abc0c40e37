package db

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/internal/config"
	"github.com/hashicorp-forge/persistid/pkg/database"
	"github.com/hashicorp-forge/persistid/pkg/models"
)

// NewDB connects to the configured identifier database.
//
// Schema is normally managed by the persistid-migrate binary. When the
// database block sets auto_migrate, tables are created with gorm instead,
// which is convenient for SQLite development databases.
func NewDB(ctx context.Context, cfg config.Database, log hclog.Logger) (*gorm.DB, error) {
	db, err := database.Connect(ctx, cfg.DatabaseConfig(), log)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
			return nil, fmt.Errorf("error migrating database: %w", err)
		}
	}

	return db, nil
}
