package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/yoypulse/pkg/config"
	"github.com/angelmondragon/yoypulse/pkg/db"
	"github.com/angelmondragon/yoypulse/pkg/logger"
)

// MaybeRun brings the actions schema up to date at boot when
// YOYPULSE_DB_AUTO_MIGRATE is set. The embedded set is checked before goose
// touches the database.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg == nil || !cfg.DB.AutoMigrate {
		return nil
	}
	if client == nil {
		return fmt.Errorf("auto-migrate: db client is required")
	}

	files, err := List(Embedded(), "migrations")
	if err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("auto-migrate: sql handle: %w", err)
	}

	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{
			"driver": client.Driver(),
			"files":  len(files),
			"latest": files[len(files)-1].Version,
		})
		logg.Info(ctx, "auto-migrate starting")
	}
	if err := Run(ctx, sqlDB, client.Driver(), "", "up"); err != nil {
		return fmt.Errorf("auto-migrate: goose up: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "auto-migrate complete")
	}
	return nil
}
