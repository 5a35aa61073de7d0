package migration

import (
	"github.com/smallbiznis/gomart/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB) error {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		if seed.Enabled() {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
