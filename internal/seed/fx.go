package seed

import (
	"context"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/smallbiznis/storefront/internal/catalog/domain"
	"github.com/smallbiznis/storefront/internal/clock"
	"github.com/smallbiznis/storefront/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	DB        *gorm.DB
	Cfg       config.Config
	Log       *zap.Logger
	Repo      catalogdomain.Repository
	GenID     *snowflake.Node
	Clock     clock.Clock
}

var Module = fx.Module("seed",
	fx.Invoke(func(p Params) {
		if !p.Cfg.SeedDemoCatalog {
			return
		}
		log := p.Log.Named("seed")
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				inserted, err := EnsureDemoCatalog(ctx, p.DB, p.Repo, p.GenID, p.Clock)
				if err != nil {
					return err
				}
				log.Info("demo catalog ensured", zap.Int("inserted", inserted))
				return nil
			},
		})
	}),
)
