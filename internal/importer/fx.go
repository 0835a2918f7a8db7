package importer

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/jarvis360/revenuecore/internal/blob"
	"github.com/jarvis360/revenuecore/internal/clock"
	"github.com/jarvis360/revenuecore/internal/config"
	customerdomain "github.com/jarvis360/revenuecore/internal/customer/domain"
	subscriptiondomain "github.com/jarvis360/revenuecore/internal/subscription/domain"
	uploaddomain "github.com/jarvis360/revenuecore/internal/upload/domain"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Blobs         blob.Store
	ImportCfg     *config.ImportConfigHolder
	Customers     customerdomain.Repository
	Subscriptions subscriptiondomain.Repository
	Uploads       uploaddomain.Repository
	Queue         Enqueuer `optional:"true"`
}

var Module = fx.Module("importer",
	fx.Provide(func(p Params) *Importer {
		return NewImporter(p.DB, p.Log, p.GenID, p.Clock, p.Blobs, p.ImportCfg, p.Customers, p.Subscriptions)
	}),
	fx.Provide(func(p Params, imp *Importer) *Scheduler {
		return NewScheduler(p.DB, p.Log, p.Clock, p.ImportCfg, p.Uploads, p.Subscriptions, imp, p.Queue)
	}),
)
