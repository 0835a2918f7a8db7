package blob

import (
	"go.uber.org/fx"

	"github.com/jarvis360/revenuecore/internal/config"
)

var Module = fx.Module("blob",
	fx.Provide(func(appCfg config.Config) Store {
		return NewLocalStore(appCfg.UploadDir)
	}),
)
