package upload

import (
	"go.uber.org/fx"

	"github.com/jarvis360/revenuecore/internal/upload/repository"
	"github.com/jarvis360/revenuecore/internal/upload/service"
)

var Module = fx.Module("upload",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
