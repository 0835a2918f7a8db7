package automation

import (
	"go.uber.org/fx"

	"github.com/jarvis360/revenuecore/internal/automation/repository"
	"github.com/jarvis360/revenuecore/internal/automation/service"
)

var Module = fx.Module("automation",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
