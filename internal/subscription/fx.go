package subscription

import (
	"go.uber.org/fx"

	"github.com/jarvis360/revenuecore/internal/subscription/repository"
)

var Module = fx.Module("subscription",
	fx.Provide(repository.Provide),
)
