package customer

import (
	"go.uber.org/fx"

	"github.com/jarvis360/revenuecore/internal/customer/repository"
)

var Module = fx.Module("customer",
	fx.Provide(repository.Provide),
)
